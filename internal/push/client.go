package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the Expo push send endpoint.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

// chunkSize is the gateway's documented per-request message cap.
const chunkSize = 100

// Gateway receipt error code for a destination that will never work again.
const errDeviceNotRegistered = "DeviceNotRegistered"

// Message is one outbound push notification.
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

// Ticket is the gateway's per-message delivery result.
type Ticket struct {
	Status  string        `json:"status"`
	ID      string        `json:"id,omitempty"`
	Message string        `json:"message,omitempty"`
	Details TicketDetails `json:"details,omitempty"`
}

// TicketDetails carries the typed error classification for failed tickets.
type TicketDetails struct {
	Error string `json:"error,omitempty"`
}

// OK reports whether the message was accepted for delivery.
func (t Ticket) OK() bool {
	return t.Status == "ok"
}

// PermanentFailure reports whether the gateway classified the destination
// as permanently invalid. Only these destinations are eligible for cleanup;
// transient failures are left alone.
func (t Ticket) PermanentFailure() bool {
	return t.Details.Error == errDeviceNotRegistered
}

// Gateway abstracts the push delivery service.
type Gateway interface {
	ValidateAddress(addr string) bool
	Send(ctx context.Context, messages []Message) ([]Ticket, error)
}

// Client talks to the Expo push HTTP API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a Client. An empty endpoint selects the production
// gateway; a nil httpClient gets a 10s-timeout default.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// ValidateAddress implements Gateway.
func (c *Client) ValidateAddress(addr string) bool {
	return IsExpoToken(addr)
}

// Send delivers messages in gateway-sized chunks and returns one ticket per
// message, in input order. A transport or decode failure aborts the whole
// call; per-message failures come back as error tickets.
func (c *Client) Send(ctx context.Context, messages []Message) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(messages))
	for start := 0; start < len(messages); start += chunkSize {
		end := start + chunkSize
		if end > len(messages) {
			end = len(messages)
		}
		chunk, errChunk := c.sendChunk(ctx, messages[start:end])
		if errChunk != nil {
			return nil, errChunk
		}
		tickets = append(tickets, chunk...)
	}
	return tickets, nil
}

func (c *Client) sendChunk(ctx context.Context, messages []Message) ([]Ticket, error) {
	payload, errMarshal := json.Marshal(messages)
	if errMarshal != nil {
		return nil, fmt.Errorf("push: marshal messages: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return nil, fmt.Errorf("push: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("push: send: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return nil, fmt.Errorf("push: read response: %w", errRead)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push: gateway returned %d", resp.StatusCode)
	}

	var decoded struct {
		Data []Ticket `json:"data"`
	}
	if errDecode := json.Unmarshal(body, &decoded); errDecode != nil {
		return nil, fmt.Errorf("push: decode response: %w", errDecode)
	}
	if len(decoded.Data) != len(messages) {
		return nil, fmt.Errorf("push: got %d tickets for %d messages", len(decoded.Data), len(messages))
	}
	return decoded.Data, nil
}
