package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairhabit/nudged/internal/config"
	"github.com/pairhabit/nudged/internal/models"
	"github.com/pairhabit/nudged/internal/nudge"
	"github.com/pairhabit/nudged/internal/pairing"
	"github.com/pairhabit/nudged/internal/push"
	"github.com/pairhabit/nudged/internal/ratelimit"
	"github.com/pairhabit/nudged/internal/security"
	"github.com/pairhabit/nudged/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type okGateway struct{}

func (okGateway) ValidateAddress(addr string) bool { return push.IsExpoToken(addr) }

func (okGateway) Send(_ context.Context, messages []push.Message) ([]push.Ticket, error) {
	out := make([]push.Ticket, len(messages))
	for i := range out {
		out[i] = push.Ticket{Status: "ok"}
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, config.JWTConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := testutil.OpenTestDB(t)
	jwtCfg := config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}

	svc := nudge.NewService(
		conn,
		pairing.NewResolver(conn),
		ratelimit.NewManager(ratelimit.NewStore(conn), nil, nil, nil),
		push.NewDispatcher(okGateway{}, conn),
		nil,
	)

	r := gin.New()
	RegisterRoutes(r, conn, jwtCfg, svc)
	return r, conn, jwtCfg
}

func seedPair(t *testing.T, conn *gorm.DB) {
	t.Helper()
	require.NoError(t, conn.Create(&models.User{ID: "alice", DisplayName: "Alice"}).Error)
	require.NoError(t, conn.Create(&models.User{ID: "bob", PushToken: "ExponentPushToken[bob]"}).Error)
	require.NoError(t, conn.Create(&models.DuoProgress{
		UserID: "alice", ChallengeID: "c1", SelectedDurationDays: 30, IsDuo: true, PartnerID: "bob",
	}).Error)
	require.NoError(t, conn.Create(&models.DuoProgress{
		UserID: "bob", ChallengeID: "c1", SelectedDurationDays: 30, IsDuo: true, PartnerID: "alice",
	}).Error)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, errMarshal := json.Marshal(body)
	require.NoError(t, errMarshal)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDispatchEndpoint_RequiresAuth(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/nudges", "", nudge.Request{LegacyKey: "c1_30"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/nudges", "not-a-jwt", nudge.Request{LegacyKey: "c1_30"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDispatchEndpoint_SendsNudge(t *testing.T) {
	r, conn, jwtCfg := newTestRouter(t)
	seedPair(t, conn)

	token, errSign := security.SignUserToken(jwtCfg.Secret, "alice", jwtCfg.Expiry)
	require.NoError(t, errSign)

	w := doJSON(t, r, http.MethodPost, "/v1/nudges", token, nudge.Request{
		Type: "manual", ChallengeID: "c1", DurationDays: 30, PartnerID: "bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK      bool   `json:"ok"`
		Sent    bool   `json:"sent"`
		Skipped bool   `json:"skipped"`
		PairKey string `json:"pairIdentity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	require.True(t, resp.Sent)
	require.Equal(t, "c1:30:alice:bob", resp.PairKey)
}

func TestDispatchEndpoint_SkipIsStillHTTP200(t *testing.T) {
	r, conn, jwtCfg := newTestRouter(t)
	seedPair(t, conn)
	require.NoError(t, conn.Where("user_id = ?", "bob").Delete(&models.DuoProgress{}).Error)

	token, errSign := security.SignUserToken(jwtCfg.Secret, "alice", jwtCfg.Expiry)
	require.NoError(t, errSign)

	w := doJSON(t, r, http.MethodPost, "/v1/nudges", token, nudge.Request{
		Type: "manual", ChallengeID: "c1", DurationDays: 30, PartnerID: "bob",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Skipped bool   `json:"skipped"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Skipped)
	require.Equal(t, nudge.ReasonPartnerNotInDuo, resp.Reason)
}

func TestDispatchEndpoint_SelfNudgeForbidden(t *testing.T) {
	r, conn, jwtCfg := newTestRouter(t)
	seedPair(t, conn)

	token, errSign := security.SignUserToken(jwtCfg.Secret, "alice", jwtCfg.Expiry)
	require.NoError(t, errSign)

	w := doJSON(t, r, http.MethodPost, "/v1/nudges", token, nudge.Request{
		Type: "manual", ChallengeID: "c1", DurationDays: 30, PartnerID: "alice",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPushTokenEndpoint_RegisterRotatesSlots(t *testing.T) {
	r, conn, jwtCfg := newTestRouter(t)
	require.NoError(t, conn.Create(&models.User{ID: "alice", PushToken: "ExponentPushToken[old]"}).Error)

	token, errSign := security.SignUserToken(jwtCfg.Secret, "alice", jwtCfg.Expiry)
	require.NoError(t, errSign)

	w := doJSON(t, r, http.MethodPost, "/v1/push-tokens", token, map[string]string{
		"token": "ExponentPushToken[new]",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var alice models.User
	require.NoError(t, conn.First(&alice, "id = ?", "alice").Error)
	require.Equal(t, "ExponentPushToken[new]", alice.PushToken)
	require.Contains(t, alice.PushTokens, "ExponentPushToken[old]")
}

func TestPushTokenEndpoint_RejectsForeignFormat(t *testing.T) {
	r, conn, jwtCfg := newTestRouter(t)
	require.NoError(t, conn.Create(&models.User{ID: "alice"}).Error)

	token, errSign := security.SignUserToken(jwtCfg.Secret, "alice", jwtCfg.Expiry)
	require.NoError(t, errSign)

	w := doJSON(t, r, http.MethodPost, "/v1/push-tokens", token, map[string]string{
		"token": "fcm:not-an-expo-token",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
