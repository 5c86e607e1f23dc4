// Package push delivers nudge notifications through the Expo push gateway
// and prunes destinations the gateway reports as permanently dead.
package push

import "strings"

// IsExpoToken reports whether addr matches the Expo push token format,
// "ExponentPushToken[...]" (or the older "ExpoPushToken[...]" spelling).
// Anything else is discarded before sending.
func IsExpoToken(addr string) bool {
	token := strings.TrimSpace(addr)
	var inner string
	switch {
	case strings.HasPrefix(token, "ExponentPushToken["):
		inner = strings.TrimPrefix(token, "ExponentPushToken[")
	case strings.HasPrefix(token, "ExpoPushToken["):
		inner = strings.TrimPrefix(token, "ExpoPushToken[")
	default:
		return false
	}
	if !strings.HasSuffix(inner, "]") {
		return false
	}
	return len(strings.TrimSuffix(inner, "]")) > 0
}
