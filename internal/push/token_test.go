package push

import "testing"

func TestIsExpoToken(t *testing.T) {
	valid := []string{
		"ExponentPushToken[abc123]",
		"ExpoPushToken[xyz]",
		"  ExponentPushToken[abc]  ",
	}
	for _, token := range valid {
		if !IsExpoToken(token) {
			t.Fatalf("IsExpoToken(%q) = false, want true", token)
		}
	}

	invalid := []string{
		"",
		"abc123",
		"ExponentPushToken[]",
		"ExponentPushToken[abc",
		"fcm:legacy-token-shape",
		"exponentpushtoken[abc]",
	}
	for _, token := range invalid {
		if IsExpoToken(token) {
			t.Fatalf("IsExpoToken(%q) = true, want false", token)
		}
	}
}
