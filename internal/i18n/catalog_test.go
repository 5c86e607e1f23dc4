package i18n

import (
	"strings"
	"testing"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" es ", "es"},
		{"pt-BR", "pt"},
		{"de_AT", "de"},
		{"fr-CA", "fr"},
		{"ja", "en"},
		{"", "en"},
		{"zz-ZZ", "en"},
	}
	for _, tc := range cases {
		if got := NormalizeLanguage(tc.raw); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolve_SubstitutesSenderName(t *testing.T) {
	msg := Resolve("en", ClassManual, "Alice")
	if !strings.Contains(msg.Body, "Alice") {
		t.Fatalf("body %q does not mention the sender", msg.Body)
	}
	if strings.Contains(msg.Body, "{name}") {
		t.Fatalf("body %q still carries the placeholder", msg.Body)
	}
}

func TestResolve_BlankSenderGetsGenericName(t *testing.T) {
	msg := Resolve("en", ClassAuto, "  ")
	if strings.Contains(msg.Body, "{name}") {
		t.Fatalf("body %q still carries the placeholder", msg.Body)
	}
}

func TestResolve_UnsupportedLanguageFallsBack(t *testing.T) {
	want := Resolve(DefaultLanguage, ClassAuto, "Alice")
	got := Resolve("ko-KR", ClassAuto, "Alice")
	if got != want {
		t.Fatalf("fallback copy %+v differs from default %+v", got, want)
	}
}

func TestCatalog_DefaultLanguageCoversAllClasses(t *testing.T) {
	for _, class := range []string{ClassAuto, ClassManual} {
		msg := Resolve(DefaultLanguage, class, "x")
		if msg.Title == "" || msg.Body == "" {
			t.Fatalf("default language missing copy for class %q", class)
		}
	}
}

func TestCatalog_EveryLanguageCoversAllClasses(t *testing.T) {
	for lang, entries := range catalog {
		for _, class := range []string{ClassAuto, ClassManual} {
			if _, ok := entries[class]; !ok {
				t.Fatalf("language %q missing class %q", lang, class)
			}
		}
	}
}
