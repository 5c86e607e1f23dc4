// Package i18n maps a recipient's language preference to nudge copy. The
// catalog is a fixed table owned by the content team; this package only
// normalizes the language tag, looks up, and fills the one placeholder.
package i18n

import "strings"

// DefaultLanguage backs every fallback path. Its catalog entries must exist
// for all nudge classes; resolution can therefore never fail.
const DefaultLanguage = "en"

// Nudge classes with distinct copy.
const (
	ClassAuto   = "auto"
	ClassManual = "manual"
)

// Message is a resolved title/body pair ready for the push gateway.
type Message struct {
	Title string
	Body  string
}

// Body templates support exactly one placeholder, {name}, replaced with the
// sender's display name. No loops, no conditionals.
var catalog = map[string]map[string]Message{
	"en": {
		ClassAuto:   {Title: "Your partner just checked in!", Body: "{name} completed today's challenge. Your turn!"},
		ClassManual: {Title: "Friendly nudge", Body: "{name} is waiting for you to finish today's challenge."},
	},
	"es": {
		ClassAuto:   {Title: "¡Tu compañero ya cumplió!", Body: "{name} completó el reto de hoy. ¡Te toca!"},
		ClassManual: {Title: "Un empujoncito", Body: "{name} espera que termines el reto de hoy."},
	},
	"de": {
		ClassAuto:   {Title: "Dein Partner hat eingecheckt!", Body: "{name} hat die heutige Challenge geschafft. Jetzt du!"},
		ClassManual: {Title: "Kleiner Anstupser", Body: "{name} wartet darauf, dass du die heutige Challenge abschließt."},
	},
	"fr": {
		ClassAuto:   {Title: "Votre partenaire a validé sa journée !", Body: "{name} a terminé le défi du jour. À vous !"},
		ClassManual: {Title: "Petit rappel", Body: "{name} attend que vous terminiez le défi du jour."},
	},
	"pt": {
		ClassAuto:   {Title: "Seu parceiro acabou de concluir!", Body: "{name} completou o desafio de hoje. Sua vez!"},
		ClassManual: {Title: "Um empurrãozinho", Body: "{name} está esperando você concluir o desafio de hoje."},
	},
}

// NormalizeLanguage reduces a free-form client locale to a supported
// catalog language: trim, lowercase, strip the region suffix, default to
// DefaultLanguage when unsupported.
func NormalizeLanguage(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	for _, sep := range []string{"-", "_"} {
		if i := strings.Index(tag, sep); i > 0 {
			tag = tag[:i]
		}
	}
	if _, ok := catalog[tag]; !ok {
		return DefaultLanguage
	}
	return tag
}

// Resolve returns the copy for the given language and nudge class with the
// sender's name substituted into the body.
func Resolve(language, class, senderName string) Message {
	entries, ok := catalog[NormalizeLanguage(language)]
	if !ok {
		entries = catalog[DefaultLanguage]
	}
	msg, ok := entries[class]
	if !ok {
		msg = catalog[DefaultLanguage][ClassManual]
	}
	if strings.TrimSpace(senderName) == "" {
		senderName = "Your partner"
	}
	msg.Body = strings.ReplaceAll(msg.Body, "{name}", senderName)
	return msg
}
