// Package i18n holds the bilingual text value used across the MILA API.
// Every user-facing message the clinical engines produce carries its English
// and Spanish rendering side by side; the pair is computed together with the
// clinical result, never looked up from a translation table.
package i18n

import "fmt"

// Text is an English/Spanish string pair.
type Text struct {
	EN string `db:"text_en" json:"en"`
	ES string `db:"text_es" json:"es"`
}

// T builds a Text from its two renderings.
func T(en, es string) Text {
	return Text{EN: en, ES: es}
}

// Tf builds a Text by applying the same arguments to an English and a
// Spanish format string.
func Tf(enFormat, esFormat string, args ...interface{}) Text {
	return Text{
		EN: fmt.Sprintf(enFormat, args...),
		ES: fmt.Sprintf(esFormat, args...),
	}
}

// In returns the rendering for a language code, defaulting to English for
// anything other than "es".
func (t Text) In(lang string) string {
	if lang == "es" {
		return t.ES
	}
	return t.EN
}

// IsZero reports whether both renderings are empty.
func (t Text) IsZero() bool {
	return t.EN == "" && t.ES == ""
}
