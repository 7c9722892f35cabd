package models

import "strings"

type Locale string

const (
	LocaleEN Locale = "en"
	LocaleBN Locale = "bn"
)

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleBN
}

// Other returns the opposite locale.
func (l Locale) Other() Locale {
	if l == LocaleEN {
		return LocaleBN
	}
	return LocaleEN
}

// Name is the language name used in translation prompts.
func (l Locale) Name() string {
	if l == LocaleBN {
		return "Bengali"
	}
	return "English"
}

// LocalizedText holds one string per supported locale. Whitespace-only
// counts as empty.
type LocalizedText struct {
	EN string `json:"en"`
	BN string `json:"bn"`
}

func (t LocalizedText) Get(l Locale) string {
	if l == LocaleBN {
		return t.BN
	}
	return t.EN
}

func (t *LocalizedText) Set(l Locale, v string) {
	if l == LocaleBN {
		t.BN = v
		return
	}
	t.EN = v
}

func (t LocalizedText) Has(l Locale) bool {
	return strings.TrimSpace(t.Get(l)) != ""
}

func (t LocalizedText) IsEmpty() bool {
	return !t.Has(LocaleEN) && !t.Has(LocaleBN)
}

// Gap reports the empty locale and its populated source when exactly one
// side is filled.
func (t LocalizedText) Gap() (missing, source Locale, ok bool) {
	switch en, bn := t.Has(LocaleEN), t.Has(LocaleBN); {
	case en && !bn:
		return LocaleBN, LocaleEN, true
	case bn && !en:
		return LocaleEN, LocaleBN, true
	default:
		return "", "", false
	}
}

// LocalizedField names a translatable field of a record.
type LocalizedField struct {
	Name string
	Text *LocalizedText
}

// CountGaps counts one-sided fields.
func CountGaps(fields []LocalizedField) int {
	n := 0
	for _, f := range fields {
		if f.Text == nil {
			continue
		}
		if _, _, ok := f.Text.Gap(); ok {
			n++
		}
	}
	return n
}
