package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// LocalizedText stores one string per language tag as a JSON column,
// e.g. {"en": "Fine", "fi": "Hyvä"}. The plan's primary language acts as the
// fallback when a requested language has no value.
type LocalizedText map[string]string

func (t LocalizedText) GormDataType() string { return "json" }

func (t LocalizedText) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *LocalizedText) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into LocalizedText", value)
	}
	if len(data) == 0 {
		*t = nil
		return nil
	}
	return json.Unmarshal(data, t)
}

// Resolve returns the value for lang, falling back to the primary language.
func (t LocalizedText) Resolve(lang, primaryLanguage string) string {
	if t == nil {
		return ""
	}
	if v, ok := t[lang]; ok && v != "" {
		return v
	}
	return t[primaryLanguage]
}

// IsEmpty reports whether no language carries a non-empty value.
func (t LocalizedText) IsEmpty() bool {
	for _, v := range t {
		if v != "" {
			return false
		}
	}
	return true
}

// Serialized maps the text to the transport layout: the primary language
// under "text", every other language under "text_<lang>". Empty values are
// kept so the layout is stable for snapshot payloads.
func (t LocalizedText) Serialized(primaryLanguage string) map[string]string {
	out := map[string]string{"text": t[primaryLanguage]}
	for lang, v := range t {
		if lang == primaryLanguage {
			continue
		}
		out["text_"+lang] = v
	}
	return out
}

// LocalizedFromSerialized is the inverse of Serialized.
func LocalizedFromSerialized(data map[string]string, primaryLanguage string) LocalizedText {
	out := LocalizedText{}
	for key, v := range data {
		if key == "text" {
			out[primaryLanguage] = v
			continue
		}
		if lang, ok := strings.CutPrefix(key, "text_"); ok {
			out[lang] = v
		}
	}
	return out
}

// StringList is a JSON-encoded list column, used for a plan's other
// languages.
type StringList []string

func (l StringList) GormDataType() string { return "json" }

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
