package types

import (
	"reflect"
	"testing"
)

func TestLocalizedTextResolve(t *testing.T) {
	text := LocalizedText{"en": "Traffic", "fi": "Liikenne"}

	cases := []struct {
		name    string
		lang    string
		primary string
		want    string
	}{
		{"exact match", "fi", "en", "Liikenne"},
		{"fallback to primary", "sv", "en", "Traffic"},
		{"empty value falls back", "de", "en", "Traffic"},
		{"missing everywhere", "sv", "de", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := text.Resolve(tc.lang, tc.primary); got != tc.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tc.lang, tc.primary, got, tc.want)
			}
		})
	}

	var nilText LocalizedText
	if got := nilText.Resolve("en", "en"); got != "" {
		t.Errorf("nil text resolved to %q", got)
	}
}

func TestLocalizedTextIsEmpty(t *testing.T) {
	if !(LocalizedText{}).IsEmpty() {
		t.Error("empty map should be empty")
	}
	if !(LocalizedText{"en": ""}).IsEmpty() {
		t.Error("map with only empty values should be empty")
	}
	if (LocalizedText{"en": "x"}).IsEmpty() {
		t.Error("map with a value should not be empty")
	}
}

func TestLocalizedTextSerializedRoundTrip(t *testing.T) {
	text := LocalizedText{"en": "Comment", "fi": "Kommentti", "sv": ""}

	serialized := text.Serialized("en")
	want := map[string]string{"text": "Comment", "text_fi": "Kommentti", "text_sv": ""}
	if !reflect.DeepEqual(serialized, want) {
		t.Fatalf("Serialized = %v, want %v", serialized, want)
	}

	back := LocalizedFromSerialized(serialized, "en")
	if !reflect.DeepEqual(back, text) {
		t.Errorf("round trip = %v, want %v", back, text)
	}
}

func TestStringListContains(t *testing.T) {
	list := StringList{"fi", "sv"}
	if !list.Contains("sv") {
		t.Error("expected sv in list")
	}
	if list.Contains("en") {
		t.Error("did not expect en in list")
	}
}
