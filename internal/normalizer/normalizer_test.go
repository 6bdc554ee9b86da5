package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/chivocasa/listing-locator/app/models"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Accented Department",
			input:    "Cuscatlán",
			expected: "cuscatlan",
		},
		{
			name:     "Nonstandard Accent Spelling",
			input:    "Antigüo Cuscatlán",
			expected: "antiguo cuscatlan",
		},
		{
			name:     "Enye",
			input:    "Cañas",
			expected: "canas",
		},
		{
			name:     "Mixed Case With Whitespace",
			input:    "  SAN Salvador  ",
			expected: "san salvador",
		},
		{
			name:     "Empty",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Normalize(tc.input)
			if result != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Antigüo Cuscatlán", "Santa Tecla", "ñandú ÑANDÚ"}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeEquivalentSpellings(t *testing.T) {
	a := Normalize("Antigüo Cuscatlán")
	b := Normalize("Antiguo Cuscatlan")
	if a != b {
		t.Errorf("spellings should normalize identically: %q vs %q", a, b)
	}
}

func TestStripPrefixes(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Compound Prefix",
			input:    "Colonia La Cima 1",
			expected: "cima 1",
		},
		{
			name:     "Single Prefix",
			input:    "Residencial Utila",
			expected: "utila",
		},
		{
			name:     "Abbreviated Prefix",
			input:    "Col. Escalón",
			expected: "escalon",
		},
		{
			name:     "No Prefix",
			input:    "Soyapango",
			expected: "soyapango",
		},
		{
			name:     "Prefix Is The Whole Name",
			input:    "La Libertad",
			expected: "libertad",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := StripPrefixes(tc.input)
			if result != tc.expected {
				t.Errorf("StripPrefixes(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestStripPrefixesNeverEmpty(t *testing.T) {
	// Names made entirely of prefixes keep their last word.
	inputs := []string{"Colonia", "La", "Colonia La"}
	for _, input := range inputs {
		if result := StripPrefixes(input); result == "" {
			t.Errorf("StripPrefixes(%q) stripped to empty string", input)
		}
	}
}

func TestBuildSourceTextsStructuredLocation(t *testing.T) {
	location, _ := json.Marshal(map[string]string{
		"municipio_detectado": "Antiguo Cuscatlán",
		"departamento":        "La Libertad",
		"zona":                "Zona Central",
	})
	listing := models.Listing{
		ExternalID: 42,
		Title:      "Casa en venta",
		Location:   location,
	}

	texts := BuildSourceTexts(listing)
	if texts.Location != "antiguo cuscatlan la libertad zona central" {
		t.Errorf("unexpected location text: %q", texts.Location)
	}
	if texts.Title != "casa en venta" {
		t.Errorf("unexpected title text: %q", texts.Title)
	}
}

func TestBuildSourceTextsPlainStringLocation(t *testing.T) {
	location, _ := json.Marshal("Col. Escalón, San Salvador")
	listing := models.Listing{ExternalID: 42, Location: location}

	texts := BuildSourceTexts(listing)
	if texts.Location != "col. escalon, san salvador" {
		t.Errorf("unexpected location text: %q", texts.Location)
	}
}

func TestFingerprint(t *testing.T) {
	a := SourceTexts{Title: "casa", Location: "san salvador"}
	b := SourceTexts{Title: "casa", Location: "san salvador"}
	c := SourceTexts{Title: "casa san", Location: "salvador"}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical texts should fingerprint identically")
	}
	// The separator keeps field boundaries in the hash.
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("shifting text across fields should change the fingerprint")
	}
}

func TestSourceTextsEmpty(t *testing.T) {
	if !(SourceTexts{}).Empty() {
		t.Error("zero value should be empty")
	}
	if (SourceTexts{Description: "x"}).Empty() {
		t.Error("texts with a description are not empty")
	}
}
