package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateMatchedText(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "Short Text Unchanged",
			input: "Antiguo Cuscatlán",
		},
		{
			name:  "Long ASCII Text",
			input: strings.Repeat("a", 300),
		},
		{
			name: "Accent Straddles The Limit",
			// 254 bytes then a two-byte rune: a naive byte slice at 255
			// would cut the rune in half.
			input: strings.Repeat("a", 254) + strings.Repeat("á", 30),
		},
		{
			name:  "Multibyte Throughout",
			input: strings.Repeat("ñ", 200),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := TruncateMatchedText(tc.input)
			if len(result) > MatchedTextLimit {
				t.Errorf("result is %d bytes, limit is %d", len(result), MatchedTextLimit)
			}
			if !utf8.ValidString(result) {
				t.Errorf("result is not valid UTF-8: %q", result)
			}
			if len(tc.input) <= MatchedTextLimit && result != tc.input {
				t.Errorf("short input must pass through unchanged")
			}
			if !strings.HasPrefix(tc.input, result) {
				t.Errorf("result must be a prefix of the input")
			}
		})
	}
}

func TestRoundScore(t *testing.T) {
	testCases := []struct {
		input    float64
		expected float64
	}{
		{0.95, 0.95},
		{0.8075, 0.81},
		{1.0, 1.0},
		{0.7124999, 0.71},
	}
	for _, tc := range testCases {
		if got := RoundScore(tc.input); got != tc.expected {
			t.Errorf("RoundScore(%v) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestMatchedReportsAnyLevel(t *testing.T) {
	var record MatchRecord
	if record.Matched() {
		t.Error("empty record must not report matched")
	}
	record.SetLocGroup(LevelDepartment, 5)
	if !record.Matched() {
		t.Error("a department-only record is matched")
	}
}
