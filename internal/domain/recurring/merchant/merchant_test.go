package merchant

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NETFLIX.COM", "netflix com"},
		{"POS DEBIT NETFLIX.COM 866-579-7172", "netflix com"},
		{"ACH PAYMENT COMCAST", "comcast"},
		{"Spotify USA 12345", "spotify usa"},
		{"CARD PURCHASE   TRADER JOE'S #553", "trader joe s"},
		{"PMT ONLINE CITY OF SPRINGFIELD", "city of springfield"},
		{"12345 67890", ""},
		{"", ""},
		{"POS DEBIT 4421", ""},
	}

	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalize_CaseInvariant(t *testing.T) {
	inputs := []string{
		"Netflix.com",
		"POS Debit Spotify USA",
		"Trader Joe's #553",
	}
	for _, input := range inputs {
		if Normalize(input) != Normalize(strings.ToUpper(input)) {
			t.Errorf("Normalize(%q) differs from its uppercase form", input)
		}
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	// Total over arbitrary strings, including ones that reduce to nothing.
	for _, input := range []string{"\x00\x01", "日本語", "🎉🎉", "   ", "---"} {
		_ = Normalize(input)
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"netflix com", "Netflix Com"},
		{"city of springfield", "City Of Springfield"},
		{"spotify", "Spotify"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Display(tc.key); got != tc.expected {
			t.Errorf("Display(%q) = %q, want %q", tc.key, got, tc.expected)
		}
	}
}
