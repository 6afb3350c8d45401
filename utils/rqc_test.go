package utils

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestCreatePseudoAddress(t *testing.T) {
	a := CreatePseudoAddress("reviewer@uni.test", "salt00000001")
	b := CreatePseudoAddress("reviewer@uni.test", "salt00000001")

	if a != b {
		t.Fatalf("pseudo address not deterministic: %q vs %q", a, b)
	}
	if !strings.HasSuffix(a, PseudoAddressDomain) {
		t.Fatalf("missing domain suffix: %q", a)
	}
	// sha1 hex digest + domain
	if len(a) != 40+len(PseudoAddressDomain) {
		t.Fatalf("unexpected length: %d", len(a))
	}

	differentSalt := CreatePseudoAddress("reviewer@uni.test", "salt00000002")
	if a == differentSalt {
		t.Fatalf("different salts must produce different addresses")
	}
	differentEmail := CreatePseudoAddress("other@uni.test", "salt00000001")
	if a == differentEmail {
		t.Fatalf("different emails must produce different addresses")
	}
}

func TestGenerateRandomSalt(t *testing.T) {
	salt, err := GenerateRandomSalt(SaltLength)
	if err != nil {
		t.Fatalf("salt generation failed: %v", err)
	}
	if len(salt) != SaltLength {
		t.Fatalf("unexpected salt length: %d", len(salt))
	}
	for _, r := range salt {
		if !strings.ContainsRune(saltAlphabet, r) {
			t.Fatalf("unexpected salt character: %q", r)
		}
	}
}

func TestFormatRQCDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2026, 3, 15, 10, 30, 0, 0, loc)

	if got := FormatRQCDate(ts); got != "2026-03-15T09:30:00Z" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestConvertReviewDecision(t *testing.T) {
	cases := map[string]string{
		"accept":          "ACCEPT",
		"minor_revisions": "MINORREVISION",
		"major_revisions": "MAJORREVISION",
		"reject":          "REJECT",
		"":                "",
		"something_else":  "",
	}
	for in, want := range cases {
		if got := ConvertReviewDecision(in); got != want {
			t.Errorf("ConvertReviewDecision(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("0123456789abc", 10); got != "0123456789" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	// A two-byte rune straddling the limit must be dropped whole.
	s := strings.Repeat("a", 1999) + "éX"
	got := Truncate(s, 2000)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got[1990:])
	}
	if got != strings.Repeat("a", 1999) {
		t.Fatalf("unexpected cut point: len=%d", len(got))
	}

	multibyte := Truncate(strings.Repeat("日", 10), 8)
	if !utf8.ValidString(multibyte) {
		t.Fatalf("truncation produced invalid UTF-8: %q", multibyte)
	}
	// 日 is three bytes; 8 bytes of budget fit two whole runes.
	if multibyte != strings.Repeat("日", 2) {
		t.Fatalf("unexpected cut: %q", multibyte)
	}
}

func TestValidateAPIKey(t *testing.T) {
	if ok, _ := ValidateAPIKey("abc123XYZ"); !ok {
		t.Fatalf("expected valid key")
	}
	if ok, _ := ValidateAPIKey(""); ok {
		t.Fatalf("empty key must be invalid")
	}
	if ok, _ := ValidateAPIKey(strings.Repeat("a", 65)); ok {
		t.Fatalf("overlong key must be invalid")
	}
	if ok, _ := ValidateAPIKey("abc-123"); ok {
		t.Fatalf("non-alphanumeric key must be invalid")
	}
}
