// utils/rqc.go - formatting and pseudonymization primitives for RQC payloads
package utils

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"math/big"
	"time"
	"unicode/utf8"

	"rqc-adapter-api/models"
)

// PseudoAddressDomain is appended to the hash so the pseudo address stays a
// syntactically valid email without pointing at a real mailbox.
const PseudoAddressDomain = "@example.edu"

// SaltLength is the length of a generated journal salt.
const SaltLength = 12

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RQCDateFormat is the timestamp layout the RQC API expects (always UTC).
const RQCDateFormat = "2006-01-02T15:04:05Z"

// FormatRQCDate renders a timestamp in RQC format, normalized to UTC.
func FormatRQCDate(t time.Time) string {
	return t.UTC().Format(RQCDateFormat)
}

// NowRQCFormat returns the current UTC time in RQC format.
func NowRQCFormat() string {
	return FormatRQCDate(time.Now())
}

// ConvertReviewDecision maps the host application's reviewer decision
// vocabulary to RQC's. Unknown decisions map to the empty string.
func ConvertReviewDecision(decision string) string {
	switch decision {
	case models.ReviewDecisionAccept:
		return "ACCEPT"
	case models.ReviewDecisionMinorRevisions:
		return "MINORREVISION"
	case models.ReviewDecisionMajorRevisions:
		return "MAJORREVISION"
	case models.ReviewDecisionReject:
		return "REJECT"
	default:
		return ""
	}
}

// CreatePseudoAddress derives the stable anonymous address for a reviewer.
// Deterministic: the same (email, salt) pair always yields the same address,
// so RQC can recognize repeat submissions by the same anonymous reviewer.
func CreatePseudoAddress(email, salt string) string {
	sum := sha1.Sum([]byte(email + salt))
	return hex.EncodeToString(sum[:]) + PseudoAddressDomain
}

// GenerateRandomSalt returns a cryptographically random alphanumeric salt.
func GenerateRandomSalt(length int) (string, error) {
	salt := make([]byte, length)
	max := big.NewInt(int64(len(saltAlphabet)))
	for i := range salt {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		salt[i] = saltAlphabet[n.Int64()]
	}
	return string(salt), nil
}

// Truncate cuts a string to at most limit bytes. RQC rejects payloads whose
// single-line fields exceed 2000 characters or whose review texts exceed
// 200000, so the assembler clamps everything at the boundary. The cut backs
// up to the nearest rune boundary so a multibyte character straddling the
// limit is dropped whole instead of leaving invalid UTF-8 behind.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
