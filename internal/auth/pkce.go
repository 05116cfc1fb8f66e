package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	// StateLength is the length of the anti-forgery state nonce.
	StateLength = 16
	// VerifierLength is the length of the PKCE code verifier (RFC 7636 allows 43-128).
	VerifierLength = 128

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// bytes at or above this value are rejected so each symbol is equally likely
	maxUnbiased = 256 - 256%len(alphabet)
)

var urlSafe = strings.NewReplacer("+", "-", "/", "_")

// GenerateRandomString returns n characters drawn uniformly and independently from [A-Za-z0-9].
//
// Randomness comes from [crypto/rand]; n <= 0 yields the empty string.
func GenerateRandomString(n int) string {
	if n <= 0 {
		return ""
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4)
	for len(out) < n {
		// never fails as of Go 1.24
		rand.Read(buf)
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// GenerateCodeChallenge derives the S256 PKCE challenge for verifier:
// URL-safe base64 of SHA-256(verifier) with the padding stripped.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	return strings.TrimRight(urlSafe.Replace(encoded), "=")
}
