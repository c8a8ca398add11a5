// Package signer implements the P_SIGN message authentication scheme used by
// the LibraPay authorization protocol: an HMAC-SHA1 over a length-prefixed
// concatenation of an ordered field vector, keyed by the merchant's shared
// secret. SHA-1 is fixed by the provider's protocol and cannot be upgraded
// unilaterally.
package signer

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// KeyFromHex decodes the 32-hex-character encryption key from the gateway
// configuration into the raw 16 bytes used as the HMAC key.
func KeyFromHex(encryptionKey string) ([]byte, error) {
	key, err := hex.DecodeString(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	return key, nil
}

// BuildMessage concatenates the field vector into the signed message. Each
// field contributes "<decimal byte length><value>"; an empty field contributes
// the single character "-". The provider treats absent and empty identically,
// so callers pass "" for both.
func BuildMessage(fields []string) string {
	var b strings.Builder
	for _, f := range fields {
		if f == "" {
			b.WriteByte('-')
			continue
		}
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteString(f)
	}
	return b.String()
}

// Sign computes the P_SIGN over the ordered field vector. The result is the
// 40-character uppercase hex HMAC-SHA1 digest.
func Sign(fields []string, key []byte) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(BuildMessage(fields)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// Verify recomputes the signature and compares it against the candidate in
// constant time. The candidate is case-insensitive, matching the provider's
// uppercase-on-receipt behavior.
func Verify(fields []string, key []byte, candidate string) bool {
	computed := Sign(fields, key)
	return hmac.Equal([]byte(computed), []byte(strings.ToUpper(candidate)))
}
