package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress is returned for anything that is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// ChecksumAddress canonicalizes a hex address to its EIP-55 mixed-case form.
// The 0x prefix is optional on input and always present on output.
func ChecksumAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(addr) != 40 {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return "", ErrInvalidAddress
	}
	lower := strings.ToLower(addr)

	// Hash the lowercase hex digits, not the decoded bytes
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if c >= 'a' && c <= 'f' && nibble >= 8 {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out), nil
}

// IsChecksummed reports whether raw is already in EIP-55 form. All-lowercase
// and all-uppercase addresses carry no checksum and are accepted.
func IsChecksummed(raw string) bool {
	canonical, err := ChecksumAddress(raw)
	if err != nil {
		return false
	}
	body := strings.TrimPrefix(raw, "0x")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return "0x"+body == canonical
}

// NormalizeParticipantID trims raw and, when requireAddress is set,
// canonicalizes it as an address.
func NormalizeParticipantID(raw string, requireAddress bool) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrInvalidAddress
	}
	if !requireAddress {
		return id, nil
	}
	if !IsChecksummed(id) {
		return "", ErrInvalidAddress
	}
	return ChecksumAddress(id)
}

// MaskAddress shortens an address for display, e.g. 0x5aAe...eAed.
func MaskAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// GenerateRandomString generates a random string of the specified length
func GenerateRandomString(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:length], nil
}
