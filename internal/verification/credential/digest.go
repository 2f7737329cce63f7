// Package credential derives the lookup digest for a container's scan credential.
// Plaintext credentials are never stored.
package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Digester computes keyed, deterministic digests so the registry can look a
// container up by credential without holding the credential itself.
type Digester struct {
	pepper []byte
}

func NewDigester(pepper string) (*Digester, error) {
	if len(pepper) < 16 {
		return nil, errors.New("credential pepper must be at least 16 bytes")
	}
	return &Digester{pepper: []byte(pepper)}, nil
}

// Digest returns the hex HMAC-SHA256 of the trimmed credential.
func (d *Digester) Digest(credential string) string {
	mac := hmac.New(sha256.New, d.pepper)
	mac.Write([]byte(strings.TrimSpace(credential)))
	return hex.EncodeToString(mac.Sum(nil))
}
