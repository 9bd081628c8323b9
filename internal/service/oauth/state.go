package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// statePayload is the wire form of the state query parameter: enough context
// to correlate the callback with the stored attempt. The PKCE verifier never
// rides along; it stays server-side in the credential store.
type statePayload struct {
	Secret string `json:"state"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

func encodeState(p statePayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeState(encoded string) (statePayload, error) {
	// Tolerate padded encodings from older clients.
	trimmed := strings.TrimRight(strings.TrimSpace(encoded), "=")
	raw, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return statePayload{}, fmt.Errorf("decode state: %w", err)
	}
	var p statePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return statePayload{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return p, nil
}

func secureRandomString(size int) (string, error) {
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// pkceChallenge derives the S256 code challenge: base64url without padding
// over the SHA-256 of the verifier.
func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
