package photo

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// MinPayloadBytes is the smallest decoded payload accepted as a photo.
// Anything below this cannot be a real camera capture.
const MinPayloadBytes = 128

var ErrInvalidPhoto = errors.New("invalid photo payload")

// Fingerprint returns the lowercase hex SHA-256 of the raw photo bytes.
// Submissions may arrive as raw bytes, bare base64, or a data URI; all three
// forms of the same image produce the same fingerprint. Malformed or
// undersized payloads fail with ErrInvalidPhoto before any digest is
// computed.
func Fingerprint(payload []byte) (string, error) {
	raw, err := decode(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func decode(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrInvalidPhoto
	}

	s := string(payload)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, ErrInvalidPhoto
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s[idx+1:]))
		if err != nil || len(raw) < MinPayloadBytes {
			return nil, ErrInvalidPhoto
		}
		return raw, nil
	}

	// Bare base64 without a preamble.
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		if len(raw) < MinPayloadBytes {
			return nil, ErrInvalidPhoto
		}
		return raw, nil
	}

	if len(payload) < MinPayloadBytes {
		return nil, ErrInvalidPhoto
	}
	return payload, nil
}
