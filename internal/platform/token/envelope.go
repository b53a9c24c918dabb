package token

import (
	"encoding/base64"
	"strings"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
)

// Wire format shared by session and QR tokens:
//
//	base64url(payload) "." base64url(signature)
//
// Both segments are unpadded base64url, which can never contain a literal
// dot, so exactly one separator is a hard invariant. The signature covers
// the encoded payload segment, not the raw payload bytes.

// Strict decoding rejects non-canonical trailing bits, so no two distinct
// token strings decode to the same signature.
var b64 = base64.RawURLEncoding.Strict()

// seal encodes and signs a payload into a token string.
func seal(payload, secret []byte) string {
	encoded := b64.EncodeToString(payload)
	sig := Sign([]byte(encoded), secret)
	return encoded + "." + b64.EncodeToString(sig)
}

// open parses a token, checks its signature and returns the decoded
// payload. Any structural problem, decode failure or signature mismatch
// comes back as domain.ErrInvalidToken; no parse error escapes raw.
func open(tok string, secret []byte) ([]byte, error) {
	if strings.Count(tok, ".") != 1 {
		return nil, domain.ErrInvalidToken
	}

	encoded, sigPart, _ := strings.Cut(tok, ".")
	if encoded == "" || sigPart == "" {
		return nil, domain.ErrInvalidToken
	}

	sig, err := b64.DecodeString(sigPart)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	if !VerifySignature([]byte(encoded), sig, secret) {
		return nil, domain.ErrInvalidToken
	}

	payload, err := b64.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return payload, nil
}
