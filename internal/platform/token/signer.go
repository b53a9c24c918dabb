package token

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Sign computes an HMAC-SHA256 signature over payload.
func Sign(payload, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// VerifySignature reports whether sig is a valid signature for payload.
// Fails closed: an empty secret or a length mismatch is always false. The
// byte comparison is constant time (hmac.Equal) so verification leaks no
// timing information about the expected signature.
func VerifySignature(payload, sig, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	expected := Sign(payload, secret)
	if len(sig) != len(expected) {
		return false
	}
	return hmac.Equal(sig, expected)
}
