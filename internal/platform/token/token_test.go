package token_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
)

const testSecret = "test-secret"

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// ---------- Signer ----------

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte("payload bytes")
	sig := token.Sign(payload, []byte(testSecret))

	if !token.VerifySignature(payload, sig, []byte(testSecret)) {
		t.Fatal("signature should verify with same payload and secret")
	}
	if token.VerifySignature([]byte("other payload"), sig, []byte(testSecret)) {
		t.Fatal("signature should not verify for a different payload")
	}
	if token.VerifySignature(payload, sig, []byte("other-secret")) {
		t.Fatal("signature should not verify with a different secret")
	}
}

func TestVerifySignatureFailsClosed(t *testing.T) {
	payload := []byte("payload")
	sig := token.Sign(payload, []byte(testSecret))

	if token.VerifySignature(payload, sig, nil) {
		t.Fatal("empty secret must never verify")
	}
	if token.VerifySignature(payload, sig[:len(sig)-1], []byte(testSecret)) {
		t.Fatal("truncated signature must not verify")
	}
	if token.VerifySignature(payload, nil, []byte(testSecret)) {
		t.Fatal("missing signature must not verify")
	}
}

// ---------- Session tokens ----------

func TestSessionIssueVerify(t *testing.T) {
	svc, err := token.NewSessionService(testSecret, 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, role := range []domain.Role{domain.RoleReception, domain.RoleRestaurant, domain.RoleValidator} {
		tok, err := svc.Issue(role, baseTime)
		if err != nil {
			t.Fatalf("issue %s: %v", role, err)
		}

		claims, err := svc.Verify(tok, baseTime)
		if err != nil {
			t.Fatalf("verify %s: %v", role, err)
		}
		if claims.Role != role {
			t.Fatalf("got role %q, want %q", claims.Role, role)
		}
	}
}

func TestSessionRejectsUnknownRoleAtIssue(t *testing.T) {
	svc, _ := token.NewSessionService(testSecret, 0)
	if _, err := svc.Issue(domain.Role("GERENTE"), baseTime); err == nil {
		t.Fatal("expected error for role outside the closed set")
	}
}

func TestSessionExpiryBoundaryIsExclusive(t *testing.T) {
	svc, _ := token.NewSessionService(testSecret, time.Hour)
	tok, err := svc.Issue(domain.RoleValidator, baseTime)
	if err != nil {
		t.Fatal(err)
	}

	// One millisecond before expiry: still valid.
	if _, err := svc.Verify(tok, baseTime.Add(time.Hour-time.Millisecond)); err != nil {
		t.Fatalf("token should be valid just before expiry: %v", err)
	}

	// At exactly expiresAt: now >= exp rejects.
	if _, err := svc.Verify(tok, baseTime.Add(time.Hour)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken at exact expiry", err)
	}
}

func TestSessionMissingSecret(t *testing.T) {
	if _, err := token.NewSessionService("", 0); !errors.Is(err, domain.ErrMissingSecret) {
		t.Fatalf("got %v, want ErrMissingSecret", err)
	}
}

func TestSessionRejectsMalformedTokens(t *testing.T) {
	svc, _ := token.NewSessionService(testSecret, 0)
	valid, _ := svc.Issue(domain.RoleReception, baseTime)

	cases := []string{
		"",
		"no-separator",
		"a.b.c",
		"." + strings.SplitN(valid, ".", 2)[1],
		strings.SplitN(valid, ".", 2)[0] + ".",
		valid + ".extra",
		"!!!." + strings.SplitN(valid, ".", 2)[1],
	}
	for _, tok := range cases {
		if _, err := svc.Verify(tok, baseTime); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestSessionTamperedBytesInvalid(t *testing.T) {
	svc, _ := token.NewSessionService(testSecret, 0)
	tok, _ := svc.Issue(domain.RoleReception, baseTime)

	// Flip each byte in turn; no variant may verify.
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		mutated := []byte(tok)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == tok {
			continue
		}
		if _, err := svc.Verify(string(mutated), baseTime); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("mutation at byte %d verified: %v", i, err)
		}
	}
}

// ---------- QR tokens ----------

func TestQrIssueVerify(t *testing.T) {
	svc, err := token.NewQrService(testSecret, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := svc.Issue("guest-42", baseTime)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := svc.Verify(tok, baseTime.Add(5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if claims.GuestID != "guest-42" {
		t.Fatalf("got guest id %q, want guest-42", claims.GuestID)
	}
	if claims.IssuedAt != baseTime.UnixMilli() {
		t.Fatalf("got issuedAt %d, want %d", claims.IssuedAt, baseTime.UnixMilli())
	}
}

func TestQrIssueTrimsAndRejectsEmptyGuestID(t *testing.T) {
	svc, _ := token.NewQrService(testSecret, 0, 0)

	tok, err := svc.Issue("  guest-7  ", baseTime)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.Verify(tok, baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if claims.GuestID != "guest-7" {
		t.Fatalf("got %q, want trimmed guest-7", claims.GuestID)
	}

	for _, id := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Issue(id, baseTime); !errors.Is(err, token.ErrEmptyGuestID) {
			t.Errorf("Issue(%q) = %v, want ErrEmptyGuestID", id, err)
		}
	}
}

func TestQrExpiredIsDistinctFromInvalid(t *testing.T) {
	svc, _ := token.NewQrService(testSecret, 30*time.Minute, 0)
	tok, _ := svc.Issue("guest-1", baseTime)

	// At exactly TTL the token is still accepted.
	if _, err := svc.Verify(tok, baseTime.Add(30*time.Minute)); err != nil {
		t.Fatalf("token at exact TTL should verify: %v", err)
	}

	// One millisecond past TTL it expires, and expiry is not Invalid.
	_, err := svc.Verify(tok, baseTime.Add(30*time.Minute+time.Millisecond))
	if !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
	if errors.Is(err, domain.ErrInvalidToken) {
		t.Fatal("expired must not also match ErrInvalidToken")
	}
}

func TestQrFutureSkewBound(t *testing.T) {
	svc, _ := token.NewQrService(testSecret, 0, 10*time.Second)
	tok, _ := svc.Issue("guest-1", baseTime)

	// Verifier clock 10s behind issuance: inside the skew budget.
	if _, err := svc.Verify(tok, baseTime.Add(-10*time.Second)); err != nil {
		t.Fatalf("token inside skew budget should verify: %v", err)
	}

	// Beyond the budget the token is invalid, not pending.
	if _, err := svc.Verify(tok, baseTime.Add(-10*time.Second-time.Millisecond)); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken for future-dated token", err)
	}
}

func TestQrRoundTripManyGuestIDs(t *testing.T) {
	svc, _ := token.NewQrService(testSecret, 0, 0)

	ids := []string{
		"42", "guest-é-ü", "房间509", "João da Silva",
		"id.with.dots", "id/with/slashes", "a",
	}
	for i := 0; i < 1000; i++ {
		ids = append(ids, fmt.Sprintf("guest-%d-ü", i))
	}

	for _, id := range ids {
		tok, err := svc.Issue(id, baseTime)
		if err != nil {
			t.Fatalf("issue %q: %v", id, err)
		}
		claims, err := svc.Verify(tok, baseTime)
		if err != nil {
			t.Fatalf("verify %q: %v", id, err)
		}
		if claims.GuestID != strings.TrimSpace(id) {
			t.Fatalf("round trip of %q gave %q", id, claims.GuestID)
		}
	}
}

func TestQrTamperedSignatureInvalid(t *testing.T) {
	svc, _ := token.NewQrService(testSecret, 0, 0)
	tok, _ := svc.Issue("guest-1", baseTime)

	payloadPart, sigPart, _ := strings.Cut(tok, ".")

	// Swap the signature with one from a different guest's token.
	other, _ := svc.Issue("guest-2", baseTime)
	_, otherSig, _ := strings.Cut(other, ".")

	if _, err := svc.Verify(payloadPart+"."+otherSig, baseTime); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken for swapped signature", err)
	}
	if _, err := svc.Verify("x"+payloadPart+"."+sigPart, baseTime); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken for altered payload", err)
	}
}
