package safety

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	id "supportops/pkg/domain"
)

// TokenSigner derives audit tokens: HMAC-SHA256 over the audit record id,
// keyed with the configured secret. The token proves a specific record was
// granted by the process holding the secret; it carries no other payload.
type TokenSigner struct {
	secret []byte
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// TokenFor computes the token for an audit id. Deterministic: the same
// (id, secret) pair always yields the same token.
func (s *TokenSigner) TokenFor(auditID id.AuditID) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(auditID.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether token is the digest this signer would produce for
// auditID. Constant-time comparison.
func (s *TokenSigner) Verify(auditID id.AuditID, token string) bool {
	return hmac.Equal([]byte(s.TokenFor(auditID)), []byte(token))
}
