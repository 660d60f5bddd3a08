package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTResolver extracts the caller identity from an Authorization bearer
// token issued by the dashboard's auth provider. Tokens are HS256-signed;
// the subject claim carries the identity.
//
// A missing, malformed or expired token resolves to anonymous rather than
// failing the request: authentication here only selects the tier, it never
// gates access by itself.
type JWTResolver struct {
	secret []byte
	issuer string // optional; enforced when non-empty
}

func NewJWTResolver(secret []byte, issuer string) *JWTResolver {
	return &JWTResolver{secret: secret, issuer: issuer}
}

func (j *JWTResolver) Resolve(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	raw, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.Subject
}
