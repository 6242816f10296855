package token

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ketabplus/frontend/domain"
)

// Claims is the subset of access-token claims the storefront reads to
// hydrate role data without an extra identity round trip.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	Roles     []string
	ExpiresAt time.Time
}

// Decode extracts claims without verifying the signature. The token was
// already accepted by the identity service; the client only mirrors the
// payload the server vouched for.
func Decode(raw string) (*Claims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed access token", err)
	}
	return fromMapClaims(claims), nil
}

// Verify parses and validates the token against the shared HMAC secret.
func Verify(raw, secret string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.NewError(domain.ErrCodeInvalid, "unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.WrapError(domain.ErrCodeUnauthenticated, "invalid access token", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unexpected claims format")
	}
	return fromMapClaims(claims), nil
}

func fromMapClaims(claims jwt.MapClaims) *Claims {
	out := &Claims{}
	if v, ok := claims["user_id"].(string); ok {
		out.UserID = v
	} else if v, ok := claims["sub"].(string); ok {
		out.UserID = v
	}
	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if v, ok := claims["name"].(string); ok {
		out.Name = v
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out.Roles = append(out.Roles, s)
			}
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out
}
