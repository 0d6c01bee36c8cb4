package sdk

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// Claims is the identity payload carried by a credential.
type Claims struct {
	Subject     int64
	Role        string
	FullName    string
	Email       string
	PhoneNumber string
	ExpiresAt   time.Time
	ID          string
}

// IsExpired reports whether the exp claim is in the past. Credentials
// without an exp claim never expire client-side.
func (c *Claims) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// Identity builds a session identity from the claims. The role is
// lower-cased and must be one of the known roles.
func (c *Claims) Identity() (*User, error) {
	role, err := ParseRole(c.Role)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:          c.Subject,
		FullName:    c.FullName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Role:        role,
	}, nil
}

// ClaimDecoder extracts claims from a credential without network access.
type ClaimDecoder interface {
	Decode(Credential) (*Claims, error)
}

// ClaimDecoderFunc adapts a function to ClaimDecoder.
type ClaimDecoderFunc func(Credential) (*Claims, error)

func (f ClaimDecoderFunc) Decode(token Credential) (*Claims, error) { return f(token) }

// JWTDecoder decodes the payload segment of a JWT. Signatures are not
// checked; the backend verifies them on every request.
type JWTDecoder struct{}

func (JWTDecoder) Decode(token Credential) (*Claims, error) {
	return DecodeClaims(token)
}

// rawClaims mirrors the payload emitted by the backend token service.
type rawClaims struct {
	Sub         *int64  `mapstructure:"sub"`
	ID          *int64  `mapstructure:"id"`
	Role        string  `mapstructure:"role"`
	FullName    string  `mapstructure:"full_name"`
	Email       string  `mapstructure:"email"`
	PhoneNumber string  `mapstructure:"phone_number"`
	Exp         float64 `mapstructure:"exp"`
	JTI         string  `mapstructure:"jti"`
}

// DecodeClaims parses token as an unverified JWT. Every failure wraps ErrDecode.
func DecodeClaims(token Credential) (*Claims, error) {
	raw := strings.TrimSpace(string(token))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrDecode)
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var rc rawClaims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := decoder.Decode(map[string]any(mapClaims)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// sub takes precedence; id is accepted for tokens minted by older backends
	subject := rc.Sub
	if subject == nil {
		subject = rc.ID
	}
	if subject == nil || *subject <= 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrDecode)
	}

	claims := &Claims{
		Subject:     *subject,
		Role:        strings.ToLower(rc.Role),
		FullName:    rc.FullName,
		Email:       rc.Email,
		PhoneNumber: rc.PhoneNumber,
		ID:          rc.JTI,
	}
	if rc.Exp > 0 {
		claims.ExpiresAt = time.Unix(int64(rc.Exp), 0)
	}
	return claims, nil
}
