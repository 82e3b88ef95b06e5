package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
)

// DefaultReturnTo is where the callback sends the browser when the login
// request carried no return path.
const DefaultReturnTo = "/auth-callback"

const defaultStateTTL = 10 * time.Minute

// StateCodec signs the OAuth state parameter. The state binds the callback
// to the browser's nonce and carries the path to resume after login.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewStateCodec(key []byte, ttl time.Duration) *StateCodec {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateCodec{key: key, ttl: ttl, now: time.Now}
}

type stateClaims struct {
	Nonce    string `json:"nonce"`
	ReturnTo string `json:"rt,omitempty"`
	jwt.RegisteredClaims
}

// Encode returns a signed state for nonce and returnTo.
func (c *StateCodec) Encode(nonce, returnTo string) (string, error) {
	now := c.now()
	claims := stateClaims{
		Nonce:    nonce,
		ReturnTo: SafeReturnTo(returnTo),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return s, nil
}

// Decode verifies state against the browser's nonce and returns the path to
// continue to, DefaultReturnTo when none was requested.
func (c *StateCodec) Decode(state, nonce string) (string, error) {
	if state == "" || nonce == "" {
		return "", domain.ErrInvalidState
	}

	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: expired", domain.ErrInvalidState)
		}
		return "", domain.ErrInvalidState
	}
	if claims.Nonce != nonce {
		return "", fmt.Errorf("%w: nonce mismatch", domain.ErrInvalidState)
	}

	if rt := SafeReturnTo(claims.ReturnTo); rt != "" {
		return rt, nil
	}
	return DefaultReturnTo, nil
}

// SafeReturnTo keeps only local absolute paths, so the callback can never
// redirect off-site. Anything else yields "".
func SafeReturnTo(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	if strings.ContainsAny(p, "\r\n") {
		return ""
	}
	return p
}
