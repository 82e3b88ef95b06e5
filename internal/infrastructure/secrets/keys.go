package secrets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyLen = 32

// MinSecretLen is the shortest master secret Derive accepts.
const MinSecretLen = 32

var ErrWeakSecret = errors.New("secrets: master secret too short")

// Keys are the independent keys derived from the session secret.
type Keys struct {
	CookieHash  []byte // HMAC key for the session cookie
	CookieBlock []byte // AES-256 key for the session cookie
	State       []byte // HS256 key for the OAuth state parameter
}

// Derive expands one master secret into purpose-bound keys with HKDF-SHA256.
func Derive(secret string) (Keys, error) {
	if len(secret) < MinSecretLen {
		return Keys{}, ErrWeakSecret
	}
	var (
		k   Keys
		err error
	)
	if k.CookieHash, err = expand(secret, "cookie-hash"); err != nil {
		return Keys{}, err
	}
	if k.CookieBlock, err = expand(secret, "cookie-block"); err != nil {
		return Keys{}, err
	}
	if k.State, err = expand(secret, "oauth-state"); err != nil {
		return Keys{}, err
	}
	return k, nil
}

func expand(secret, purpose string) ([]byte, error) {
	key := make([]byte, keyLen)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("my-user-gateway/"+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
