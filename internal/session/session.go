// Package session issues and verifies signed user tokens for the lookup
// page, so the browser never chooses its own user ID.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token has expired")
)

// Signer issues tokens of the form base64(userID|expiry).base64(hmac).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is how long issued tokens stay valid.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for userID.
func (s *Signer) Issue(userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	expires := s.now().Add(s.ttl).Truncate(time.Second)
	payload := userID + "|" + strconv.FormatInt(expires.Unix(), 10)

	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(s.sign([]byte(payload)))
	return token, expires, nil
}

// Verify checks the signature and expiry and returns the user ID.
func (s *Signer) Verify(token string) (string, error) {
	encPayload, encSig, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return "", fmt.Errorf("%w: payload: %v", ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", fmt.Errorf("%w: signature: %v", ErrInvalidToken, err)
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return "", ErrInvalidToken
	}

	// The user ID may itself contain '|', so split on the last one.
	i := strings.LastIndexByte(string(payload), '|')
	if i <= 0 {
		return "", ErrInvalidToken
	}
	expires, err := strconv.ParseInt(string(payload[i+1:]), 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !s.now().Before(time.Unix(expires, 0)) {
		return "", ErrExpiredToken
	}
	return string(payload[:i]), nil
}

func (s *Signer) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}
