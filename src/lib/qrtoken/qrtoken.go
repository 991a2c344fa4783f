// Package qrtoken signs and verifies the tokens encoded in ticket QR codes.
//
// A token is base64(JSON payload) + "." + hex(HMAC-SHA256(base64 part)).
// Verification tries an ordered list of secrets: the current secret first,
// then rotated secrets, then an optional legacy secret kept only so tickets
// minted before the first rotation still scan.
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"
)

const DefaultMaxAge = 24 * time.Hour

var (
	ErrMalformed          = errors.New("qrtoken: malformed token")
	ErrSignatureMismatch  = errors.New("qrtoken: signature mismatch")
	ErrMalformedPayload   = errors.New("qrtoken: malformed payload")
	ErrExpired            = errors.New("qrtoken: token expired")
	ErrNoSecretConfigured = errors.New("qrtoken: no signing secret configured")
)

type Payload struct {
	RegistrationID uint   `json:"registration_id"`
	EventID        uint   `json:"event_id"`
	StudentEmail   string `json:"student_email"`
	IssuedAt       int64  `json:"issued_at"`
}

// wirePayload tells a missing field apart from a zero value.
type wirePayload struct {
	RegistrationID *uint  `json:"registration_id"`
	EventID        *uint  `json:"event_id"`
	StudentEmail   string `json:"student_email"`
	IssuedAt       *int64 `json:"issued_at"`
}

type Signer struct {
	secrets []string
	maxAge  time.Duration
	now     func() time.Time
}

type Option func(*Signer)

func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// NewSigner builds a Signer. secrets[0] signs new tokens and every entry is
// tried, in order, on verification. A non-positive maxAge means DefaultMaxAge.
func NewSigner(secrets []string, maxAge time.Duration, opts ...Option) (*Signer, error) {
	candidates := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoSecretConfigured
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	s := &Signer{secrets: candidates, maxAge: maxAge, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Signer) MaxAge() time.Duration {
	return s.maxAge
}

// Sign mints a token with the current secret. A zero IssuedAt is stamped
// with the signer's clock.
func (s *Signer) Sign(p Payload) (string, error) {
	if p.IssuedAt == 0 {
		p.IssuedAt = s.now().Unix()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded + "." + mac(s.secrets[0], encoded), nil
}

func (s *Signer) Verify(token string) (*Payload, error) {
	encoded, sig, ok := split(token)
	if !ok {
		return nil, ErrMalformed
	}
	matched := -1
	for i, secret := range s.secrets {
		if hmac.Equal([]byte(mac(secret, encoded)), []byte(sig)) {
			matched = i
			break
		}
	}
	if matched < 0 {
		return nil, ErrSignatureMismatch
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedPayload
	}
	var w wirePayload
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ErrMalformedPayload
	}
	if w.RegistrationID == nil || w.EventID == nil || w.IssuedAt == nil {
		return nil, ErrMalformedPayload
	}
	p := &Payload{
		RegistrationID: *w.RegistrationID,
		EventID:        *w.EventID,
		StudentEmail:   w.StudentEmail,
		IssuedAt:       *w.IssuedAt,
	}
	if matched > 0 {
		log.Printf("[qrtoken] registration %d verified with fallback secret #%d\n", p.RegistrationID, matched)
	}
	if s.now().Sub(time.Unix(p.IssuedAt, 0)) > s.maxAge {
		return p, ErrExpired
	}
	return p, nil
}

// WellFormed reports whether token has the two non-empty parts of a QR
// token. It does not check the signature.
func WellFormed(token string) bool {
	_, _, ok := split(token)
	return ok
}

func split(token string) (string, string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func mac(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
