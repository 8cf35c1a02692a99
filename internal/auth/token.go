package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCandidate Role = "candidate"
)

var (
	ErrInvalidToken = errors.New("could not validate credentials")
	ErrWrongRole    = errors.New("token role not permitted")
)

// Principal is the verified identity carried by a bearer token.
type Principal struct {
	SubjectID   string
	Role        Role
	Email       string
	InterviewID string
}

type claims struct {
	Email       string `json:"email,omitempty"`
	Type        Role   `json:"type"`
	InterviewID string `json:"interview_id,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(p Principal) (string, error) {
	if p.SubjectID == "" {
		return "", errors.New("token subject must not be empty")
	}
	now := i.now()
	c := claims{
		Email:       p.Email,
		Type:        p.Role,
		InterviewID: p.InterviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and checks it was issued for role.
func (i *Issuer) Verify(token string, role Role) (Principal, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	if c.Type != role {
		return Principal{}, ErrWrongRole
	}
	return Principal{SubjectID: c.Subject, Role: c.Type, Email: c.Email, InterviewID: c.InterviewID}, nil
}
