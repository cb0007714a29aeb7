package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are the registered claims plus the token type.
type Claims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Signer issues and verifies RS256 tokens.
type Signer struct {
	private    *rsa.PrivateKey
	public     *rsa.PublicKey
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewSigner builds a Signer from a finalized Config.
func NewSigner(cfg *Config) (*Signer, error) {
	priv, pub, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	return &Signer{
		private:    priv,
		public:     pub,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenDuration(),
		refreshTTL: cfg.RefreshTokenDuration(),
		now:        time.Now,
	}, nil
}

func (s *Signer) TTL(typ TokenType) time.Duration {
	if typ == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Sign issues a token of typ for subject.
func (s *Signer) Sign(subject string, typ TokenType) (string, error) {
	now := s.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL(typ))),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.private)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return token, nil
}

// Verify checks signature, expiry, issuer and type and returns the subject,
// which must be a UUID.
func (s *Signer) Verify(raw string, typ TokenType) (string, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ErrInvalidToken.Wrap(err)
	}

	if claims.Type != typ {
		return "", ErrInvalidToken.Wrap(errors.New("unexpected token type " + string(claims.Type)))
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken.Wrap(fmt.Errorf("subject: %w", err))
	}
	return claims.Subject, nil
}
