package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject   = errors.New("token has no subject")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
)

// Principal is the identity carried by a bearer token.
type Principal struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// KeyVerifier checks RS256 signatures against a single static key.
type KeyVerifier struct {
	key *rsa.PublicKey
}

func NewKeyVerifier(publicKey string) (*KeyVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(toPEM(publicKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &KeyVerifier{key: key}, nil
}

func (v *KeyVerifier) Verify(_ context.Context, rawToken string) (*Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	return principalFromClaims(claims)
}

// OIDCVerifier validates tokens against the issuer's published key set.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create oidc provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID:          clientID,
			SkipClientIDCheck: clientID == "",
		}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	claims := map[string]interface{}{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return principalFromClaims(claims)
}

// UnverifiedDecoder only decodes claims. The signature is never checked, so
// any caller can mint a principal. Development use only.
type UnverifiedDecoder struct {
	parser *jwt.Parser
}

func NewUnverifiedDecoder() *UnverifiedDecoder {
	return &UnverifiedDecoder{parser: jwt.NewParser()}
}

func (d *UnverifiedDecoder) Verify(_ context.Context, rawToken string) (*Principal, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(rawToken, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return principalFromClaims(claims)
}

func principalFromClaims(claims map[string]interface{}) (*Principal, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSubject
	}

	p := &Principal{
		ID:       sub,
		Username: firstString(claims, "preferred_username", "username", "email"),
		Email:    firstString(claims, "email"),
		Roles:    []string{},
	}

	if realm, ok := claims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := realm["roles"].([]interface{}); ok {
			for _, r := range roles {
				if s, ok := r.(string); ok {
					p.Roles = append(p.Roles, s)
				}
			}
		}
	}
	return p, nil
}

func firstString(claims map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// toPEM accepts the bare base64 key body Keycloak shows in its realm settings.
func toPEM(key string) string {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "-----BEGIN") {
		return key
	}
	var b strings.Builder
	b.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for len(key) > 64 {
		b.WriteString(key[:64])
		b.WriteByte('\n')
		key = key[64:]
	}
	b.WriteString(key)
	b.WriteString("\n-----END PUBLIC KEY-----\n")
	return b.String()
}
