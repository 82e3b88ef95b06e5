package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/mern-eats/my-user-gateway/internal/core/domain"
	"github.com/mern-eats/my-user-gateway/internal/core/ports"
)

// Config holds the Auth0 application settings.
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Audience     string
}

// Authenticator runs the authorization-code flow with PKCE against Auth0 and
// verifies the returned ID token.
type Authenticator struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	baseURL  string
	audience string
}

var _ ports.IdentityProvider = (*Authenticator)(nil)

// NewAuthenticator discovers the tenant's OIDC configuration.
func NewAuthenticator(ctx context.Context, cfg Config) (*Authenticator, error) {
	provider, err := oidc.NewProvider(ctx, IssuerURL(cfg.Domain))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	return newAuthenticator(cfg, endpoint, provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})), nil
}

func newAuthenticator(cfg Config, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier) *Authenticator {
	return &Authenticator{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess},
		},
		verifier: verifier,
		baseURL:  strings.TrimRight(IssuerURL(cfg.Domain), "/"),
		audience: cfg.Audience,
	}
}

// IssuerURL turns an Auth0 domain into its issuer URL. A domain that already
// carries a scheme is used as is.
func IssuerURL(domainName string) string {
	if strings.HasPrefix(domainName, "http://") || strings.HasPrefix(domainName, "https://") {
		return strings.TrimRight(domainName, "/") + "/"
	}
	return "https://" + strings.TrimRight(domainName, "/") + "/"
}

// LoginURL returns the authorize URL for state, with the S256 challenge of
// verifier and the API audience.
func (a *Authenticator) LoginURL(state, verifier string) string {
	return a.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("audience", a.audience),
	)
}

type idClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades code for tokens and returns the verified identity.
func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (domain.Identity, domain.TokenSet, error) {
	tok, err := a.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.Identity{}, domain.TokenSet{}, fmt.Errorf("exchange code: %w", err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return domain.Identity{}, domain.TokenSet{}, errors.New("exchange code: no id_token in token response")
	}

	idt, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return domain.Identity{}, domain.TokenSet{}, fmt.Errorf("verify id token: %w", err)
	}

	var claims idClaims
	if err := idt.Claims(&claims); err != nil {
		return domain.Identity{}, domain.TokenSet{}, fmt.Errorf("decode id token claims: %w", err)
	}

	identity := domain.Identity{Subject: idt.Subject, Email: claims.Email, Name: claims.Name}
	return identity, fromOAuth(tok), nil
}

// LogoutURL ends the Auth0 session and returns the browser to returnTo.
func (a *Authenticator) LogoutURL(returnTo string) string {
	q := url.Values{
		"client_id": {a.oauth.ClientID},
		"returnTo":  {returnTo},
	}
	return a.baseURL + "/v2/logout?" + q.Encode()
}

// OAuthConfig exposes the client configuration for silent token refresh.
func (a *Authenticator) OAuthConfig() *oauth2.Config {
	return &a.oauth
}

func fromOAuth(tok *oauth2.Token) domain.TokenSet {
	return domain.TokenSet{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

func toOAuth(ts domain.TokenSet) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  ts.AccessToken,
		TokenType:    ts.TokenType,
		RefreshToken: ts.RefreshToken,
		Expiry:       ts.Expiry,
	}
}
