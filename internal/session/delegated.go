package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Delegated is the session strategy whose session lives in a third-party
// auth service. Credential exchange is an OAuth2 password grant; nothing is
// persisted locally, and session presence is queried from the service.
type Delegated struct {
	Config      *oauth2.Config
	SignupURL   string
	UserinfoURL string
	HTTPClient  *http.Client // optional override, used for tests

	mu    sync.Mutex
	token *oauth2.Token
}

// NewDelegated constructs a Delegated strategy against the auth service's
// token, signup, and userinfo endpoints.
func NewDelegated(clientID, clientSecret, tokenURL, signupURL, userinfoURL string) *Delegated {
	return &Delegated{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		SignupURL:   signupURL,
		UserinfoURL: userinfoURL,
	}
}

// SignIn exchanges the credential verbatim with the auth service. No local
// format validation: the service is the validator, and its error message is
// surfaced as-is.
func (s *Delegated) SignIn(ctx context.Context, cred Credential) (Session, error) {
	tok, err := s.Config.PasswordCredentialsToken(s.oauthContext(ctx), cred.Email, cred.Password)
	if err != nil {
		return Session{}, delegatedAuthError(err)
	}

	info, err := s.userinfo(ctx, tok)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	return Session{Token: tok.AccessToken, User: info}, nil
}

// SignUp registers with the auth service, then signs in.
func (s *Delegated) SignUp(ctx context.Context, cred Credential) (Session, error) {
	payload, err := json.Marshal(cred)
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.SignupURL, bytes.NewReader(payload))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("call auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return Session{}, &AuthError{Status: resp.StatusCode, Message: authServiceMessage(raw, resp.StatusCode)}
	}

	return s.SignIn(ctx, cred)
}

// SignOut drops the held token. The service-side session, if any, is the
// service's to manage.
func (s *Delegated) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return nil
}

// Current queries the auth service for session presence. Nothing is
// reconstructed from local state beyond the held token.
func (s *Delegated) Current(ctx context.Context) (Session, bool, error) {
	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()
	if tok == nil {
		return Session{}, false, nil
	}

	info, err := s.userinfo(ctx, tok)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Status == http.StatusUnauthorized {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	return Session{Token: tok.AccessToken, User: info}, true, nil
}

func (s *Delegated) userinfo(ctx context.Context, tok *oauth2.Token) (User, error) {
	client := oauth2.NewClient(s.oauthContext(ctx), oauth2.StaticTokenSource(tok))
	resp, err := client.Get(s.UserinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{Status: resp.StatusCode, Message: authServiceMessage(raw, resp.StatusCode)}
	}

	var info User
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user profile: %w", err)
	}
	return info, nil
}

func (s *Delegated) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s *Delegated) oauthContext(ctx context.Context) context.Context {
	if s.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, s.HTTPClient)
	}
	return ctx
}

// delegatedAuthError maps an oauth2 token-exchange failure to an AuthError,
// keeping the service's own description when it sent one.
func delegatedAuthError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		msg := strings.TrimSpace(rErr.ErrorDescription)
		if msg == "" {
			msg = authServiceMessage(rErr.Body, statusOf(rErr))
		}
		return &AuthError{Status: statusOf(rErr), Message: msg}
	}
	return fmt.Errorf("call auth service: %w", err)
}

func statusOf(rErr *oauth2.RetrieveError) int {
	if rErr.Response != nil {
		return rErr.Response.StatusCode
	}
	return http.StatusUnauthorized
}

func authServiceMessage(raw []byte, status int) string {
	var payload struct {
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		case payload.Error != "":
			return payload.Error
		}
	}
	return http.StatusText(status)
}

var _ Strategy = (*Delegated)(nil)
