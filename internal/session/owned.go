package session

import (
	"context"
	"net/http"

	"skincare-gateway/internal/forward"
)

// Owned is the session strategy whose session material is issued by this
// system's own backend. Credential exchange goes through the forwarding
// layer; the resulting token and user record are cached in the local store
// as one logical unit.
type Owned struct {
	Exchange *forward.Forwarder
	Store    Store
}

// SignIn exchanges credentials through the forwarding layer and persists
// the session pair on success.
func (s *Owned) SignIn(ctx context.Context, cred Credential) (Session, error) {
	resp := s.Exchange.Login(ctx, forward.Credentials{Email: cred.Email, Password: cred.Password})
	return s.establish(ctx, resp)
}

// SignUp registers through the forwarding layer and persists the session
// pair on success.
func (s *Owned) SignUp(ctx context.Context, cred Credential) (Session, error) {
	resp := s.Exchange.Signup(ctx, forward.Credentials{Email: cred.Email, Password: cred.Password})
	return s.establish(ctx, resp)
}

// SignOut removes both halves of the session pair. Safe to call when no
// session exists.
func (s *Owned) SignOut(ctx context.Context) error {
	return s.Store.Clear(ctx)
}

// Current reads the cached pair. A partial pair reads as no session.
func (s *Owned) Current(ctx context.Context) (Session, bool, error) {
	return s.Store.Load(ctx)
}

func (s *Owned) establish(ctx context.Context, resp forward.Response) (Session, error) {
	if !resp.OK() {
		return Session{}, &AuthError{Status: resp.Status, Message: resp.Message()}
	}

	token, _ := resp.Data["token"].(string)
	userRaw, _ := resp.Data["user"].(map[string]any)
	if token == "" || userRaw == nil {
		return Session{}, &AuthError{
			Status:  http.StatusBadGateway,
			Message: "credential service returned an incomplete session",
		}
	}

	sess := Session{Token: token, User: User(userRaw)}
	if err := s.Store.Save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

var _ Strategy = (*Owned)(nil)
