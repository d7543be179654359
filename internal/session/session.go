// Package session manages user sessions through two mutually exclusive
// strategies: an owned strategy whose token and user record come from this
// system's backend and are cached locally, and a delegated strategy whose
// session lives entirely in a third-party auth service.
package session

import "context"

// Credential is the transient sign-in/sign-up input. It is never persisted.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the user record attached to a session. Only email is interpreted;
// other fields pass through opaquely.
type User map[string]any

// Email returns the user's email, if present.
func (u User) Email() string {
	if v, ok := u["email"].(string); ok {
		return v
	}
	return ""
}

// Session is an authenticated session: an opaque token plus its user record.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Strategy is the session capability. Exactly one implementation is active
// per deployment, selected at configuration time.
type Strategy interface {
	SignIn(ctx context.Context, cred Credential) (Session, error)
	SignUp(ctx context.Context, cred Credential) (Session, error)
	SignOut(ctx context.Context) error
	Current(ctx context.Context) (Session, bool, error)
}

// AuthError is a sign-in/sign-up failure carrying the status to mirror and
// the message to surface. Upstream messages pass through verbatim.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
