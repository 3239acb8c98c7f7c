// Package form implements the login and signup forms: local validation,
// one submission through the session manager, and the next screen.
package form

import (
	"context"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// Route names the screen to show after a submission.
type Route string

const (
	// RouteStay keeps the user on the form with its fields intact.
	RouteStay   Route = ""
	RouteHome   Route = "home"
	RouteLogin  Route = "login"
	RouteSignup Route = "signup"
)

// Authenticator is the part of the session manager the forms use.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) error
	Signup(ctx context.Context, reg domain.UserRegister) (*domain.User, error)
}

// Result is the outcome of a submission. Err carries the message to show
// verbatim; Next is RouteStay whenever Err is set.
type Result struct {
	Err  *domain.APIError
	Next Route
	User *domain.User
}

// OK reports whether the submission succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// LoginForm collects credentials.
type LoginForm struct {
	Username string
	Password string
}

// Validate checks the fields without contacting the server.
func (f *LoginForm) Validate() *domain.APIError {
	return asAPIError(f.credentials().Validate())
}

// Submit validates and logs in. On success the session is persisted by
// the authenticator and the user goes home.
func (f *LoginForm) Submit(ctx context.Context, auth Authenticator) Result {
	if err := f.Validate(); err != nil {
		return Result{Err: err}
	}
	if err := auth.Login(ctx, f.credentials()); err != nil {
		return Result{Err: asAPIError(err)}
	}
	return Result{Next: RouteHome}
}

func (f *LoginForm) credentials() domain.Credentials {
	return domain.Credentials{Username: f.Username, Password: f.Password}
}

// SignupForm collects a new account.
type SignupForm struct {
	Username string
	Password string
	Confirm  string
	FullName string
}

// Validate checks the confirmation first, then the required fields.
func (f *SignupForm) Validate() *domain.APIError {
	if f.Password != f.Confirm {
		return domain.NewLocalValidationError("confirm", domain.MsgPasswordMismatch)
	}
	return asAPIError(f.registration().Validate())
}

// Submit validates and creates the account. A new account still has to
// log in.
func (f *SignupForm) Submit(ctx context.Context, auth Authenticator) Result {
	if err := f.Validate(); err != nil {
		return Result{Err: err}
	}
	user, err := auth.Signup(ctx, f.registration())
	if err != nil {
		return Result{Err: asAPIError(err)}
	}
	return Result{Next: RouteLogin, User: user}
}

func (f *SignupForm) registration() domain.UserRegister {
	return domain.UserRegister{
		Username: f.Username,
		Password: f.Password,
		FullName: f.FullName,
	}
}

// asAPIError keeps classified errors and wraps anything else as Unknown.
func asAPIError(err error) *domain.APIError {
	if err == nil {
		return nil
	}
	if ae, ok := domain.AsAPIError(err); ok {
		return ae
	}
	return domain.ErrUnknown.WithCause(err)
}
