package form

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/core/service"
	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/internal/storage/memory"
	"github.com/yndnr/minisocial-go/internal/testutil/fakeapi"
)

func newSession(t *testing.T) (*fakeapi.Server, *storage.TokenStore, *service.SessionManager) {
	t.Helper()
	api := fakeapi.New(t)
	store := storage.NewTokenStore(memory.New())
	client := connection.NewHTTPClient(api.URL, connection.Options{Timeout: 5 * time.Second})
	return api, store, service.NewSessionManager(client, store)
}

func TestSignupForm_MismatchNeverCallsServer(t *testing.T) {
	api, _, session := newSession(t)

	f := &SignupForm{Username: "bob", Password: "p1", Confirm: "p2"}
	before := *f
	res := f.Submit(context.Background(), session)

	require.False(t, res.OK())
	require.Equal(t, domain.MsgPasswordMismatch, res.Err.Message)
	require.Equal(t, domain.KindValidation, res.Err.Kind)
	require.Equal(t, RouteStay, res.Next)
	require.Equal(t, 0, api.Requests())
	require.Equal(t, before, *f)
}

func TestSignupForm_RequiredFields(t *testing.T) {
	api, _, session := newSession(t)

	f := &SignupForm{Username: "bob"}
	res := f.Submit(context.Background(), session)

	require.NotNil(t, res.Err)
	require.Equal(t, "password", res.Err.Detail)
	require.Equal(t, 0, api.Requests())
}

func TestSignupForm_ServerLimits(t *testing.T) {
	api, _, session := newSession(t)

	f := &SignupForm{Username: "bob", Password: "short", Confirm: "short"}
	res := f.Submit(context.Background(), session)

	require.NotNil(t, res.Err)
	require.Equal(t, domain.KindValidation, res.Err.Kind)
	require.Equal(t, "body.password: String should have at least 8 characters", res.Err.Detail)
	require.Equal(t, RouteStay, res.Next)
	require.Equal(t, 1, api.Requests())
}

func TestSignupForm_Success(t *testing.T) {
	api, store, session := newSession(t)

	f := &SignupForm{Username: "bob", Password: "builder123", Confirm: "builder123", FullName: "Bob B"}
	res := f.Submit(context.Background(), session)

	require.True(t, res.OK(), "err: %v", res.Err)
	require.Equal(t, RouteLogin, res.Next)
	require.NotNil(t, res.User)
	require.Equal(t, "bob", res.User.Username)
	require.Equal(t, 1, api.Requests())
	require.False(t, store.IsAuthenticated(), "signup must not log in")
}

func TestSignupForm_UsernameTaken(t *testing.T) {
	api, _, session := newSession(t)
	api.AddUser("bob", "builder123")

	f := &SignupForm{Username: "bob", Password: "builder123", Confirm: "builder123"}
	before := *f
	res := f.Submit(context.Background(), session)

	require.NotNil(t, res.Err)
	require.Equal(t, domain.KindConflict, res.Err.Kind)
	require.Equal(t, domain.MsgUsernameTaken, res.Err.Message)
	require.Equal(t, RouteStay, res.Next)
	require.Equal(t, before, *f)
}

func TestLoginForm_Success(t *testing.T) {
	api, store, session := newSession(t)
	api.AddUser("alice", "wonderland")

	f := &LoginForm{Username: "alice", Password: "wonderland"}
	res := f.Submit(context.Background(), session)

	require.True(t, res.OK(), "err: %v", res.Err)
	require.Equal(t, RouteHome, res.Next)
	require.Equal(t, domain.Authenticated, store.State())
}

func TestLoginForm_BadCredentials(t *testing.T) {
	api, store, session := newSession(t)
	api.AddUser("alice", "wonderland")

	f := &LoginForm{Username: "alice", Password: "wrong-password"}
	before := *f
	res := f.Submit(context.Background(), session)

	require.NotNil(t, res.Err)
	require.Equal(t, domain.MsgBadCredentials, res.Err.Message)
	require.Equal(t, RouteStay, res.Next)
	require.Equal(t, before, *f)
	require.Equal(t, domain.Anonymous, store.State())
}

func TestLoginForm_EmptyFieldsShortCircuit(t *testing.T) {
	api, _, session := newSession(t)

	res := (&LoginForm{Username: "  "}).Submit(context.Background(), session)

	require.NotNil(t, res.Err)
	require.Equal(t, domain.KindValidation, res.Err.Kind)
	require.Equal(t, 0, api.Requests())
}

type failingAuth struct{ err error }

func (a failingAuth) Login(context.Context, domain.Credentials) error { return a.err }

func (a failingAuth) Signup(context.Context, domain.UserRegister) (*domain.User, error) {
	return nil, a.err
}

func TestSubmit_WrapsUnclassifiedErrors(t *testing.T) {
	res := (&LoginForm{Username: "a", Password: "b"}).Submit(context.Background(), failingAuth{err: context.Canceled})

	require.NotNil(t, res.Err)
	require.Equal(t, domain.KindUnknown, res.Err.Kind)
	require.ErrorIs(t, res.Err, context.Canceled)
}
