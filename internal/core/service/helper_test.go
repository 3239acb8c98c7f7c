package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/internal/storage/memory"
	"github.com/yndnr/minisocial-go/internal/testutil/fakeapi"
)

const (
	testUser     = "alice"
	testPassword = "wonderland"
)

type harness struct {
	api     *fakeapi.Server
	engine  *memory.Store
	store   *storage.TokenStore
	session *SessionManager
}

func newHarness(t *testing.T, opts ...SessionOption) *harness {
	t.Helper()
	api := fakeapi.New(t)
	engine := memory.New()
	store := storage.NewTokenStore(engine)
	client := connection.NewHTTPClient(api.URL, connection.Options{Timeout: 5 * time.Second})

	return &harness{
		api:     api,
		engine:  engine,
		store:   store,
		session: NewSessionManager(client, store, opts...),
	}
}

// login registers the test user on the fake API and logs in.
func (h *harness) login(t *testing.T) domain.User {
	t.Helper()
	u := h.api.AddUser(testUser, testPassword)
	require.NoError(t, h.session.Login(context.Background(), domain.Credentials{
		Username: testUser,
		Password: testPassword,
	}))
	return u
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.APIError {
	t.Helper()
	require.Error(t, err)
	ae, ok := domain.AsAPIError(err)
	require.True(t, ok, "expected *domain.APIError, got %T: %v", err, err)
	require.Equal(t, kind, ae.Kind, "message: %s", ae.Message)
	return ae
}
