package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
)

// API paths.
const (
	PathToken    = "/auth/token"
	PathUsers    = "/users"
	PathPosts    = "/posts"
	PathComments = "/comments"
	PathHealth   = "/"
)

// TokenStore is the persistence the session manager needs. It is
// implemented by storage.TokenStore.
type TokenStore interface {
	Save(pair domain.TokenPair) error
	Load() (domain.TokenPair, bool)
	Clear() error
	IsAuthenticated() bool
}

// Executor performs one HTTP round trip. It is implemented by
// connection.HTTPClient.
type Executor interface {
	Do(ctx context.Context, r connection.Request) (*connection.Response, error)
}

// Call describes an authorized API request.
type Call struct {
	Op      domain.Operation
	Method  string
	Path    string
	Query   url.Values
	Body    any
	NoCache bool
}

// SessionManager orchestrates the authentication lifecycle.
type SessionManager struct {
	exec    Executor
	store   TokenStore
	logger  logger.Logger
	metrics *metric.Registry

	logoutOnUnauthorized bool
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithLogoutOnUnauthorized clears the stored tokens when an authorized
// request is rejected with 401. Off by default: the session stays
// Authenticated until the user logs out.
func WithLogoutOnUnauthorized(enabled bool) SessionOption {
	return func(m *SessionManager) {
		m.logoutOnUnauthorized = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) SessionOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records classified failures.
func WithMetrics(r *metric.Registry) SessionOption {
	return func(m *SessionManager) {
		m.metrics = r
	}
}

// NewSessionManager creates a session manager.
func NewSessionManager(exec Executor, store TokenStore, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		exec:   exec,
		store:  store,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State derives the session state from the token store. Only the access
// token counts; AuthorizedRequest still needs the full pair.
func (m *SessionManager) State() domain.SessionState {
	return domain.StateOf(m.store.IsAuthenticated())
}

// Tokens returns the stored pair, for display.
func (m *SessionManager) Tokens() (domain.TokenPair, bool) {
	return m.store.Load()
}

// Login exchanges credentials for a token pair and stores it. The store is
// written only after the response has been classified as a success and
// decoded into a pair with an access token. Login never retries.
func (m *SessionManager) Login(ctx context.Context, creds domain.Credentials) error {
	const op = domain.OpLogin
	if err := creds.Validate(); err != nil {
		return err
	}

	m.logger.Debug("login", "credentials", creds)

	var pair domain.TokenPair
	resp, err := m.execute(ctx, op, connection.Request{
		Method: http.MethodPost,
		Path:   PathToken,
		Form:   creds.FormValues(),
	}, &pair)
	if err != nil {
		return err
	}
	if !pair.Valid() {
		return m.fail(op, domain.ClassifyDecode(op, resp.Status, errors.New("response has no access_token")))
	}

	if err := m.store.Save(pair); err != nil {
		m.logger.Error("could not persist session", "error", err)
		return m.fail(op, domain.NewAPIError(domain.KindUnknown, "Could not save session").
			WithOp(op).WithCause(err))
	}
	m.logger.Info("logged in", "username", creds.Username)
	return nil
}

// Signup registers an account. It does not log in.
func (m *SessionManager) Signup(ctx context.Context, reg domain.UserRegister) (*domain.User, error) {
	const op = domain.OpSignup
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	var user domain.User
	if _, err := m.execute(ctx, op, connection.Request{
		Method: http.MethodPost,
		Path:   PathUsers,
		JSON:   reg,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout clears the stored tokens. A storage failure is logged, not
// returned.
func (m *SessionManager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error("could not clear session", "error", err)
		return
	}
	m.logger.Info("logged out")
}

// AuthorizedRequest sends call with the stored access token and decodes a
// successful response into out (which may be nil). Without a stored token
// it returns an Unauthorized error and makes no request.
func (m *SessionManager) AuthorizedRequest(ctx context.Context, call Call, out any) error {
	pair, ok := m.store.Load()
	if !ok || !pair.Valid() {
		return m.fail(call.Op, domain.ErrUnauthorized.WithOp(call.Op))
	}

	_, err := m.execute(ctx, call.Op, connection.Request{
		Method:  call.Method,
		Path:    call.Path,
		Query:   call.Query,
		JSON:    call.Body,
		Token:   &oauth2.Token{AccessToken: pair.AccessToken, TokenType: "Bearer"},
		NoCache: call.NoCache,
	}, out)

	if m.logoutOnUnauthorized && domain.IsKind(err, domain.KindUnauthorized) {
		m.logger.Warn("token rejected, clearing session", "operation", string(call.Op))
		m.Logout()
	}
	return err
}

// execute runs one request through the executor and the classifier.
func (m *SessionManager) execute(ctx context.Context, op domain.Operation, req connection.Request, out any) (*connection.Response, error) {
	resp, err := m.exec.Do(ctx, req)
	if errors.Is(err, connection.ErrBodyTooLarge) {
		return resp, m.fail(op, domain.NewAPIError(domain.KindUnknown, domain.MsgResponseTooLarge).
			WithStatus(resp.Status).WithOp(op).WithCause(err))
	}
	if err != nil {
		if !connection.IsTransportError(err) {
			return nil, m.fail(op, domain.NewAPIError(domain.KindUnknown, "Could not build request").
				WithOp(op).WithCause(err))
		}
		return nil, m.fail(op, domain.ClassifyTransport(op, err))
	}

	if apiErr := domain.Classify(op, resp.Info()); apiErr != nil {
		return resp, m.fail(op, apiErr)
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp, m.fail(op, domain.ClassifyDecode(op, resp.Status, err))
		}
	}
	return resp, nil
}

func (m *SessionManager) fail(op domain.Operation, e *domain.APIError) error {
	m.metrics.ObserveFailure(string(op), e.Kind.String())
	m.logger.Debug("operation failed",
		"operation", string(op),
		"kind", e.Kind.String(),
		"status", e.Status,
		"detail", e.Detail,
		"error", e.Cause,
	)
	return e
}
