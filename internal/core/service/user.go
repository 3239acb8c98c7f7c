package service

import (
	"context"
	"net/http"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// UserService is the users resource. Registration lives on
// SessionManager.Signup since it needs no token.
type UserService struct {
	session *SessionManager
}

// NewUserService creates a UserService.
func NewUserService(session *SessionManager) *UserService {
	return &UserService{session: session}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, err
	}

	var env struct {
		Users []domain.User `json:"users"`
	}
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:      domain.OpListUsers,
		Method:  http.MethodGet,
		Path:    PathUsers,
		Query:   pageQuery(offset, limit),
		NoCache: true,
	}, &env); err != nil {
		return nil, err
	}
	return env.Users, nil
}

// Get fetches one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if err := domain.ValidateID("user", id); err != nil {
		return nil, err
	}

	var u domain.User
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpGetUser,
		Method: http.MethodGet,
		Path:   PathUsers + "/" + id,
	}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update changes the non-nil fields of a user.
func (s *UserService) Update(ctx context.Context, id string, in domain.UserUpdate) (*domain.User, error) {
	if err := domain.ValidateID("user", id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var u domain.User
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpUpdateUser,
		Method: http.MethodPut,
		Path:   PathUsers + "/" + id,
		Body:   in,
	}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID("user", id); err != nil {
		return err
	}
	return s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpDeleteUser,
		Method: http.MethodDelete,
		Path:   PathUsers + "/" + id,
	}, nil)
}
