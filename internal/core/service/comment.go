package service

import (
	"context"
	"net/http"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// CommentService is the comments resource. Comments are listed and
// created under their post, and addressed directly otherwise.
type CommentService struct {
	session *SessionManager
}

// NewCommentService creates a CommentService.
func NewCommentService(session *SessionManager) *CommentService {
	return &CommentService{session: session}
}

// List returns a page of comments on a post.
func (s *CommentService) List(ctx context.Context, postID string, offset, limit int) ([]domain.Comment, error) {
	if err := domain.ValidateID("post", postID); err != nil {
		return nil, err
	}
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, err
	}

	var comments []domain.Comment
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:      domain.OpListComments,
		Method:  http.MethodGet,
		Path:    commentsOf(postID),
		Query:   pageQuery(offset, limit),
		NoCache: true,
	}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Create adds a comment to a post.
func (s *CommentService) Create(ctx context.Context, postID, content string) (*domain.Comment, error) {
	if err := domain.ValidateID("post", postID); err != nil {
		return nil, err
	}
	in := domain.CommentCreate{Content: content}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c domain.Comment
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpCreateComment,
		Method: http.MethodPost,
		Path:   commentsOf(postID),
		Body:   in,
	}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get fetches one comment.
func (s *CommentService) Get(ctx context.Context, id string) (*domain.Comment, error) {
	if err := domain.ValidateID("comment", id); err != nil {
		return nil, err
	}

	var c domain.Comment
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpGetComment,
		Method: http.MethodGet,
		Path:   PathComments + "/" + id,
	}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update replaces a comment's content. Only the author may do this; the
// server answers 403 otherwise.
func (s *CommentService) Update(ctx context.Context, id, content string) (*domain.Comment, error) {
	if err := domain.ValidateID("comment", id); err != nil {
		return nil, err
	}
	in := domain.CommentCreate{Content: content}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var c domain.Comment
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpUpdateComment,
		Method: http.MethodPut,
		Path:   PathComments + "/" + id,
		Body:   in,
	}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID("comment", id); err != nil {
		return err
	}
	return s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpDeleteComment,
		Method: http.MethodDelete,
		Path:   PathComments + "/" + id,
	}, nil)
}

func commentsOf(postID string) string {
	return PathPosts + "/" + postID + "/comment"
}
