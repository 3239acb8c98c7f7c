package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// PostService is the posts resource.
type PostService struct {
	session *SessionManager
}

// NewPostService creates a PostService.
func NewPostService(session *SessionManager) *PostService {
	return &PostService{session: session}
}

// Create publishes a post.
func (s *PostService) Create(ctx context.Context, title, content string) (*domain.Post, error) {
	in := domain.PostCreate{Title: title, Content: content}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var post domain.Post
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpCreatePost,
		Method: http.MethodPost,
		Path:   PathPosts,
		Body:   in,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns a page of posts. It always asks for a fresh response: like
// and comment counts change under other clients.
func (s *PostService) List(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	if err := domain.ValidatePage(offset, limit); err != nil {
		return nil, err
	}

	var page postPage
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:      domain.OpListPosts,
		Method:  http.MethodGet,
		Path:    PathPosts,
		Query:   pageQuery(offset, limit),
		NoCache: true,
	}, &page); err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// Get fetches one post with its comments.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if err := domain.ValidateID("post", id); err != nil {
		return nil, err
	}

	var post domain.Post
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpGetPost,
		Method: http.MethodGet,
		Path:   PathPosts + "/" + id,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update changes the non-nil fields of a post.
func (s *PostService) Update(ctx context.Context, id string, in domain.PostUpdate) (*domain.Post, error) {
	if err := domain.ValidateID("post", id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var post domain.Post
	if err := s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpUpdatePost,
		Method: http.MethodPut,
		Path:   PathPosts + "/" + id,
		Body:   in,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID("post", id); err != nil {
		return err
	}
	return s.session.AuthorizedRequest(ctx, Call{
		Op:     domain.OpDeletePost,
		Method: http.MethodDelete,
		Path:   PathPosts + "/" + id,
	}, nil)
}

// postPage accepts both a bare array and the {"posts": [...]} envelope.
type postPage struct {
	Posts []domain.Post
}

func (p *postPage) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Posts)
	}
	var env struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	p.Posts = env.Posts
	return nil
}

func pageQuery(offset, limit int) url.Values {
	return url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
}
