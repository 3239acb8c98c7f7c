package domain

// Post is the public projection of a post. LikesCount and CommentsCount are
// computed by the server and never derived locally.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	OwnerID       string    `json:"owner_id"`
	CreatedAt     Timestamp `json:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at,omitzero" table:"wide"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Comments      []Comment `json:"comments,omitempty" table:"-"`
	LikedBy       []User    `json:"liked_by,omitempty" table:"-"`
}

// PostCreate is the create-post payload.
type PostCreate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate checks the payload against the API's field limits.
func (p PostCreate) Validate() error {
	if err := checkRequired("title", p.Title); err != nil {
		return err
	}
	if err := checkMaxLength("title", p.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := checkRequired("content", p.Content); err != nil {
		return err
	}
	return checkMaxLength("content", p.Content, MaxPostContentLength)
}

// PostUpdate is a partial post update. Nil fields are left unchanged.
type PostUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Validate checks the payload against the API's field limits.
func (p PostUpdate) Validate() error {
	if p.Title == nil && p.Content == nil {
		return NewLocalValidationError("post", "nothing to update")
	}
	if p.Title != nil {
		if err := checkMaxLength("title", *p.Title, MaxTitleLength); err != nil {
			return err
		}
	}
	if p.Content != nil {
		return checkMaxLength("content", *p.Content, MaxPostContentLength)
	}
	return nil
}

// Comment is the public projection of a comment.
type Comment struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	OwnerID    string    `json:"owner_id"`
	PostID     string    `json:"post_id"`
	CreatedAt  Timestamp `json:"created_at"`
	LastEdited Timestamp `json:"last_edited,omitzero" table:"wide"`
}

// CommentCreate is the create/update comment payload.
type CommentCreate struct {
	Content string `json:"content"`
}

// Validate checks the payload against the API's field limits.
func (c CommentCreate) Validate() error {
	if err := checkRequired("content", c.Content); err != nil {
		return err
	}
	return checkMaxLength("content", c.Content, MaxCommentContentLength)
}
