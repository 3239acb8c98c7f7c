package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

var signingKey = []byte("fakeapi-signing-key")

// Recorded is a request as the server saw it.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Form   url.Values
	Body   []byte
}

type canned struct {
	status int
	body   string
}

type account struct {
	user     domain.User
	password string
}

// Server is a fake API bound to a local httptest server.
type Server struct {
	*httptest.Server

	// EnvelopeLists makes GET /posts answer {"posts": [...]} instead of
	// a bare array.
	EnvelopeLists bool

	requests atomic.Int64

	mu       sync.Mutex
	recorded []Recorded
	canned   map[string]canned
	delay    map[string]time.Duration
	accounts map[string]*account // by username
	tokens   map[string]string   // access token -> username
	posts    map[string]*domain.Post
	comments map[string]*domain.Comment
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		canned:   map[string]canned{},
		delay:    map[string]time.Duration{},
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		posts:    map[string]*domain.Post{},
		comments: map[string]*domain.Comment{},
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Last returns the most recent request. ok is false if none arrived.
func (s *Server) Last() (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recorded) == 0 {
		return Recorded{}, false
	}
	return s.recorded[len(s.recorded)-1], true
}

// Respond makes method+path return status and body verbatim, bypassing
// the normal handler.
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[method+" "+path] = canned{status: status, body: body}
}

// Delay holds responses for method+path for d, or until the client goes away.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay[method+" "+path] = d
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, "")
}

// Token issues an access token for an existing user.
func (s *Server) Token(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(username)
}

// Revoke invalidates every token, as a server restart or expiry would.
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// PostCount returns the number of stored posts.
func (s *Server) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/", s.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/token", s.token).Methods(http.MethodPost)
	r.HandleFunc("/users", s.createUser).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", s.getUser).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}", s.updateUser).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id}", s.deleteUser).Methods(http.MethodDelete)
	authed.HandleFunc("/posts", s.createPost).Methods(http.MethodPost)
	authed.HandleFunc("/posts", s.listPosts).Methods(http.MethodGet)
	authed.HandleFunc("/posts/{id}", s.getPost).Methods(http.MethodGet)
	authed.HandleFunc("/posts/{id}", s.updatePost).Methods(http.MethodPut)
	authed.HandleFunc("/posts/{id}", s.deletePost).Methods(http.MethodDelete)
	authed.HandleFunc("/posts/{id}/comment", s.createComment).Methods(http.MethodPost)
	authed.HandleFunc("/posts/{id}/comment", s.listComments).Methods(http.MethodGet)
	authed.HandleFunc("/comments/{id}", s.getComment).Methods(http.MethodGet)
	authed.HandleFunc("/comments/{id}", s.updateComment).Methods(http.MethodPut)
	authed.HandleFunc("/comments/{id}", s.deleteComment).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// record counts and captures every request, then serves canned responses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)

		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		rec := Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			rec.Form, _ = url.ParseQuery(string(body))
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.recorded = append(s.recorded, rec)
		c, hasCanned := s.canned[key]
		d := s.delay[key]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if hasCanned {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(c.status)
			io.WriteString(w, c.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		username, known := s.tokens[raw]
		s.mu.Unlock()
		if !ok || !known {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		r.Header.Set("X-Fake-User", username)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, field := range []string{"username", "password"} {
		if r.PostForm.Get(field) == "" {
			writeValidation(w, []string{"body", field}, "Field required")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[r.PostForm.Get("username")]
	if !ok || acct.password != r.PostForm.Get("password") {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  s.issueLocked(acct.user.Username),
		"refresh_token": uuid.NewString(),
		"token_type":    "bearer",
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserRegister
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Username == "" || in.Password == "" {
		writeValidation(w, []string{"body", "username"}, "Field required")
		return
	}
	if loc, msg, ok := registerLimits(in); !ok {
		writeValidation(w, []string{"body", loc}, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[in.Username]; exists {
		writeDetail(w, http.StatusConflict, "User already exist")
		return
	}
	writeJSON(w, http.StatusOK, s.addUserLocked(in.Username, in.Password, in.FullName))
}

// registerLimits applies the field limits of the user schema.
func registerLimits(in domain.UserRegister) (loc, msg string, ok bool) {
	switch n := utf8.RuneCountInString(in.Password); {
	case utf8.RuneCountInString(in.Username) > domain.MaxUsernameLength:
		return "username", "String should have at most 20 characters", false
	case n < domain.MinPasswordLength:
		return "password", "String should have at least 8 characters", false
	case n > domain.MaxPasswordLength:
		return "password", "String should have at most 40 characters", false
	case utf8.RuneCountInString(in.FullName) > domain.MaxFullNameLength:
		return "full_name", "String should have at most 40 characters", false
	}
	return "", "", true
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := page(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, map[string][]domain.User{"users": window(users, offset, limit)})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByIDLocked(mux.Vars(r)["id"])
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByIDLocked(mux.Vars(r)["id"])
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if in.Username != nil && *in.Username != acct.user.Username {
		if _, taken := s.accounts[*in.Username]; taken {
			writeDetail(w, http.StatusConflict, "User already exist")
			return
		}
		delete(s.accounts, acct.user.Username)
		acct.user.Username = *in.Username
		s.accounts[acct.user.Username] = acct
	}
	if in.FullName != nil {
		acct.user.FullName = *in.FullName
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accountByIDLocked(mux.Vars(r)["id"])
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	delete(s.accounts, acct.user.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"Ok": true})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var in domain.PostCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" {
		writeValidation(w, []string{"body", "title"}, "Field required")
		return
	}
	if len([]rune(in.Title)) > domain.MaxTitleLength {
		writeValidation(w, []string{"body", "title"}, "String should have at most 40 characters")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.accounts[r.Header.Get("X-Fake-User")]
	p := &domain.Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: domain.Timestamp{Time: time.Now().UTC()},
	}
	if owner != nil {
		p.OwnerID = owner.user.ID
	}
	s.posts[p.ID] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := page(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	posts := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p)
	}
	s.mu.Unlock()
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.Before(posts[j].CreatedAt.Time) })

	posts = window(posts, offset, limit)
	if s.EnvelopeLists {
		writeJSON(w, http.StatusOK, map[string][]domain.Post{"posts": posts})
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[mux.Vars(r)["id"]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var in domain.PostUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[mux.Vars(r)["id"]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post does not exist")
		return
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	p.UpdatedAt = domain.Timestamp{Time: time.Now().UTC()}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["id"]
	if _, ok := s.posts[id]; !ok {
		writeDetail(w, http.StatusNotFound, "Post does not exist")
		return
	}
	delete(s.posts, id)
	writeJSON(w, http.StatusOK, map[string]bool{"Ok": true})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var in domain.CommentCreate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[mux.Vars(r)["id"]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	c := &domain.Comment{
		ID:        uuid.NewString(),
		Content:   in.Content,
		PostID:    p.ID,
		CreatedAt: domain.Timestamp{Time: time.Now().UTC()},
	}
	if owner := s.accounts[r.Header.Get("X-Fake-User")]; owner != nil {
		c.OwnerID = owner.user.ID
	}
	s.comments[c.ID] = c
	p.CommentsCount++
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := page(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	postID := mux.Vars(r)["id"]
	if _, exists := s.posts[postID]; !exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	var out []domain.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt.Time) })
	writeJSON(w, http.StatusOK, window(out, offset, limit))
}

func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[mux.Vars(r)["id"]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	var in domain.CommentCreate
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[mux.Vars(r)["id"]]
	if !ok {
		writeDetail(w, http.StatusNotFound, "comment not found")
		return
	}
	if owner := s.accounts[r.Header.Get("X-Fake-User")]; owner == nil || owner.user.ID != c.OwnerID {
		writeDetail(w, http.StatusForbidden, "cannot change comment with a different user")
		return
	}
	c.Content = in.Content
	c.LastEdited = domain.Timestamp{Time: time.Now().UTC()}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["id"]
	c, ok := s.comments[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "comment not found")
		return
	}
	if owner := s.accounts[r.Header.Get("X-Fake-User")]; owner == nil || owner.user.ID != c.OwnerID {
		writeDetail(w, http.StatusForbidden, "cannot delete comment with a different user")
		return
	}
	delete(s.comments, id)
	if p, ok := s.posts[c.PostID]; ok && p.CommentsCount > 0 {
		p.CommentsCount--
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) addUserLocked(username, password, fullName string) domain.User {
	u := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		FullName:  fullName,
		IsActive:  true,
		CreatedAt: domain.Timestamp{Time: time.Now().UTC()},
	}
	s.accounts[username] = &account{user: u, password: password}
	return u
}

func (s *Server) accountByIDLocked(id string) *account {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) issueLocked(username string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	s.tokens[signed] = username
	return signed
}

func page(w http.ResponseWriter, r *http.Request) (offset, limit int, ok bool) {
	offset, limit = 0, domain.DefaultPageLimit
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	if limit > domain.MaxPageLimit {
		writeValidation(w, []string{"query", "limit"}, "Input should be less than or equal to 100")
		return 0, 0, false
	}
	return offset, limit, true
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, []string{"body"}, "JSON decode error")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, loc []string, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": loc, "msg": msg, "type": "value_error"}},
	})
}
