package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Operation names the user action a request belongs to. It selects the
// context-specific message of a classified failure.
type Operation string

const (
	OpLogin         Operation = "Login"
	OpSignup        Operation = "Signup"
	OpCreatePost    Operation = "Create Post"
	OpListPosts     Operation = "List Posts"
	OpGetPost       Operation = "Get Post"
	OpUpdatePost    Operation = "Update Post"
	OpDeletePost    Operation = "Delete Post"
	OpCreateComment Operation = "Create Comment"
	OpListComments  Operation = "List Comments"
	OpGetComment    Operation = "Get Comment"
	OpUpdateComment Operation = "Update Comment"
	OpDeleteComment Operation = "Delete Comment"
	OpListUsers     Operation = "List Users"
	OpGetUser       Operation = "Get User"
	OpUpdateUser    Operation = "Update User"
	OpDeleteUser    Operation = "Delete User"
	OpHealth        Operation = "Health Check"
)

// ResponseInfo describes a response that reached the client.
type ResponseInfo struct {
	Status     int
	OK         bool
	StatusText string
	Body       []byte
}

// Classify maps a received response to an APIError. It returns nil when
// the response is a success. Classify has no side effects.
func Classify(op Operation, resp ResponseInfo) *APIError {
	if resp.OK {
		return nil
	}

	detail := ExtractDetail(resp.Body, resp.StatusText)

	var e *APIError
	switch {
	case resp.Status == http.StatusUnauthorized:
		e = ErrUnauthorized
		if op == OpLogin {
			e = e.withMessage(MsgBadCredentials)
		}
	case resp.Status == http.StatusConflict:
		if op == OpSignup {
			e = ErrConflict.withMessage(MsgUsernameTaken)
		} else {
			e = ErrConflict.withMessage(failedMessage(op, detail))
		}
	case resp.Status == http.StatusUnprocessableEntity:
		e = ErrValidation
	case resp.Status == http.StatusNotFound:
		e = ErrNotFound.withMessage(failedMessage(op, detail))
	case resp.Status >= 400 && resp.Status <= 599:
		e = ErrServer.withMessage(failedMessage(op, detail))
	default:
		e = ErrUnknown.withMessage(detail)
	}
	return e.WithDetail(detail).WithStatus(resp.Status).WithOp(op)
}

// ClassifyTransport maps a failure where no response reached the client.
func ClassifyTransport(op Operation, err error) *APIError {
	return ErrNetwork.WithOp(op).WithCause(err)
}

// ClassifyDecode maps a success response whose body could not be understood.
func ClassifyDecode(op Operation, status int, err error) *APIError {
	return ErrUnknown.WithStatus(status).WithOp(op).WithCause(err)
}

func failedMessage(op Operation, detail string) string {
	if op == "" {
		return fmt.Sprintf("Request failed: %s", detail)
	}
	return fmt.Sprintf("%s failed: %s", op, detail)
}

// ExtractDetail returns the "detail" member of a JSON error body. String
// details are returned verbatim; request-validation lists are flattened to
// "loc: msg" pairs. Without a usable detail the status text is returned.
func ExtractDetail(body []byte, statusText string) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &envelope) != nil {
		return statusText
	}
	raw := bytes.TrimSpace(envelope.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return statusText
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			loc := make([]string, 0, len(it.Loc))
			for _, l := range it.Loc {
				loc = append(loc, fmt.Sprint(l))
			}
			if len(loc) == 0 {
				parts = append(parts, it.Msg)
				continue
			}
			parts = append(parts, strings.Join(loc, ".")+": "+it.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(raw)
}
