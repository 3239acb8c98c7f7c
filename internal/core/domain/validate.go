package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Field limits enforced by the API.
const (
	MaxUsernameLength       = 20
	MinPasswordLength       = 8
	MaxPasswordLength       = 40
	MaxFullNameLength       = 40
	MaxTitleLength          = 40
	MaxPostContentLength    = 255
	MaxCommentContentLength = 255

	// MaxPageLimit is the largest page the list endpoints return.
	MaxPageLimit     = 100
	DefaultPageLimit = 100
)

func checkMaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return NewLocalValidationError(field, fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return nil
}

func checkRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewLocalValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return nil
}

// ValidateID checks that id is a UUID, as every resource identifier is.
func ValidateID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewLocalValidationError("id", fmt.Sprintf("invalid %s id %q", kind, id)).WithCause(err)
	}
	return nil
}

// ValidatePage checks list pagination arguments.
func ValidatePage(offset, limit int) error {
	if offset < 0 {
		return NewLocalValidationError("offset", "offset must not be negative")
	}
	if limit < 1 || limit > MaxPageLimit {
		return NewLocalValidationError("limit", fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	return nil
}
