package domain

// User is the public projection of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
	Posts     []Post    `json:"posts,omitempty" table:"-"`
}

// UserRegister is the signup payload.
type UserRegister struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Validate checks that the required fields are present. Length rules are
// the server's and come back as a 422.
func (u UserRegister) Validate() error {
	if err := checkRequired("username", u.Username); err != nil {
		return err
	}
	if u.Password == "" {
		return NewLocalValidationError("password", "password is required")
	}
	return nil
}

// UserUpdate is a partial account update. Nil fields are left unchanged.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// Validate checks the payload against the API's field limits.
func (u UserUpdate) Validate() error {
	if u.Username == nil && u.FullName == nil {
		return NewLocalValidationError("user", "nothing to update")
	}
	if u.Username != nil {
		if err := checkRequired("username", *u.Username); err != nil {
			return err
		}
		if err := checkMaxLength("username", *u.Username, MaxUsernameLength); err != nil {
			return err
		}
	}
	if u.FullName != nil {
		return checkMaxLength("full_name", *u.FullName, MaxFullNameLength)
	}
	return nil
}
