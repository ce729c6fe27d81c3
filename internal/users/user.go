// Package users is the system of record for user accounts and the cached
// read path in front of it.
package users

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("users: not found")
	ErrInvalid  = errors.New("users: invalid input")
)

type User struct {
	ID        uint64
	Name      string
	Email     string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input carries the writable fields of a user. Nil pointers are left
// unchanged on update.
type Input struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Enabled *bool   `json:"enabled"`
}

// ValidateCreate requires name and email.
func (in Input) ValidateCreate() error {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return errors.Join(ErrInvalid, errors.New("name is required"))
	}
	if in.Email == nil {
		return errors.Join(ErrInvalid, errors.New("email is required"))
	}
	return in.Validate()
}

// Validate checks only the fields that are set.
func (in Input) Validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return errors.Join(ErrInvalid, errors.New("name must not be empty"))
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return errors.Join(ErrInvalid, errors.New("email is malformed"))
	}
	return nil
}

// apply copies set fields onto u.
func (in Input) apply(u *User) {
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.Enabled != nil {
		u.Enabled = *in.Enabled
	}
}

// newUser builds a record from a create input; Enabled defaults to true.
func newUser(in Input, now time.Time) User {
	u := User{Enabled: true, CreatedAt: now, UpdatedAt: now}
	in.apply(&u)
	return u
}
