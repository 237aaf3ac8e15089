// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"unicode"
)

// User is the signed-in user record.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// ErrInvalidUser is returned when a user record fails validation.
var ErrInvalidUser = errors.New("invalid user record")

// NewUser builds a user record. The avatar is the upper-cased first letter
// of the name.
func NewUser(name, email string) User {
	name = strings.TrimSpace(name)
	return User{
		ID:     NewID(),
		Name:   name,
		Email:  strings.TrimSpace(email),
		Avatar: avatarFor(name),
	}
}

// Validate checks the record read from storage or entered at login.
func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.Join(ErrInvalidUser, errors.New("name is required"))
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return errors.Join(ErrInvalidUser, errors.New("email must contain @"))
	}
	return nil
}

func avatarFor(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
