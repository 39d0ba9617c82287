package database

import (
	"fmt"
	"strings"

	"smokedash/internal/models"

	"github.com/sirupsen/logrus"
)

// UserInput is a new account request. Password is plaintext here and is
// hashed before anything is stored.
type UserInput struct {
	Username    string
	Password    string
	Role        models.Role
	FullName    string
	Phone       string
	Permissions []string
}

// UserPatch edits profile and access; passwords go through UpdatePassword.
type UserPatch struct {
	FullName    *string
	Phone       *string
	Role        *models.Role
	Permissions *[]string
}

func findUser(users []models.User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

func validatePermissions(pages []string) error {
	for _, p := range pages {
		if !models.KnownPage(p) {
			return validationf("unknown page %q", p)
		}
	}
	return nil
}

// ListUsers returns users without credential fields.
func (db *DB) ListUsers(useCache bool) []models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return publicUsers(readDoc[[]models.User](db, docUsers, useCache))
}

func (db *DB) GetUser(username string) (*models.User, error) {
	users := db.ListUsers(true)
	if i := findUser(users, username); i >= 0 {
		return &users[i], nil
	}
	return nil, notFoundf("user %s", username)
}

// Authenticate checks a username/password pair. Records still carrying a
// legacy plaintext password are upgraded to a hash on success.
func (db *DB) Authenticate(username, password string) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	users := readDoc[[]models.User](db, docUsers, false)
	i := findUser(users, strings.TrimSpace(username))
	if i < 0 {
		return nil, ErrInvalidCredentials
	}
	u := users[i]

	switch {
	case u.PasswordHash != "":
		if !db.hasher.Verify(u.PasswordHash, password) {
			return nil, ErrInvalidCredentials
		}
	case u.Password != "" && u.Password == password:
		hash, err := db.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		users[i].PasswordHash = hash
		users[i].Password = ""
		if err := writeList(db, docUsers, users); err != nil {
			db.log.WithFields(logrus.Fields{"username": u.Username, "error": err}).Warn("legacy password not upgraded")
		}
	default:
		return nil, ErrInvalidCredentials
	}

	public := users[i].Public()
	return &public, nil
}

// AddUser creates an account; an existing username is an error, never an overwrite.
func (db *DB) AddUser(in UserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, validationf("username is required")
	}
	if in.Password == "" {
		return nil, validationf("password is required")
	}
	if in.Role == "" {
		in.Role = models.RoleCashier
	}
	if !in.Role.Valid() {
		return nil, validationf("unknown role %q", in.Role)
	}
	if err := validatePermissions(in.Permissions); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	users := readDoc[[]models.User](db, docUsers, false)
	if findUser(users, username) >= 0 {
		return nil, fmt.Errorf("%w: user %s", ErrDuplicate, username)
	}
	hash, err := db.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         in.Role,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Permissions:  in.Permissions,
	}
	users = append(users, u)
	if err := writeList(db, docUsers, users); err != nil {
		return nil, err
	}
	public := u.Public()
	return &public, nil
}

// UpdatePassword replaces the stored credential for username.
func (db *DB) UpdatePassword(username, newPassword string) error {
	if newPassword == "" {
		return validationf("password is required")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	users := readDoc[[]models.User](db, docUsers, false)
	i := findUser(users, username)
	if i < 0 {
		return notFoundf("user %s", username)
	}
	hash, err := db.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	users[i].PasswordHash = hash
	users[i].Password = ""
	return writeList(db, docUsers, users)
}

func (db *DB) UpdateUser(username string, patch UserPatch) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	users := readDoc[[]models.User](db, docUsers, false)
	i := findUser(users, username)
	if i < 0 {
		return nil, notFoundf("user %s", username)
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, validationf("unknown role %q", *patch.Role)
		}
		if users[i].Role == models.RoleAdmin && *patch.Role != models.RoleAdmin && countAdmins(users) == 1 {
			return nil, validationf("cannot demote the last admin")
		}
		users[i].Role = *patch.Role
	}
	if patch.Permissions != nil {
		if err := validatePermissions(*patch.Permissions); err != nil {
			return nil, err
		}
		users[i].Permissions = *patch.Permissions
	}
	if patch.FullName != nil {
		users[i].FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Phone != nil {
		users[i].Phone = strings.TrimSpace(*patch.Phone)
	}
	if err := writeList(db, docUsers, users); err != nil {
		return nil, err
	}
	public := users[i].Public()
	return &public, nil
}

// DeleteUser removes an account, keeping at least one admin.
func (db *DB) DeleteUser(username string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	users := readDoc[[]models.User](db, docUsers, false)
	i := findUser(users, username)
	if i < 0 {
		return notFoundf("user %s", username)
	}
	if users[i].Role == models.RoleAdmin && countAdmins(users) == 1 {
		return validationf("cannot delete the last admin")
	}
	users = append(users[:i], users[i+1:]...)
	return writeList(db, docUsers, users)
}

func countAdmins(users []models.User) int {
	n := 0
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}
