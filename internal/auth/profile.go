package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/exam-portal/portal-client/internal/model"
)

// ErrNotLoggedIn means no credential profile exists on disk.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// Profile is the persisted login state: the bearer token plus the user
// identity decoded from it at login time.
type Profile struct {
	Token  string `toml:"token"`
	UserID int64  `toml:"user_id"`
	Email  string `toml:"email"`
	Name   string `toml:"name"`
	Role   string `toml:"role"`
}

// User reconstructs the model user from the profile.
func (p *Profile) User() model.User {
	return model.User{ID: p.UserID, Email: p.Email, Name: p.Name, Role: p.Role}
}

// SaveProfile writes the profile to path, creating parent directories.
// The file is user-only since it holds the bearer token.
func SaveProfile(path string, p *Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return nil
}

// LoadProfile reads the profile at path. Returns ErrNotLoggedIn when
// the file is missing or holds no token.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &p, nil
}

// DeleteProfile removes the profile. Missing files are not an error.
func DeleteProfile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
