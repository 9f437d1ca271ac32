package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/exam-portal/portal-client/internal/api"
	"github.com/exam-portal/portal-client/internal/apitest"
	"github.com/exam-portal/portal-client/internal/auth"
	"github.com/exam-portal/portal-client/internal/model"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestDecodeToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"id":    float64(7),
		"email": "student@example.com",
		"role":  model.RoleStudent,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := auth.DecodeToken(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("userID = %d, want 7", claims.UserID)
	}
	if claims.Email != "student@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != model.RoleStudent {
		t.Errorf("role = %q", claims.Role)
	}
}

func TestDecodeTokenToleratesBearerPrefix(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"id": float64(3)})

	claims, err := auth.DecodeToken("Bearer " + token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.UserID != 3 {
		t.Errorf("userID = %d, want 3", claims.UserID)
	}
}

func TestDecodeTokenMissingIdentity(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "nobody@example.com"})

	if _, err := auth.DecodeToken(token); !errors.Is(err, auth.ErrNoUserID) {
		t.Fatalf("err = %v, want ErrNoUserID", err)
	}
}

func TestDecodeTokenGarbage(t *testing.T) {
	if _, err := auth.DecodeToken("not.a.token"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.toml")
	p := &auth.Profile{
		Token:  "tok-abc",
		UserID: 7,
		Email:  "student@example.com",
		Name:   "student",
		Role:   model.RoleStudent,
	}

	if err := auth.SaveProfile(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("profile mode = %o, want 600", perm)
		}
	}

	got, err := auth.LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *p {
		t.Errorf("loaded %+v, want %+v", got, p)
	}

	user := got.User()
	if user.ID != 7 || user.Role != model.RoleStudent {
		t.Errorf("user = %+v", user)
	}
}

func TestLoadProfileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if _, err := auth.LoadProfile(path); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestDeleteProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := auth.SaveProfile(path, &auth.Profile{Token: "tok"}); err != nil {
		t.Fatal(err)
	}

	if err := auth.DeleteProfile(path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := auth.LoadProfile(path); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("err after delete = %v, want ErrNotLoggedIn", err)
	}
	// Deleting again must not fail.
	if err := auth.DeleteProfile(path); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestLoginPersistsProfileAndArmsClient(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	userID := srv.AddUser("student@example.com", "secret123", model.RoleStudent)
	srv.AddExam(model.Exam{ID: 1, Title: "Any", QuestionIDs: []int64{1}})

	profilePath := filepath.Join(t.TempDir(), "profile.toml")
	client := api.New(srv.URL(), 0, zerolog.Nop())

	p, err := auth.Login(context.Background(), client, profilePath, "student@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.UserID != userID {
		t.Errorf("userID = %d, want %d", p.UserID, userID)
	}
	if p.Role != model.RoleStudent {
		t.Errorf("role = %q", p.Role)
	}
	if p.Name != "student" {
		t.Errorf("name = %q, want the email local part", p.Name)
	}

	// The profile must reload between invocations.
	reloaded, err := auth.LoadProfile(profilePath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Token == "" || reloaded.UserID != userID {
		t.Errorf("reloaded = %+v", reloaded)
	}

	// The client is left authenticated.
	if _, err := client.ListExams(context.Background()); err != nil {
		t.Fatalf("authed call after login: %v", err)
	}
}

func TestLoginRejectsInvalidInputLocally(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	client := api.New(srv.URL(), 0, zerolog.Nop())
	profilePath := filepath.Join(t.TempDir(), "profile.toml")

	if _, err := auth.Login(context.Background(), client, profilePath, "not-an-email", "secret123"); err == nil {
		t.Fatal("expected validation failure for a malformed email")
	}
	if _, err := auth.Login(context.Background(), client, profilePath, "student@example.com", "short"); err == nil {
		t.Fatal("expected validation failure for a short password")
	}

	// No profile may be written on failure.
	if _, err := auth.LoadProfile(profilePath); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Fatalf("profile exists after failed login: %v", err)
	}
}
