package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/exam-portal/portal-client/internal/api"
	"github.com/exam-portal/portal-client/internal/model"
	"github.com/exam-portal/portal-client/internal/validator"
)

// Login performs the credential exchange, decodes the user identity out
// of the issued token, and persists the profile at profilePath. On
// success the client is left carrying the new token.
func Login(ctx context.Context, client *api.Client, profilePath, email, password string) (*Profile, error) {
	req := model.LoginRequest{Email: email, Password: password}
	if fields := validator.Struct(req); fields != nil {
		return nil, fmt.Errorf("invalid credentials: %v", fields)
	}

	res, err := client.Login(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login: no token in response")
	}

	claims, err := DecodeToken(res.Token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	claimEmail := claims.Email
	if claimEmail == "" {
		claimEmail = email
	}

	p := &Profile{
		Token:  strings.TrimPrefix(res.Token, "Bearer "),
		UserID: claims.UserID,
		Email:  claimEmail,
		Name:   displayName(claimEmail),
		Role:   res.Role,
	}
	if p.Role == "" {
		p.Role = claims.Role
	}

	if err := SaveProfile(profilePath, p); err != nil {
		return nil, err
	}

	client.SetToken(p.Token)
	return p, nil
}

// displayName derives a short name from the email local part, matching
// how the portal labels users that never set a name.
func displayName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
