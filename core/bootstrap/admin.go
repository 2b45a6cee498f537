package bootstrap

import (
	"context"
	"strings"

	"incidesk/config"
	"incidesk/core/auth"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

// EnsureDefaultAdmin creates the configured admin account if it does
// not exist yet. With no password configured a random one is generated
// and printed once at startup.
func EnsureDefaultAdmin(ctx context.Context, users store.UsersStore, cfg *config.AppConfig, logger *utils.Logger) error {
	username := strings.ToLower(strings.TrimSpace(cfg.Admin.Username))
	if username == "" {
		username = "admin"
	}
	existing, err := users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	password := cfg.Admin.Password
	if password == "" {
		password, err = utils.RandString(16)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Printf("generated admin password for %q: %s", username, password)
		}
	}
	ph := auth.MustHashPassword(password, cfg.Pepper)
	now := utils.NowUTC()
	admin := &store.User{
		Username:     username,
		Email:        cfg.Admin.Email,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		Role:         rbac.RoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := users.Create(ctx, admin); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("default admin %q created", username)
	}
	return nil
}
