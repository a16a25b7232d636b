package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// Password returns the CardDAV password of user from the OS keyring. When
// the keyring has no entry, or is unavailable on a headless host, fallback
// is returned instead.
func Password(user, fallback string) string {
	if user == "" {
		return fallback
	}

	pass, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyComponent, config.CompConfig,
			config.LogKeyUser, user,
			config.LogKeyError, err,
		)
		return fallback
	}
	return pass
}

// StorePassword saves the CardDAV password of user in the OS keyring so that
// it no longer needs to live in the environment.
func StorePassword(user, pass string) error {
	if user == "" {
		return errors.New(config.ErrKeyringUser)
	}
	if err := keyring.Set(config.KeyringService, user, pass); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringStore, err)
	}
	return nil
}
