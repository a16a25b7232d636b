package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the runtime configuration of the service, read from the
// environment.
type Settings struct {
	Port       string
	BindAddr   string
	SourceMode string
	LocalPath  string
	CardDAVURL string
	Username   string
	Password   string // Fallback when the OS keyring has no entry.

	Method           string
	Madhab           string
	HighLatitudeRule string
	Language         string
	Timezone         string

	RefreshInterval time.Duration
	Days            int
	Reminder        string // ISO8601 duration, e.g. "-PT10M". Empty disables alarms.

	RateLimit float64
	RateBurst int
}

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. A missing default file is not an error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: %w", ErrEnvFile, err)
	}

	slog.Debug(MsgEnvLoaded, LogKeyComponent, CompConfig, LogKeyFile, path)
	return nil
}

// LoadSettings reads Settings from the environment, applying defaults.
func LoadSettings() (Settings, error) {
	s := Settings{
		Port:             envOr(EnvPort, DefaultPort),
		BindAddr:         envOr(EnvBindAddr, LocalhostBindAddr),
		SourceMode:       envOr(EnvSourceMode, SourceModeLocal),
		LocalPath:        os.Getenv(EnvLocalPath),
		CardDAVURL:       os.Getenv(EnvCardDAVURL),
		Username:         os.Getenv(EnvUsername),
		Password:         os.Getenv(EnvPassword),
		Method:           envOr(EnvMethod, DefaultMethod),
		Madhab:           envOr(EnvMadhab, DefaultMadhab),
		HighLatitudeRule: os.Getenv(EnvHighLatRule),
		Language:         envOr(EnvLanguage, DefaultLanguage),
		Timezone:         os.Getenv(EnvDefaultTZ),
		Reminder:         os.Getenv(EnvReminder),
	}

	if err := ValidatePort(s.Port); err != nil {
		return Settings{}, err
	}

	minutes, err := envInt(EnvRefreshMin, DefaultRefreshMin)
	if err != nil {
		return Settings{}, err
	}
	if minutes < DisabledInterval {
		return Settings{}, fmt.Errorf("%s: %s=%d", ErrSettings, EnvRefreshMin, minutes)
	}
	s.RefreshInterval = time.Duration(minutes) * time.Minute

	if s.Days, err = envInt(EnvDays, DefaultDays); err != nil {
		return Settings{}, err
	}
	if s.Days < 1 || s.Days > MaxDays {
		return Settings{}, fmt.Errorf("%s: %s must be between 1 and %d", ErrSettings, EnvDays, MaxDays)
	}

	if s.RateBurst, err = envInt(EnvRateBurst, DefaultRateBurst); err != nil {
		return Settings{}, err
	}
	s.RateLimit = DefaultRateLimit
	if raw := os.Getenv(EnvRateLimit); raw != "" {
		if s.RateLimit, err = strconv.ParseFloat(raw, 64); err != nil || s.RateLimit <= 0 {
			return Settings{}, fmt.Errorf("%s: %s=%q", ErrSettings, EnvRateLimit, raw)
		}
	}

	switch s.SourceMode {
	case SourceModeLocal, SourceModeWeb:
	default:
		return Settings{}, fmt.Errorf("%s: %q", ErrModeUnsupport, s.SourceMode)
	}

	return s, nil
}

// ValidatePort checks that port is a usable TCP port number.
func ValidatePort(port string) error {
	if strings.TrimSpace(port) == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %s=%q: %w", ErrSettings, key, raw, err)
	}
	return n, nil
}
