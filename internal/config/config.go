package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	IdentityEphemeral = "ephemeral"
	IdentityStable    = "stable"

	LegacyStatusUnknown = "unknown"
	LegacyStatusRandom  = "random"

	ShapeModern = "modern"
	ShapeLegacy = "legacy"
)

// Config represents ~/.bcast/config.toml.
type Config struct {
	Directory Directory `toml:"directory"`
	Contacts  Contacts  `toml:"contacts"`
	Templates Templates `toml:"templates"`
	Broadcast Broadcast `toml:"broadcast"`
	Server    Server    `toml:"server"`
}

// Directory holds the remote directory service endpoints.
type Directory struct {
	BaseURL            string   `toml:"base_url"`
	ContactsPath       string   `toml:"contacts_path"`
	LegacyContactsPath string   `toml:"legacy_contacts_path"`
	AddContactPath     string   `toml:"add_contact_path"`
	SendPath           string   `toml:"send_path"`
	AddContactShape    string   `toml:"add_contact_shape"`
	RequestTimeout     Duration `toml:"request_timeout"`
}

// Contacts controls how directory records become contacts.
type Contacts struct {
	PageSize     int    `toml:"page_size"`
	Identity     string `toml:"identity"`
	LegacyStatus string `toml:"legacy_status"`
}

// Templates holds the link interpolated into built-in templates.
type Templates struct {
	Link string `toml:"link"`
}

// Broadcast controls the send gate.
type Broadcast struct {
	SendTimeout  Duration `toml:"send_timeout"`
	ConfirmDelay Duration `toml:"confirm_delay"`
}

// Server is the HTTP API listener.
type Server struct {
	Listen string `toml:"listen"`
}

// Duration is a time.Duration written as a Go duration string ("15s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Directory: Directory{
			BaseURL:            "https://broadcast-system-d7ca773e62c8.herokuapp.com",
			ContactsPath:       "/n/get/all",
			LegacyContactsPath: "/n/get/all/legacy",
			AddContactPath:     "/n/add",
			SendPath:           "/m/send/to/numbers",
			AddContactShape:    ShapeModern,
			RequestTimeout:     Duration{15 * time.Second},
		},
		Contacts: Contacts{
			PageSize:     10,
			Identity:     IdentityEphemeral,
			LegacyStatus: LegacyStatusUnknown,
		},
		Templates: Templates{
			Link: "https://t.me/tradetabofficial",
		},
		Broadcast: Broadcast{
			SendTimeout: Duration{30 * time.Second},
		},
		Server: Server{
			Listen: "127.0.0.1:8080",
		},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// ApplyEnv loads .env from the working directory (if any) and applies
// BCAST_* overrides.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	if v, ok := os.LookupEnv("BCAST_DIRECTORY_URL"); ok {
		c.Directory.BaseURL = v
	}
	if v, ok := os.LookupEnv("BCAST_LISTEN"); ok {
		c.Server.Listen = v
	}
	if v, ok := os.LookupEnv("BCAST_TEMPLATE_LINK"); ok {
		c.Templates.Link = v
	}
	if v, ok := os.LookupEnv("BCAST_CONTACT_IDENTITY"); ok {
		c.Contacts.Identity = v
	}
	if v, ok := os.LookupEnv("BCAST_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCAST_PAGE_SIZE: %w", err)
		}
		c.Contacts.PageSize = n
	}
	return nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory.base_url is required")
	}
	switch c.Directory.AddContactShape {
	case ShapeModern, ShapeLegacy:
	default:
		return fmt.Errorf("directory.add_contact_shape %q: want %q or %q", c.Directory.AddContactShape, ShapeModern, ShapeLegacy)
	}
	switch c.Contacts.Identity {
	case IdentityEphemeral, IdentityStable:
	default:
		return fmt.Errorf("contacts.identity %q: want %q or %q", c.Contacts.Identity, IdentityEphemeral, IdentityStable)
	}
	switch c.Contacts.LegacyStatus {
	case LegacyStatusUnknown, LegacyStatusRandom:
	default:
		return fmt.Errorf("contacts.legacy_status %q: want %q or %q", c.Contacts.LegacyStatus, LegacyStatusUnknown, LegacyStatusRandom)
	}
	if c.Contacts.PageSize <= 0 {
		return fmt.Errorf("contacts.page_size must be positive, got %d", c.Contacts.PageSize)
	}
	if c.Directory.RequestTimeout.Duration <= 0 || c.Broadcast.SendTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout and send_timeout must be positive")
	}
	if c.Broadcast.ConfirmDelay.Duration < 0 {
		return fmt.Errorf("broadcast.confirm_delay must not be negative")
	}
	return nil
}
