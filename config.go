package auth

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadSettings. They override the YAML file.
const (
	EnvSecret        = "JWT_SECRET"
	EnvSalt          = "JWT_SALT"
	EnvExpiration    = "JWT_EXPIRATION"
	EnvIssuer        = "JWT_ISSUER"
	EnvAddr          = "AUTH_ADDR"
	EnvAdminSeed     = "ADMIN_SEED"
	EnvAdminEmail    = "ADMIN_EMAIL"
	EnvAdminPassword = "ADMIN_PASSWORD"
)

// Duration decodes either a Go duration string ("24h") or a bare number of
// seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseExpiration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Settings is the process configuration. It is loaded once and passed to
// every component that needs it.
type Settings struct {
	Addr string `yaml:"addr"`

	JWT struct {
		Secret      string   `yaml:"secret"`
		Salt        string   `yaml:"salt"`
		Expiration  Duration `yaml:"expiration"`
		Issuer      string   `yaml:"issuer"`
		TokenLookup string   `yaml:"token_lookup"`
		AuthScheme  string   `yaml:"auth_scheme"`
		ContextKey  string   `yaml:"context_key"`
	} `yaml:"jwt"`

	Admin struct {
		Seed      bool   `yaml:"seed"`
		Email     string `yaml:"email"`
		Password  string `yaml:"password"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
	} `yaml:"admin"`
}

var _ Config = (*Settings)(nil)

// DefaultSettings returns settings with every optional value filled in.
// Secret, salt, expiration and the admin password stay empty: they have no
// safe default. Admin seeding is off until explicitly enabled.
func DefaultSettings() *Settings {
	s := &Settings{Addr: ":3000"}
	s.JWT.Issuer = "authgate"
	s.JWT.TokenLookup = "header:Authorization"
	s.JWT.AuthScheme = "Bearer"
	s.JWT.ContextKey = "user"
	s.Admin.Email = "admin@example.com"
	s.Admin.FirstName = "Admin"
	s.Admin.LastName = "User"
	return s
}

// LoadSettings reads the optional YAML file at path, applies environment
// overrides from getenv and validates the result.
func LoadSettings(path string, getenv func(string) string) (*Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	s := DefaultSettings()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := s.applyEnv(getenv); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&s.JWT.Secret, EnvSecret)
	setString(&s.JWT.Salt, EnvSalt)
	setString(&s.JWT.Issuer, EnvIssuer)
	setString(&s.Addr, EnvAddr)
	setString(&s.Admin.Email, EnvAdminEmail)
	setString(&s.Admin.Password, EnvAdminPassword)

	if v := strings.TrimSpace(getenv(EnvAdminSeed)); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAdminSeed, err)
		}
		s.Admin.Seed = seed
	}

	if v := strings.TrimSpace(getenv(EnvExpiration)); v != "" {
		d, err := ParseExpiration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvExpiration, err)
		}
		s.JWT.Expiration = Duration(d)
	}

	return nil
}

// Validate reports every missing required value at once.
func (s *Settings) Validate() error {
	var errs []error
	if s.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("%s is not set", EnvSecret))
	}
	if s.JWT.Salt == "" {
		errs = append(errs, fmt.Errorf("%s is not set", EnvSalt))
	}
	if s.JWT.Expiration <= 0 {
		errs = append(errs, fmt.Errorf("%s is not set", EnvExpiration))
	}
	if s.Admin.Seed {
		if s.Admin.Email == "" {
			errs = append(errs, fmt.Errorf("admin seeding requires %s", EnvAdminEmail))
		}
		if strings.TrimSpace(s.Admin.Password) == "" {
			errs = append(errs, fmt.Errorf("admin seeding requires %s", EnvAdminPassword))
		}
	}
	return errors.Join(errs...)
}

// ParseExpiration accepts "90m"-style durations or a plain number of seconds.
func ParseExpiration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("empty expiration")
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("expiration must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration %q: %w", v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiration must be positive, got %s", d)
	}
	return d, nil
}

func (s *Settings) GetSigningKey() string { return s.JWT.Secret }
func (s *Settings) GetSalt() string { return s.JWT.Salt }
func (s *Settings) GetTokenExpiration() time.Duration { return time.Duration(s.JWT.Expiration) }
func (s *Settings) GetIssuer() string { return s.JWT.Issuer }
func (s *Settings) GetContextKey() string { return s.JWT.ContextKey }
func (s *Settings) GetTokenLookup() string { return s.JWT.TokenLookup }
func (s *Settings) GetAuthScheme() string { return s.JWT.AuthScheme }
