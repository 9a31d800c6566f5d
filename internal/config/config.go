// Package config resolves the run configuration from flags, environment
// variables, a key=value file and built-in defaults, in that order of priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/naka-gawa/pr-report/internal/domain"
)

// DefaultFile is read when no config file is named. A missing default file is not an error.
const DefaultFile = ".env"

// EnvConfigFile names the config file through the environment.
const EnvConfigFile = "PR_REPORT_CONFIG"

// Settings are the raw values as they come from the environment and the config file.
type Settings struct {
	Token          string        `env:"PR_REPORT_TOKEN" env-description:"GitHub token used for API calls"`
	Repository     string        `env:"PR_REPORT_REPO" env-description:"Repository to report on, as owner/name"`
	Days           int           `env:"PR_REPORT_DAYS_AGO" env-default:"7" env-description:"Number of days to look back"`
	Debug          bool          `env:"PR_REPORT_DEBUG" env-default:"false" env-description:"Enable debug logging"`
	APIURL         string        `env:"PR_REPORT_API_URL" env-description:"GitHub Enterprise base URL"`
	Timeout        time.Duration `env:"PR_REPORT_TIMEOUT" env-default:"5s" env-description:"Connect and response timeout per request"`
	ResolveAuthors bool          `env:"PR_REPORT_RESOLVE_AUTHORS" env-default:"false" env-description:"Look up author names and emails"`
}

// Overrides carries values given explicitly on the command line.
// A nil field means the flag was not set.
type Overrides struct {
	Token          *string
	Repository     *string
	Days           *int
	ConfigFile     *string
	Debug          *bool
	APIURL         *string
	Timeout        *time.Duration
	ResolveAuthors *bool
}

// Config is the fully resolved, validated configuration of one run.
type Config struct {
	Token          string
	Repository     domain.Repository
	Days           int
	Debug          bool
	APIURL         string
	Timeout        time.Duration
	ResolveAuthors bool
}

// Resolve merges the configuration sources and validates the result.
//
// The config file is loaded into the process environment without replacing
// variables that are already set, so real environment variables win over it.
func Resolve(overrides Overrides) (Config, error) {
	if err := loadFile(overrides.ConfigFile); err != nil {
		return Config{}, err
	}

	var s Settings
	if err := cleanenv.ReadEnv(&s); err != nil {
		return Config{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	s.apply(overrides)
	return s.validate()
}

// Usage describes the environment variables understood by Resolve.
func Usage() string {
	var s Settings
	header := "Environment variables (" + EnvConfigFile + " names a key=value file, default " + DefaultFile + "):"
	description, err := cleanenv.GetDescription(&s, &header)
	if err != nil {
		return ""
	}
	return description
}

func loadFile(override *string) error {
	path, explicit := DefaultFile, false
	if v, ok := os.LookupEnv(EnvConfigFile); ok && v != "" {
		path, explicit = v, true
	}
	if override != nil {
		path, explicit = *override, true
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: reading config file %q: %v", domain.ErrInvalidConfiguration, path, err)
	}
	return nil
}

func (s *Settings) apply(o Overrides) {
	if o.Token != nil {
		s.Token = *o.Token
	}
	if o.Repository != nil {
		s.Repository = *o.Repository
	}
	if o.Days != nil {
		s.Days = *o.Days
	}
	if o.Debug != nil {
		s.Debug = *o.Debug
	}
	if o.APIURL != nil {
		s.APIURL = *o.APIURL
	}
	if o.Timeout != nil {
		s.Timeout = *o.Timeout
	}
	if o.ResolveAuthors != nil {
		s.ResolveAuthors = *o.ResolveAuthors
	}
}

func (s Settings) validate() (Config, error) {
	var missing []string
	if s.Token == "" {
		missing = append(missing, "token")
	}
	if s.Repository == "" {
		missing = append(missing, "repository")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %v must be provided", domain.ErrMissingConfiguration, missing)
	}
	if s.Days < 0 {
		return Config{}, fmt.Errorf("%w: days must not be negative, got %d", domain.ErrInvalidConfiguration, s.Days)
	}
	if s.Timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive, got %s", domain.ErrInvalidConfiguration, s.Timeout)
	}

	repo, err := domain.ParseRepository(s.Repository)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Token:          s.Token,
		Repository:     repo,
		Days:           s.Days,
		Debug:          s.Debug,
		APIURL:         s.APIURL,
		Timeout:        s.Timeout,
		ResolveAuthors: s.ResolveAuthors,
	}, nil
}
