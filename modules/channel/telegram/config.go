package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// secretPattern matches the characters Telegram accepts in a webhook secret token.
var secretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

// DefaultAPIURL is the public Bot API base URL.
const DefaultAPIURL = "https://api.telegram.org"

// Config holds the Bot API client configuration.
type Config struct {
	Token      string        `yaml:"token" env:"BOT_TOKEN"`
	APIURL     string        `yaml:"api_url" env:"TELEGRAM_API_URL"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// Defaults applies default values to unset fields.
func (c *Config) Defaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

// Validate checks configuration field constraints. It expects Defaults to
// have been applied.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Token == "":
		errs = append(errs, errors.New("telegram: token is required"))
	case !tokenPattern.MatchString(c.Token):
		errs = append(errs, errors.New("telegram: token format invalid (expected <bot_id>:<hash>)"))
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("telegram: api_url must be a valid http/https URL, got %q", c.APIURL))
	}

	if c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("telegram: max_retries must be 1-10, got %d", c.MaxRetries))
	}

	return errors.Join(errs...)
}

// ValidateSecret checks a webhook secret token against the platform's charset.
// An empty secret is valid and disables verification.
func ValidateSecret(secret string) error {
	if secret != "" && !secretPattern.MatchString(secret) {
		return errors.New("telegram: webhook secret must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
	}
	return nil
}

// endpoint returns the printf-style method URL template expected by tgbotapi.
func (c *Config) endpoint() string {
	if c.APIURL == "" || c.APIURL == DefaultAPIURL {
		return tgbotapi.APIEndpoint
	}
	return strings.TrimRight(c.APIURL, "/") + "/bot%s/%s"
}
