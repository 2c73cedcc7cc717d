package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath  = "config.yaml"
	defaultTTL         = 120
	defaultEmailPort   = 587
	defaultHTTPTimeout = 10 * time.Second
	defaultLogLevel    = "info"
	defaultLogEnv      = "prod"
	defaultMetricsJob  = "cloudflare_ddns"

	AuthMethodGlobal = "global"

	EmailAuthPlain   = "plain"
	EmailAuthLogin   = "login"
	EmailAuthCramMD5 = "cram-md5"
)

type Config struct {
	SiteName string  `yaml:"siteName"`
	DryRun   bool    `yaml:"dryRun"`
	Log      Log     `yaml:"log"`
	DNS      DNS     `yaml:"dns"`
	HTTP     HTTP    `yaml:"http"`
	Notify   Notify  `yaml:"notify"`
	State    State   `yaml:"state"`
	Metrics  Metrics `yaml:"metrics"`
}

type DNS struct {
	AuthEmail  string `yaml:"authEmail"`
	AuthMethod string `yaml:"authMethod"`
	AuthKey    string `yaml:"authKey"`
	ZoneID     string `yaml:"zoneId"`
	RecordName string `yaml:"recordName"`
	TTL        int    `yaml:"ttl"`
	Proxied    bool   `yaml:"proxied"`
	APIURL     string `yaml:"apiUrl"`
}

type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type Notify struct {
	Slack   Slack   `yaml:"slack"`
	Discord Discord `yaml:"discord"`
	Email   Email   `yaml:"email"`
}

type Slack struct {
	Channel string `yaml:"channel"`
	URL     string `yaml:"url"`
}

type Discord struct {
	URL string `yaml:"url"`
}

type Email struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

type State struct {
	Path string `yaml:"path"`
}

type Metrics struct {
	PushgatewayURL string `yaml:"pushgatewayUrl"`
	Job            string `yaml:"job"`
	Textfile       string `yaml:"textfile"`
}

// GlobalKeyAuth reports whether the legacy X-Auth-Key scheme is selected.
func (d DNS) GlobalKeyAuth() bool {
	return d.AuthMethod == AuthMethodGlobal
}

// Enabled reports whether the minimum email settings are present.
func (e Email) Enabled() bool {
	return e.Host != "" && e.From != "" && e.To != ""
}

// Load reads the optional .env and YAML files, then applies environment
// overrides. The returned Config is not validated.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := defaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		path = p
	}
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := defaults()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Debug("No config file, using environment only", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	// An empty file decodes to io.EOF and carries no overrides.
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Log:     Log{Level: defaultLogLevel, Env: defaultLogEnv},
		DNS:     DNS{TTL: defaultTTL},
		HTTP:    HTTP{Timeout: defaultHTTPTimeout},
		Notify:  Notify{Email: Email{Port: defaultEmailPort, Auth: EmailAuthPlain}},
		Metrics: Metrics{Job: defaultMetricsJob},
	}
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("AUTH_EMAIL", &cfg.DNS.AuthEmail)
	str("AUTH_METHOD", &cfg.DNS.AuthMethod)
	str("AUTH_KEY", &cfg.DNS.AuthKey)
	str("ZONE_IDENTIFIER", &cfg.DNS.ZoneID)
	str("RECORD_NAME", &cfg.DNS.RecordName)
	str("CLOUDFLARE_API_URL", &cfg.DNS.APIURL)
	str("SITENAME", &cfg.SiteName)
	str("SLACKCHANNEL", &cfg.Notify.Slack.Channel)
	str("SLACKURI", &cfg.Notify.Slack.URL)
	str("DISCORDURI", &cfg.Notify.Discord.URL)
	str("EMAIL_HOST", &cfg.Notify.Email.Host)
	str("EMAIL_USERNAME", &cfg.Notify.Email.Username)
	str("EMAIL_PASSWORD", &cfg.Notify.Email.Password)
	str("EMAIL_AUTH", &cfg.Notify.Email.Auth)
	str("EMAIL_FROM", &cfg.Notify.Email.From)
	str("EMAIL_TO", &cfg.Notify.Email.To)
	str("STATE_PATH", &cfg.State.Path)
	str("METRICS_PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)
	str("METRICS_JOB", &cfg.Metrics.Job)
	str("METRICS_TEXTFILE", &cfg.Metrics.Textfile)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_ENV", &cfg.Log.Env)

	var errs []error
	if v, ok := lookup("TTL"); ok && v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse TTL %q: %w", v, err))
		}
		cfg.DNS.TTL = ttl
	}
	if v, ok := lookup("EMAIL_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse EMAIL_PORT %q: %w", v, err))
		}
		cfg.Notify.Email.Port = port
	}
	if v, ok := lookup("HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse HTTP_TIMEOUT %q: %w", v, err))
		}
		cfg.HTTP.Timeout = d
	}
	// Anything other than "true" disables proxying.
	if v, ok := lookup("PROXY"); ok && v != "" {
		cfg.DNS.Proxied = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("DRY_RUN"); ok && v != "" {
		switch strings.ToLower(v) {
		case "true":
			cfg.DryRun = true
		case "false":
			cfg.DryRun = false
		default:
			errs = append(errs, fmt.Errorf("parse DRY_RUN %q: want true or false", v))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the settings the reconciliation cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.DNS.AuthKey == "" {
		errs = append(errs, errors.New("AUTH_KEY is required"))
	}
	if c.DNS.ZoneID == "" {
		errs = append(errs, errors.New("ZONE_IDENTIFIER is required"))
	}
	if c.DNS.RecordName == "" {
		errs = append(errs, errors.New("RECORD_NAME is required"))
	}
	if c.DNS.GlobalKeyAuth() && c.DNS.AuthEmail == "" {
		errs = append(errs, errors.New("AUTH_EMAIL is required when AUTH_METHOD is global"))
	}
	if c.DNS.TTL < 1 {
		errs = append(errs, fmt.Errorf("TTL must be positive, got %d", c.DNS.TTL))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTP.Timeout))
	}
	if c.Notify.Email.Enabled() && (c.Notify.Email.Port < 1 || c.Notify.Email.Port > 65535) {
		errs = append(errs, fmt.Errorf("EMAIL_PORT out of range: %d", c.Notify.Email.Port))
	}
	if c.Notify.Email.Enabled() {
		switch strings.ToLower(c.Notify.Email.Auth) {
		case "", EmailAuthPlain, EmailAuthLogin, EmailAuthCramMD5:
		default:
			errs = append(errs, fmt.Errorf("EMAIL_AUTH must be plain, login or cram-md5, got %q", c.Notify.Email.Auth))
		}
	}
	return errors.Join(errs...)
}
