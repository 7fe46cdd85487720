// Package config loads application configuration from command-line flags,
// PASSLINK_* environment variables and a TOML config file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // timezones on images without a zoneinfo database

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var configPath = "config.toml"

var configFile = altsrc.NewStringPtrSourcer(&configPath)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Log      LogConfig
	Store    StoreConfig
	Accounts AccountsConfig
	Link     LinkConfig
	Poll     PollConfig
	Verifier VerifierConfig
	SMTP     SMTPConfig
	Contact  ContactConfig
}

type ServerConfig struct {
	ListenAddr string
	Hostname   string // public base URL, e.g. "https://passlink.example.org"
}

type TelegramConfig struct {
	BotToken        string
	APIToken        string // webhook path secret
	BotUsername     string // falls back to the name reported by the Bot API
	RegisterWebhook bool
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type StoreConfig struct {
	Backend       string // memory, redis, sqlite
	RedisURL      string
	SQLitePath    string
	KeyPrefix     string
	SweepInterval time.Duration
}

type AccountsConfig struct {
	File string
}

type LinkConfig struct {
	CodeSecret string
	Timezone   string
}

type PollConfig struct {
	Retention time.Duration
}

type VerifierConfig struct {
	TrustedIssuers []string
	HTTPTimeout    time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

type ContactConfig struct {
	From string
	To   string
}

// NewFromCLI builds a Config from the parsed command.
func NewFromCLI(cmd *cli.Command) *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: cmd.String("listen-addr"),
			Hostname:   cmd.String("hostname"),
		},
		Telegram: TelegramConfig{
			BotToken:        cmd.String("bot-token"),
			APIToken:        cmd.String("api-token"),
			BotUsername:     cmd.String("bot-username"),
			RegisterWebhook: cmd.Bool("register-webhook"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Store: StoreConfig{
			Backend:       cmd.String("store-backend"),
			RedisURL:      cmd.String("redis-url"),
			SQLitePath:    cmd.String("sqlite-path"),
			KeyPrefix:     cmd.String("key-prefix"),
			SweepInterval: cmd.Duration("sweep-interval"),
		},
		Accounts: AccountsConfig{
			File: cmd.String("accounts-file"),
		},
		Link: LinkConfig{
			CodeSecret: cmd.String("link-code-secret"),
			Timezone:   cmd.String("timezone"),
		},
		Poll: PollConfig{
			Retention: cmd.Duration("poll-retention"),
		},
		Verifier: VerifierConfig{
			TrustedIssuers: cmd.StringSlice("trusted-issuers"),
			HTTPTimeout:    cmd.Duration("verifier-http-timeout"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Contact: ContactConfig{
			From: cmd.String("contact-from"),
			To:   cmd.String("contact-to"),
		},
	}
}

// Validate reports every problem that would stop the service from starting.
func (c *Config) Validate() error {
	var errs []error

	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("bot-token is required"))
	}
	if c.Telegram.APIToken == "" {
		errs = append(errs, errors.New("api-token is required"))
	}
	if c.Telegram.RegisterWebhook && c.Server.Hostname == "" {
		errs = append(errs, errors.New("hostname is required to register the webhook"))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("redis-url is required for the redis store"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite-path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store-backend %q", c.Store.Backend))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Poll.Retention < 0 {
		errs = append(errs, errors.New("poll-retention must not be negative"))
	}

	return errors.Join(errs...)
}

// Location loads the timezone used to render dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Link.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Link.Timezone, err)
	}
	return loc, nil
}

// SMTPEnabled reports whether outbound email is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.Contact.From != "" && c.Contact.To != ""
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar("PASSLINK_"+env), toml.TOML(key, configFile))
}

// Flags returns the command-line flags of the service.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Value:       "config.toml",
			Usage:       "Path to the TOML config file",
			Destination: &configPath,
			Sources:     cli.EnvVars("PASSLINK_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "listen-addr",
			Value:   "127.0.0.1:8080",
			Usage:   "Address the HTTP server listens on",
			Sources: source("LISTEN_ADDR", "server.listen_addr"),
		},
		&cli.StringFlag{
			Name:    "hostname",
			Usage:   "Public base URL the platform delivers webhooks to",
			Sources: source("HOSTNAME", "server.hostname"),
		},
		&cli.StringFlag{
			Name:    "bot-token",
			Usage:   "Telegram bot token",
			Sources: source("BOT_TOKEN", "telegram.bot_token"),
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Secret path segment of the webhook URL",
			Sources: source("API_TOKEN", "telegram.api_token"),
		},
		&cli.StringFlag{
			Name:    "bot-username",
			Usage:   "Bot username shown in messages (defaults to the Bot API value)",
			Sources: source("BOT_USERNAME", "telegram.bot_username"),
		},
		&cli.BoolFlag{
			Name:    "register-webhook",
			Value:   true,
			Usage:   "Register the webhook on startup and remove it on shutdown",
			Sources: source("REGISTER_WEBHOOK", "telegram.register_webhook"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "store-backend",
			Value:   BackendMemory,
			Usage:   "Link and poll store (memory, redis, sqlite)",
			Sources: source("STORE_BACKEND", "store.backend"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL, e.g. redis://localhost:6379/0",
			Sources: source("REDIS_URL", "store.redis_url"),
		},
		&cli.StringFlag{
			Name:    "sqlite-path",
			Value:   "passlink.db",
			Usage:   "SQLite database file",
			Sources: source("SQLITE_PATH", "store.sqlite_path"),
		},
		&cli.StringFlag{
			Name:    "key-prefix",
			Value:   "passlink:",
			Usage:   "Prefix of every store key, to share one store between instances",
			Sources: source("KEY_PREFIX", "store.key_prefix"),
		},
		&cli.DurationFlag{
			Name:    "sweep-interval",
			Value:   10 * time.Minute,
			Usage:   "How often the sqlite store deletes expired entries",
			Sources: source("SWEEP_INTERVAL", "store.sweep_interval"),
		},
		&cli.StringFlag{
			Name:    "accounts-file",
			Value:   "accounts.toml",
			Usage:   "TOML file granting claims to accounts",
			Sources: source("ACCOUNTS_FILE", "accounts.file"),
		},
		&cli.StringFlag{
			Name:    "link-code-secret",
			Usage:   "HMAC key for link codes (random per process if empty)",
			Sources: source("LINK_CODE_SECRET", "link.code_secret"),
		},
		&cli.StringFlag{
			Name:    "timezone",
			Value:   "Pacific/Auckland",
			Usage:   "Timezone dates are shown in",
			Sources: source("TIMEZONE", "link.timezone"),
		},
		&cli.DurationFlag{
			Name:    "poll-retention",
			Value:   7 * 24 * time.Hour,
			Usage:   "How long an idle poll is kept (0 keeps forever)",
			Sources: source("POLL_RETENTION", "poll.retention"),
		},
		&cli.StringSliceFlag{
			Name:    "trusted-issuers",
			Value:   []string{"did:web:nzcp.identity.health.nz"},
			Usage:   "Credential issuers whose passes are accepted",
			Sources: source("TRUSTED_ISSUERS", "verifier.trusted_issuers"),
		},
		&cli.DurationFlag{
			Name:    "verifier-http-timeout",
			Value:   10 * time.Second,
			Usage:   "Timeout for issuer key document requests",
			Sources: source("VERIFIER_HTTP_TIMEOUT", "verifier.http_timeout"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP relay host (contact form disabled if empty)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP relay port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Use implicit TLS instead of STARTTLS",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		&cli.StringFlag{
			Name:    "contact-from",
			Usage:   "Sender address of contact form email",
			Sources: source("CONTACT_FROM", "contact.from"),
		},
		&cli.StringFlag{
			Name:    "contact-to",
			Usage:   "Recipient of contact form email",
			Sources: source("CONTACT_TO", "contact.to"),
		},
	}
}
