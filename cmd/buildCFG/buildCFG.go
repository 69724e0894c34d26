package buildCFG

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

const (
	NotifyNone   = "none"
	NotifyDirect = "direct"
	NotifyQueue  = "queue"

	MailNone   = "none"
	MailResend = "resend"
	MailSMTP   = "smtp"
)

var ErrMissingDSN = errors.New("db.master_dsn is not set")

type ServerConfig struct {
	Port           string
	Mode           string
	RequestTimeout time.Duration
}

type EventConfig struct {
	Prefix       string
	Name         string
	ContactEmail string
}

type MailConfig struct {
	Provider     string
	APIURL       string
	APIKey       string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	Timeout      time.Duration
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type ExportConfig struct {
	Location *time.Location
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	sc := ServerConfig{
		Port:           cfg.GetString("server.port"),
		Mode:           cfg.GetString("server.mode"),
		RequestTimeout: cfg.GetDuration("server.request_timeout"),
	}
	if sc.Port == "" {
		sc.Port = "8080"
	}
	if sc.Mode == "" {
		sc.Mode = "release"
	}
	if sc.RequestTimeout <= 0 {
		sc.RequestTimeout = 10 * time.Second
	}
	log.Debug().
		Str("port", sc.Port).
		Str("mode", sc.Mode).
		Dur("request_timeout", sc.RequestTimeout).
		Msg("server config loaded")
	return sc
}

// BuildDBConfig returns the write DSN, the read-only DSNs and pool options.
// db.read_dsn is appended to db.slave_dsns so the read credential can be set
// on its own.
func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	master := cfg.GetString("db.master_dsn")
	if master == "" {
		return "", nil, nil, ErrMissingDSN
	}

	slaves := splitList(cfg.GetString("db.slave_dsns"))
	if read := cfg.GetString("db.read_dsn"); read != "" {
		slaves = append(slaves, read)
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: cfg.GetDuration("db.conn_max_lifetime"),
	}
	log.Debug().
		Int("slaves", len(slaves)).
		Int("max_open_conns", opts.MaxOpenConns).
		Msg("db config loaded")
	return master, slaves, opts, nil
}

func BuildEventConfig(cfg *config.Config) EventConfig {
	ec := EventConfig{
		Prefix:       cfg.GetString("event.prefix"),
		Name:         cfg.GetString("event.name"),
		ContactEmail: cfg.GetString("event.contact_email"),
	}
	if ec.Prefix == "" {
		ec.Prefix = "NRYLI2025"
	}
	return ec
}

func BuildMailConfig(cfg *config.Config, log *zerolog.Logger) (MailConfig, error) {
	mc := MailConfig{
		Provider:     strings.ToLower(cfg.GetString("mail.provider")),
		APIURL:       cfg.GetString("mail.api_url"),
		APIKey:       cfg.GetString("mail.api_key"),
		From:         cfg.GetString("mail.from"),
		SMTPHost:     cfg.GetString("mail.smtp_host"),
		SMTPPort:     cfg.GetInt("mail.smtp_port"),
		SMTPUser:     cfg.GetString("mail.smtp_user"),
		SMTPPassword: cfg.GetString("mail.smtp_password"),
		Timeout:      cfg.GetDuration("mail.timeout"),
	}
	if mc.Provider == "" {
		mc.Provider = MailNone
	}
	if mc.Timeout <= 0 {
		mc.Timeout = 10 * time.Second
	}

	switch mc.Provider {
	case MailNone:
	case MailResend:
		if mc.APIKey == "" {
			return mc, fmt.Errorf("mail.api_key is required for provider %q", mc.Provider)
		}
	case MailSMTP:
		if mc.SMTPHost == "" {
			return mc, fmt.Errorf("mail.smtp_host is required for provider %q", mc.Provider)
		}
	default:
		return mc, fmt.Errorf("unknown mail.provider %q", mc.Provider)
	}

	log.Debug().Str("provider", mc.Provider).Str("from", mc.From).Msg("mail config loaded")
	return mc, nil
}

func BuildNotifyMode(cfg *config.Config) (string, error) {
	mode := strings.ToLower(cfg.GetString("notify.mode"))
	switch mode {
	case "":
		return NotifyNone, nil
	case NotifyNone, NotifyDirect, NotifyQueue:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown notify.mode %q", mode)
	}
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" || rc.Exchange == "" || rc.Queue == "" {
		return rc, errors.New("rabbit.url, rabbit.exchange and rabbit.queue must all be set")
	}
	log.Debug().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit config loaded")
	return rc, nil
}

func BuildExportConfig(cfg *config.Config) (ExportConfig, error) {
	name := cfg.GetString("export.timezone")
	if name == "" {
		name = "Asia/Manila"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ExportConfig{}, fmt.Errorf("export.timezone: %w", err)
	}
	return ExportConfig{Location: loc}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
