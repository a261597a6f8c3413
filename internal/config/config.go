// Package config resolves ddelivery-go's process configuration. Values are
// layered built-in default, then an optional JSON file (grounded on
// helpers.DecodeFile), then environment variables, then CLI flags,
// highest precedence last.
package config

import (
	"os"
	"strconv"

	"github.com/archipel-network/ddelivery-go/helpers"
)

// Config is the fully resolved set of knobs both ddelivery-smtpd and
// ddelivery-lmtpd read from at startup.
type Config struct {
	SMTPBind      string `json:"smtp_bind"`
	Domain        string `json:"domain"`
	OutboxAgentID string `json:"outbox_agent_id"`
	InboxAgentID  string `json:"inbox_agent_id"`
	AAPSocketPath string `json:"aap_socket_path"`
	LMTPAddr      string `json:"lmtp_addr"`
	MaildirRoot   string `json:"maildir_root"`
	SinkQueueSize int    `json:"sink_queue_size"`
}

// Default returns the built-in defaults, the first and lowest-precedence
// layer.
func Default() Config {
	return Config{
		SMTPBind:      "127.0.0.1:2525",
		Domain:        "ddelivery",
		OutboxAgentID: "mail/outbox",
		InboxAgentID:  "mail/inbox",
		AAPSocketPath: "/run/archipel-core/archipel-core.socket",
		LMTPAddr:      "127.0.0.1:24",
		MaildirRoot:   "",
		SinkQueueSize: 64,
	}
}

// LoadFile overlays the JSON file at path onto cfg. A missing path is not
// an error: ddelivery runs on defaults-plus-env when no file is given.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return helpers.DecodeFile(path, cfg)
}

// ApplyEnv overlays environment variables onto cfg, per the table in
// SPEC_FULL.md §6.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DDELIVERY_SMTP_BIND"); ok {
		cfg.SMTPBind = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_DOMAIN"); ok {
		cfg.Domain = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_OUTBOX_AGENT"); ok {
		cfg.OutboxAgentID = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_INBOX_AGENT"); ok {
		cfg.InboxAgentID = v
	}
	if v, ok := os.LookupEnv("ARCHIPEL_CORE_AAP_SOCKET"); ok {
		cfg.AAPSocketPath = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_LMTP_ADDR"); ok {
		cfg.LMTPAddr = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_MAILDIR_ROOT"); ok {
		cfg.MaildirRoot = v
	}
	if v, ok := os.LookupEnv("DDELIVERY_SINK_QUEUE_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SinkQueueSize = n
		}
	}
}

// ConfigFilePath resolves the path to an optional JSON config file from
// the "--config" flag (passed in explicitly by the CLI layer) or the
// DDELIVERY_CONFIG environment variable, flag taking precedence.
func ConfigFilePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("DDELIVERY_CONFIG")
}

// Load runs the full default -> file -> env layering, leaving CLI flags
// (the highest-precedence layer) to the caller, which applies them last
// directly onto the returned Config's fields via its cobra flag bindings.
func Load(configFlagValue string) (Config, error) {
	cfg := Default()

	path := ConfigFilePath(configFlagValue)
	if err := LoadFile(&cfg, path); err != nil {
		return cfg, err
	}

	ApplyEnv(&cfg)
	return cfg, nil
}
