package config

import (
	"io"

	"github.com/spf13/pflag"
)

// CLIFlags holds command-line overrides. A nil field means the flag was not
// passed and the lower layers win.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	LiteLLMURL *string
	MCPEnabled *bool
}

// AddFlags registers the config override flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to YAML config file (default "+DefaultConfigFile+")")
	fs.StringP("port", "p", "", "HTTP listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("dsn", "", "PostgreSQL connection string")
	fs.String("nats-url", "", "NATS server URL")
	fs.String("litellm-url", "", "LiteLLM proxy URL")
	fs.Bool("mcp", false, "serve the MCP endpoint")
}

// FlagsFrom collects the flags registered by AddFlags that were explicitly set.
func FlagsFrom(fs *pflag.FlagSet) CLIFlags {
	var f CLIFlags
	f.ConfigPath = changedString(fs, "config")
	f.Port = changedString(fs, "port")
	f.LogLevel = changedString(fs, "log-level")
	f.DSN = changedString(fs, "dsn")
	f.NatsURL = changedString(fs, "nats-url")
	f.LiteLLMURL = changedString(fs, "litellm-url")
	if fs.Changed("mcp") {
		if v, err := fs.GetBool("mcp"); err == nil {
			f.MCPEnabled = &v
		}
	}
	return f
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("ilmihal", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}
	return FlagsFrom(fs), nil
}

func changedString(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

// applyCLI overlays explicitly set CLI flags onto cfg.
func applyCLI(cfg *Config, f CLIFlags) {
	if f.Port != nil {
		cfg.Server.Port = *f.Port
	}
	if f.LogLevel != nil {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.DSN != nil {
		cfg.Postgres.DSN = *f.DSN
	}
	if f.NatsURL != nil {
		cfg.NATS.URL = *f.NatsURL
	}
	if f.LiteLLMURL != nil {
		cfg.LiteLLM.URL = *f.LiteLLMURL
	}
	if f.MCPEnabled != nil {
		cfg.MCP.Enabled = *f.MCPEnabled
	}
}
