package config

import "flag"

// CLIFlags holds command-line overrides. Each field is nil when the flag
// was not supplied, so applyCLI can distinguish "not set" from "set to
// the zero value".
type CLIFlags struct {
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
	ConfigPath *string
}

// ParseFlags parses a depgraphd command line into CLIFlags. It accepts
// both long and short forms for the flags admins reach for most often.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("depgraphd", flag.ContinueOnError)

	var flags CLIFlags
	var port, shortPort string
	var logLevel string
	var dsn string
	var natsURL string
	var configPath, shortConfigPath string

	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&shortPort, "p", "", "HTTP listen port (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	fs.StringVar(&dsn, "dsn", "", "postgres connection string")
	fs.StringVar(&natsURL, "nats-url", "", "NATS server URL")
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&shortConfigPath, "c", "", "path to YAML config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}

	if p := firstNonEmpty(port, shortPort); p != "" {
		flags.Port = &p
	}
	if logLevel != "" {
		flags.LogLevel = &logLevel
	}
	if dsn != "" {
		flags.DSN = &dsn
	}
	if natsURL != "" {
		flags.NatsURL = &natsURL
	}
	if c := firstNonEmpty(configPath, shortConfigPath); c != "" {
		flags.ConfigPath = &c
	}

	return flags, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// applyCLI overlays CLIFlags onto cfg. CLI flags take precedence over both
// the YAML file and environment variables.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// LoadWithCLI resolves the config file path (CLI --config/-c wins over
// DefaultConfigFile), then loads using the usual defaults < YAML < ENV
// hierarchy with CLI flags applied last. It returns the resolved config
// path alongside the config for callers that want to report where
// settings came from.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, err
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}
