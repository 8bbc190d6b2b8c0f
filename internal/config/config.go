package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Graph    GraphConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
	Tracing  TracingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
	MaxUploadBytes    int64
}

// GraphConfig describes connectivity to the Neo4j transaction store. An empty
// URI disables the store.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// Enabled reports whether a graph store has been configured.
func (g GraphConfig) Enabled() bool {
	return g.URI != ""
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	Colored       bool
	IncludeCaller bool
}

// TracingConfig points the OTLP span exporter at a collector. An empty
// endpoint disables tracing.
type TracingConfig struct {
	OTLPEndpoint string
}

// AnalysisConfig holds the detector tunables.
type AnalysisConfig struct {
	MinCycleLen            int
	MaxCycleLen            int
	OutDegreeCapMultiplier float64
	SmurfWindow            time.Duration
	SmurfCountThreshold    int
	ShellMinDegree         int
	ShellMaxDegree         int
	ShellMinHops           int
	Timeout                time.Duration // zero means no deadline
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxUploadBytes   = 32 << 20
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10

	DefaultMinCycleLen            = 3
	DefaultMaxCycleLen            = 5
	DefaultOutDegreeCapMultiplier = 2.0
	DefaultSmurfWindowHours       = 72
	DefaultSmurfCountThreshold    = 10
	DefaultShellMinDegree         = 2
	DefaultShellMaxDegree         = 3
	DefaultShellMinHops           = 3
	defaultAnalysisTimeout        = 30 * time.Second
)

// DefaultAnalysis returns the detector tunables used when nothing is set.
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MinCycleLen:            DefaultMinCycleLen,
		MaxCycleLen:            DefaultMaxCycleLen,
		OutDegreeCapMultiplier: DefaultOutDegreeCapMultiplier,
		SmurfWindow:            DefaultSmurfWindowHours * time.Hour,
		SmurfCountThreshold:    DefaultSmurfCountThreshold,
		ShellMinDegree:         DefaultShellMinDegree,
		ShellMaxDegree:         DefaultShellMaxDegree,
		ShellMinHops:           DefaultShellMinHops,
		Timeout:                defaultAnalysisTimeout,
	}
}

// Validate rejects tunables the detectors cannot work with.
func (a AnalysisConfig) Validate() error {
	var errs []error
	if a.MinCycleLen < 2 {
		errs = append(errs, fmt.Errorf("min cycle length %d must be at least 2", a.MinCycleLen))
	}
	if a.MaxCycleLen < a.MinCycleLen {
		errs = append(errs, fmt.Errorf("max cycle length %d is below min cycle length %d", a.MaxCycleLen, a.MinCycleLen))
	}
	if a.OutDegreeCapMultiplier < 0 {
		errs = append(errs, fmt.Errorf("out-degree cap multiplier %v must not be negative", a.OutDegreeCapMultiplier))
	}
	if a.SmurfWindow <= 0 {
		errs = append(errs, errors.New("smurfing window must be positive"))
	}
	if a.SmurfCountThreshold < 1 {
		errs = append(errs, fmt.Errorf("smurfing threshold %d must be at least 1", a.SmurfCountThreshold))
	}
	if a.ShellMinDegree < 1 {
		errs = append(errs, fmt.Errorf("shell min degree %d must be at least 1", a.ShellMinDegree))
	}
	if a.ShellMaxDegree < a.ShellMinDegree {
		errs = append(errs, fmt.Errorf("shell max degree %d is below shell min degree %d", a.ShellMaxDegree, a.ShellMinDegree))
	}
	if a.ShellMinHops < 1 {
		errs = append(errs, fmt.Errorf("shell min hops %d must be at least 1", a.ShellMinHops))
	}
	if a.Timeout < 0 {
		errs = append(errs, errors.New("analysis timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables, applying defaults. A
// .env file in the working directory is loaded first when present; variables
// already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxUploadBytes:  int64(parseIntWithDefault("SERVER_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			Colored:       parseBoolWithDefault("LOG_COLOR", false),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Analysis: DefaultAnalysis(),
		Tracing: TracingConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if cfg.HTTP.ReadTimeout, err = parseDurationWithDefault("SERVER_READ_TIMEOUT", cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.WriteTimeout, err = parseDurationWithDefault("SERVER_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.IdleTimeout, err = parseDurationWithDefault("SERVER_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ShutdownTimeout, err = parseDurationWithDefault("SERVER_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if err := loadAnalysisInts(&cfg.Analysis); err != nil {
		return Config{}, err
	}
	if cfg.Analysis.Timeout, err = parseDurationWithDefault("ANALYSIS_TIMEOUT", cfg.Analysis.Timeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("ANALYSIS_OUTDEGREE_CAP_MULTIPLIER"); v != "" {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ANALYSIS_OUTDEGREE_CAP_MULTIPLIER: %w", err)
		}
		cfg.Analysis.OutDegreeCapMultiplier = k
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid analysis config: %w", err)
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

// loadAnalysisInts overrides the integer tunables. Unlike the server knobs a
// malformed value is an error, since it would silently change what is flagged.
func loadAnalysisInts(a *AnalysisConfig) error {
	fields := []struct {
		key string
		dst *int
	}{
		{"ANALYSIS_MIN_CYCLE_LEN", &a.MinCycleLen},
		{"ANALYSIS_MAX_CYCLE_LEN", &a.MaxCycleLen},
		{"ANALYSIS_SMURF_COUNT_THRESHOLD", &a.SmurfCountThreshold},
		{"ANALYSIS_SHELL_MIN_DEGREE", &a.ShellMinDegree},
		{"ANALYSIS_SHELL_MAX_DEGREE", &a.ShellMaxDegree},
		{"ANALYSIS_SHELL_MIN_HOPS", &a.ShellMinHops},
	}
	for _, f := range fields {
		v, err := parseInt(f.key, *f.dst)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	hours, err := parseInt("ANALYSIS_SMURF_WINDOW_HOURS", int(a.SmurfWindow/time.Hour))
	if err != nil {
		return err
	}
	a.SmurfWindow = time.Duration(hours) * time.Hour
	return nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
