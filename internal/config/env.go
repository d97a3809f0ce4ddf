package config

import (
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"
)

// DefaultOutputName is the file created in the user's home directory when no
// output path is given.
const DefaultOutputName = "workout.pdf"

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send         bool
    APIKey       string
    OrgID        string
    Dataset      string
    URL          string        // empty uses the Axiom cloud endpoint
    FlushTimeout time.Duration // deadline for shipping buffered events at exit
}

// OutputConfig controls where the document is written and how it is checked.
type OutputConfig struct {
    Path   string
    Verify bool
}

// PageConfig is the usable frame of an A4 page, in points.
type PageConfig struct {
    ContentWidth  float64
    ContentHeight float64
}

// RenderConfig tunes the in-memory image transform.
type RenderConfig struct {
    JPEGQuality int
}

// FilterConfig tunes input eligibility.
type FilterConfig struct {
    IgnoreCase bool
}

// StagingConfig defines the private working directory.
type StagingConfig struct {
    Prefix   string
    SweepAge time.Duration // 0 disables the startup sweep
}

// PrinterConfig defines the external print command.
type PrinterConfig struct {
    Command string
    Timeout time.Duration
}

// RemoteConfig defines access to s3:// and http(s):// candidates.
type RemoteConfig struct {
    Region          string
    AccessKeyID     string
    SecretAccessKey string
    S3Endpoint      string
    HTTPTimeout     time.Duration
}

// MetricsConfig defines the optional Prometheus textfile output.
type MetricsConfig struct {
    Textfile string
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Output  OutputConfig
    Page    PageConfig
    Render  RenderConfig
    Filter  FilterConfig
    Staging StagingConfig
    Printer PrinterConfig
    Remote  RemoteConfig
    Metrics MetricsConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// The default output path is resolved here once and threaded through from the caller.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "warn"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
        File:       getEnv("LOG_FILE", ""),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "10"), 10),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "3"), 3),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:         parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:       getEnv("AXIOM_API_KEY", ""),
        OrgID:        getEnv("AXIOM_ORG_ID", ""),
        Dataset:      baseDataset + "_img2pdf",
        URL:          getEnv("AXIOM_URL", ""),
        FlushTimeout: parseDuration(getEnv("AXIOM_FLUSH_TIMEOUT", "15s"), 15*time.Second),
    }

    cfg.Output = OutputConfig{
        Path:   getEnv("OUTPUT_PATH", defaultOutputPath()),
        Verify: parseBool(getEnv("VERIFY_OUTPUT", "true")),
    }

    cfg.Page = PageConfig{
        ContentWidth:  parseFloat(getEnv("PAGE_CONTENT_WIDTH", "583"), 583),
        ContentHeight: parseFloat(getEnv("PAGE_CONTENT_HEIGHT", "829"), 829),
    }

    cfg.Render = RenderConfig{
        JPEGQuality: parseInt(getEnv("RENDER_JPEG_QUALITY", "90"), 90),
    }
    if cfg.Render.JPEGQuality < 1 || cfg.Render.JPEGQuality > 100 { cfg.Render.JPEGQuality = 90 }

    cfg.Filter = FilterConfig{
        IgnoreCase: parseBool(getEnv("FILTER_IGNORE_CASE", "false")),
    }

    cfg.Staging = StagingConfig{
        Prefix:   getEnv("STAGING_PREFIX", "img2pdf-"),
        SweepAge: parseDuration(getEnv("STAGING_SWEEP_AGE", "24h"), 24*time.Hour),
    }

    cfg.Printer = PrinterConfig{
        Command: getEnv("PRINT_COMMAND", "lpr"),
        Timeout: parseDuration(getEnv("PRINT_TIMEOUT", "60s"), 60*time.Second),
    }

    cfg.Remote = RemoteConfig{
        Region:          getEnv("AWS_REGION", ""),
        AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
        SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
        S3Endpoint:      getEnv("S3_ENDPOINT", ""),
        HTTPTimeout:     parseDuration(getEnv("HTTP_FETCH_TIMEOUT", "60s"), 60*time.Second),
    }

    cfg.Metrics = MetricsConfig{
        Textfile: getEnv("METRICS_TEXTFILE", ""),
    }

    return cfg
}

func defaultOutputPath() string {
    home, err := os.UserHomeDir()
    if err != nil || home == "" { home = "." }
    return filepath.Join(home, DefaultOutputName)
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}
