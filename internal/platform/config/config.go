// internal/platform/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
)

// Config is the full configuration tree. Precedence, lowest to highest:
// defaults, YAML file, CATALOGSYNC_* environment, command line flags.
type Config struct {
	// Runtime (flags only, never persisted)
	ConfigPath      string   `yaml:"-"`
	Jobs            []string `yaml:"-"`
	ConfirmFailsafe bool     `yaml:"-"`
	AbortFailsafe   bool     `yaml:"-"`
	PrintVersion    bool     `yaml:"-"`

	LogLevel  string `yaml:"log_level"`
	ReportDir string `yaml:"report_dir"`
	Quiet     bool   `yaml:"quiet"`

	Feed     Feed     `yaml:"feed"`
	Catalog  Catalog  `yaml:"catalog"`
	Notify   Notify   `yaml:"notify"`
	Sync     Sync     `yaml:"sync"`
	Failsafe Failsafe `yaml:"failsafe"`

	// JobSettings: per-job overrides keyed by job name (e.g. "inventory-sync").
	JobSettings map[string]JobSettings `yaml:"jobs"`
}

// Feed is the supplier feed endpoint.
type Feed struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Catalog is the destination catalog API.
type Catalog struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Notify configures event delivery.
type Notify struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Sync holds the tunables shared by every pipeline.
type Sync struct {
	SupplierTag    string        `yaml:"supplier_tag"`
	WriteDelay     time.Duration `yaml:"write_delay"`
	FuzzyThreshold float64       `yaml:"fuzzy_threshold"`
	MaxPerRun      int           `yaml:"max_per_run"`
	SnapshotTTL    time.Duration `yaml:"snapshot_ttl"`
}

// Failsafe holds the anomaly limits.
type Failsafe struct {
	InventoryPercentLimit   float64 `yaml:"inventory_percent_limit"`
	DiscontinuePercentLimit float64 `yaml:"discontinue_percent_limit"`
	CreateAbsoluteLimit     int     `yaml:"create_absolute_limit"`
}

// JobSettings are per-job overrides of the shared tunables.
type JobSettings struct {
	Enabled   *bool `yaml:"enabled"`
	MaxPerRun *int  `yaml:"max_per_run"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		ReportDir: "catalogsync_out",

		Feed: Feed{
			PageSize: 250,
			Timeout:  30 * time.Second,
		},
		Catalog: Catalog{
			Timeout: 30 * time.Second,
		},
		Notify: Notify{
			Timeout: 5 * time.Second,
		},
		Sync: Sync{
			SupplierTag:    "supplier-feed",
			WriteDelay:     500 * time.Millisecond,
			FuzzyThreshold: 60,
			MaxPerRun:      100,
			SnapshotTTL:    5 * time.Minute,
		},
		Failsafe: Failsafe{
			InventoryPercentLimit:   5,
			DiscontinuePercentLimit: 10,
			CreateAbsoluteLimit:     25,
		},

		JobSettings: make(map[string]JobSettings),
	}
}

// Load builds the configuration from args (usually os.Args[1:]).
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet("catalogsync", pflag.ContinueOnError)
	fv := bindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = getenv("CATALOGSYNC_CONFIG", "")
	}
	if cfg.ConfigPath != "" {
		if err := loadFromFile(&cfg, cfg.ConfigPath); err != nil {
			return cfg, err
		}
	}

	loadFromEnv(&cfg)

	// Flags win over file and env: apply anything set on the command line.
	applyFlags(fs, fv, &cfg)

	normalize(&cfg)
	return cfg, cfg.Validate()
}

// flagValues are the shadow variables the config-carrying flags bind to.
// Binding straight into Config would let the file and env passes overwrite
// the parsed values before they are applied, so the flags parse into this
// struct and applyFlags copies over only what the user actually set.
type flagValues struct {
	logLevel  string
	reportDir string
	quiet     bool

	feedURL    string
	catalogURL string
	webhookURL string

	supplierTag    string
	writeDelay     time.Duration
	fuzzyThreshold float64
	maxPerRun      int

	failsafeInventory   float64
	failsafeDiscontinue float64
	failsafeCreate      int
}

func bindFlags(fs *pflag.FlagSet, cfg *Config) *flagValues {
	// Runtime-only flags have no file or env counterpart and bind directly.
	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to YAML configuration file")
	fs.StringSliceVar(&cfg.Jobs, "jobs", nil, "Jobs to run, comma separated (e.g. sku-remap,inventory-sync)")
	fs.BoolVar(&cfg.ConfirmFailsafe, "confirm-failsafe", false, "Apply the held action from a previous failsafe halt")
	fs.BoolVar(&cfg.AbortFailsafe, "abort-failsafe", false, "Discard the held action from a previous failsafe halt")
	fs.BoolVarP(&cfg.PrintVersion, "version", "v", false, "Show version and exit")

	fv := &flagValues{}
	fs.StringVar(&fv.logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&fv.reportDir, "out", cfg.ReportDir, "Directory for JSON run reports")
	fs.BoolVarP(&fv.quiet, "quiet", "q", cfg.Quiet, "Suppress terminal UI output")

	fs.StringVar(&fv.feedURL, "feed.url", cfg.Feed.BaseURL, "Supplier feed base URL")
	fs.StringVar(&fv.catalogURL, "catalog.url", cfg.Catalog.BaseURL, "Catalog API base URL")
	fs.StringVar(&fv.webhookURL, "notify.webhook", cfg.Notify.WebhookURL, "Webhook URL for event notifications")

	fs.StringVar(&fv.supplierTag, "tag", cfg.Sync.SupplierTag, "Supplier tag marking owned catalog records")
	fs.DurationVar(&fv.writeDelay, "write-delay", cfg.Sync.WriteDelay, "Delay between catalog writes")
	fs.Float64Var(&fv.fuzzyThreshold, "fuzzy-threshold", cfg.Sync.FuzzyThreshold, "Minimum word overlap percentage for a fuzzy title match")
	fs.IntVar(&fv.maxPerRun, "max-per-run", cfg.Sync.MaxPerRun, "Cap on record creations per run")

	fs.Float64Var(&fv.failsafeInventory, "failsafe.inventory", cfg.Failsafe.InventoryPercentLimit, "Max percentage of records an inventory run may touch")
	fs.Float64Var(&fv.failsafeDiscontinue, "failsafe.discontinue", cfg.Failsafe.DiscontinuePercentLimit, "Max percentage of records a discontinue run may draft")
	fs.IntVar(&fv.failsafeCreate, "failsafe.create", cfg.Failsafe.CreateAbsoluteLimit, "Max records a create run may add")
	return fv
}

// applyFlags copies explicitly-set flag values over whatever the file and
// environment loaded. pflag remembers which flags the user touched.
func applyFlags(fs *pflag.FlagSet, fv *flagValues, cfg *Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "out":
			cfg.ReportDir = fv.reportDir
		case "quiet":
			cfg.Quiet = fv.quiet
		case "feed.url":
			cfg.Feed.BaseURL = fv.feedURL
		case "catalog.url":
			cfg.Catalog.BaseURL = fv.catalogURL
		case "notify.webhook":
			cfg.Notify.WebhookURL = fv.webhookURL
		case "tag":
			cfg.Sync.SupplierTag = fv.supplierTag
		case "write-delay":
			cfg.Sync.WriteDelay = fv.writeDelay
		case "fuzzy-threshold":
			cfg.Sync.FuzzyThreshold = fv.fuzzyThreshold
		case "max-per-run":
			cfg.Sync.MaxPerRun = fv.maxPerRun
		case "failsafe.inventory":
			cfg.Failsafe.InventoryPercentLimit = fv.failsafeInventory
		case "failsafe.discontinue":
			cfg.Failsafe.DiscontinuePercentLimit = fv.failsafeDiscontinue
		case "failsafe.create":
			cfg.Failsafe.CreateAbsoluteLimit = fv.failsafeCreate
		}
	})
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := getenv("CATALOGSYNC_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("CATALOGSYNC_REPORT_DIR", ""); v != "" {
		cfg.ReportDir = v
	}

	if v := getenv("CATALOGSYNC_FEED_URL", ""); v != "" {
		cfg.Feed.BaseURL = v
	}
	if v := getenv("CATALOGSYNC_FEED_API_KEY", ""); v != "" {
		cfg.Feed.APIKey = v
	}
	if v := getenv("CATALOGSYNC_FEED_PAGE_SIZE", ""); v != "" {
		cfg.Feed.PageSize = parseInt(v, cfg.Feed.PageSize)
	}

	if v := getenv("CATALOGSYNC_CATALOG_URL", ""); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := getenv("CATALOGSYNC_CATALOG_TOKEN", ""); v != "" {
		cfg.Catalog.Token = v
	}

	if v := getenv("CATALOGSYNC_WEBHOOK_URL", ""); v != "" {
		cfg.Notify.WebhookURL = v
	}

	if v := getenv("CATALOGSYNC_SUPPLIER_TAG", ""); v != "" {
		cfg.Sync.SupplierTag = v
	}
	if v := getenv("CATALOGSYNC_WRITE_DELAY", ""); v != "" {
		cfg.Sync.WriteDelay = parseDuration(v, cfg.Sync.WriteDelay)
	}
	if v := getenv("CATALOGSYNC_SNAPSHOT_TTL", ""); v != "" {
		cfg.Sync.SnapshotTTL = parseDuration(v, cfg.Sync.SnapshotTTL)
	}
	if v := getenv("CATALOGSYNC_FUZZY_THRESHOLD", ""); v != "" {
		cfg.Sync.FuzzyThreshold = parseFloat(v, cfg.Sync.FuzzyThreshold)
	}
	if v := getenv("CATALOGSYNC_MAX_PER_RUN", ""); v != "" {
		cfg.Sync.MaxPerRun = parseInt(v, cfg.Sync.MaxPerRun)
	}

	if v := getenv("CATALOGSYNC_FAILSAFE_INVENTORY", ""); v != "" {
		cfg.Failsafe.InventoryPercentLimit = parseFloat(v, cfg.Failsafe.InventoryPercentLimit)
	}
	if v := getenv("CATALOGSYNC_FAILSAFE_DISCONTINUE", ""); v != "" {
		cfg.Failsafe.DiscontinuePercentLimit = parseFloat(v, cfg.Failsafe.DiscontinuePercentLimit)
	}
	if v := getenv("CATALOGSYNC_FAILSAFE_CREATE", ""); v != "" {
		cfg.Failsafe.CreateAbsoluteLimit = parseInt(v, cfg.Failsafe.CreateAbsoluteLimit)
	}

	// Per-job env: CATALOGSYNC_JOBS_INVENTORY_SYNC_ENABLED=false
	for _, kind := range domain.AllJobKinds() {
		name := string(kind)
		prefix := "CATALOGSYNC_JOBS_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_"

		js := cfg.JobSettings[name]
		if v := getenv(prefix+"ENABLED", ""); v != "" {
			b := parseBool(v)
			js.Enabled = &b
		}
		if v := getenv(prefix+"MAX_PER_RUN", ""); v != "" {
			n := parseInt(v, cfg.Sync.MaxPerRun)
			js.MaxPerRun = &n
		}
		if js.Enabled != nil || js.MaxPerRun != nil {
			cfg.JobSettings[name] = js
		}
	}
}

func normalize(c *Config) {
	c.Sync.SupplierTag = strings.TrimSpace(c.Sync.SupplierTag)
	if c.Sync.WriteDelay < 0 {
		c.Sync.WriteDelay = 0
	}
	if c.Sync.FuzzyThreshold <= 0 {
		c.Sync.FuzzyThreshold = 60
	}
	if c.Sync.MaxPerRun < 1 {
		c.Sync.MaxPerRun = 1
	}
	if c.Feed.PageSize < 1 {
		c.Feed.PageSize = 250
	}
	if c.Failsafe.InventoryPercentLimit < 0 {
		c.Failsafe.InventoryPercentLimit = 0
	}
	if c.Failsafe.DiscontinuePercentLimit < 0 {
		c.Failsafe.DiscontinuePercentLimit = 0
	}
	if c.Failsafe.CreateAbsoluteLimit < 0 {
		c.Failsafe.CreateAbsoluteLimit = 0
	}
	if c.ReportDir == "" {
		c.ReportDir = "catalogsync_out"
	}
	if c.JobSettings == nil {
		c.JobSettings = make(map[string]JobSettings)
	}
}

// Validate checks the requested jobs against the known kinds.
func (c Config) Validate() error {
	for _, name := range c.Jobs {
		if !domain.JobKind(name).IsValid() {
			return fmt.Errorf("unknown job %q (valid: %s)", name, strings.Join(jobNames(), ", "))
		}
	}
	for name := range c.JobSettings {
		if !domain.JobKind(name).IsValid() {
			return fmt.Errorf("unknown job %q in jobs section", name)
		}
	}
	return nil
}

// JobConfig materializes the effective per-job tunables for one kind.
func (c Config) JobConfig(kind domain.JobKind) ports.JobConfig {
	jc := ports.JobConfig{
		Enabled:        true,
		PercentLimit:   c.Failsafe.InventoryPercentLimit,
		AbsoluteLimit:  c.Failsafe.CreateAbsoluteLimit,
		MaxPerRun:      c.Sync.MaxPerRun,
		WriteDelay:     c.Sync.WriteDelay,
		FuzzyThreshold: c.Sync.FuzzyThreshold,
		SupplierTag:    c.Sync.SupplierTag,
	}
	if kind == domain.JobDiscontinue {
		jc.PercentLimit = c.Failsafe.DiscontinuePercentLimit
	}

	if js, ok := c.JobSettings[string(kind)]; ok {
		if js.Enabled != nil {
			jc.Enabled = *js.Enabled
		}
		if js.MaxPerRun != nil {
			jc.MaxPerRun = *js.MaxPerRun
		}
	}
	return jc
}

// FailsafeConfig exposes the limits in the shape the guard wants.
func (c Config) FailsafeConfig() (inventory, discontinue float64, create int) {
	return c.Failsafe.InventoryPercentLimit, c.Failsafe.DiscontinuePercentLimit, c.Failsafe.CreateAbsoluteLimit
}

func jobNames() []string {
	kinds := domain.AllJobKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}
