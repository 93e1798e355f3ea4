// internal/platform/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"catalogsync/internal/core/domain"
	"catalogsync/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	testutil.AssertEqual(t, cfg.Sync.SupplierTag, "supplier-feed", "default supplier tag")
	testutil.AssertEqual(t, cfg.Sync.FuzzyThreshold, 60.0, "default fuzzy threshold")
	testutil.AssertEqual(t, cfg.Failsafe.InventoryPercentLimit, 5.0, "default inventory limit")
	testutil.AssertEqual(t, cfg.Failsafe.DiscontinuePercentLimit, 10.0, "default discontinue limit")
	testutil.AssertEqual(t, cfg.Failsafe.CreateAbsoluteLimit, 25, "default create limit")
	testutil.AssertEqual(t, cfg.Sync.WriteDelay, 500*time.Millisecond, "default write delay")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)

	testutil.AssertNoError(t, err, "load with no args")
	testutil.AssertEqual(t, cfg.Sync.MaxPerRun, 100, "default max per run")
	testutil.AssertEqual(t, cfg.LogLevel, "info", "default log level")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
log_level: debug
sync:
  supplier_tag: acme
  fuzzy_threshold: 75
failsafe:
  inventory_percent_limit: 2.5
  create_absolute_limit: 10
jobs:
  create-new:
    enabled: false
`)
	testutil.AssertNoError(t, os.WriteFile(path, data, 0o644), "write config file")

	cfg, err := Load([]string{"--config", path})

	testutil.AssertNoError(t, err, "load from file")
	testutil.AssertEqual(t, cfg.LogLevel, "debug", "log level from file")
	testutil.AssertEqual(t, cfg.Sync.SupplierTag, "acme", "supplier tag from file")
	testutil.AssertEqual(t, cfg.Sync.FuzzyThreshold, 75.0, "fuzzy threshold from file")
	testutil.AssertEqual(t, cfg.Failsafe.InventoryPercentLimit, 2.5, "inventory limit from file")
	testutil.AssertEqual(t, cfg.Failsafe.CreateAbsoluteLimit, 10, "create limit from file")

	jc := cfg.JobConfig(domain.JobCreateNew)
	testutil.AssertFalse(t, jc.Enabled, "create-new disabled via file")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("sync:\n  supplier_tag: from-file\n"), 0o644), "write config file")

	t.Setenv("CATALOGSYNC_SUPPLIER_TAG", "from-env")

	cfg, err := Load([]string{"--config", path})

	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, cfg.Sync.SupplierTag, "from-env", "env beats file")
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CATALOGSYNC_SUPPLIER_TAG", "from-env")
	t.Setenv("CATALOGSYNC_FUZZY_THRESHOLD", "70")
	t.Setenv("CATALOGSYNC_MAX_PER_RUN", "42")

	cfg, err := Load([]string{"--tag", "from-flag", "--fuzzy-threshold", "80"})

	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, cfg.Sync.SupplierTag, "from-flag", "flag beats env")
	testutil.AssertEqual(t, cfg.Sync.FuzzyThreshold, 80.0, "flag beats env for threshold")
	testutil.AssertEqual(t, cfg.Sync.MaxPerRun, 42, "env applies when the flag is not set")
}

func TestPerJobEnvSettings(t *testing.T) {
	t.Setenv("CATALOGSYNC_JOBS_CREATE_NEW_ENABLED", "false")
	t.Setenv("CATALOGSYNC_JOBS_CREATE_NEW_MAX_PER_RUN", "7")

	cfg, err := Load(nil)

	testutil.AssertNoError(t, err, "load")

	jc := cfg.JobConfig(domain.JobCreateNew)
	testutil.AssertFalse(t, jc.Enabled, "create-new disabled via env")
	testutil.AssertEqual(t, jc.MaxPerRun, 7, "per-job max per run")

	other := cfg.JobConfig(domain.JobInventorySync)
	testutil.AssertTrue(t, other.Enabled, "other jobs stay enabled")
	testutil.AssertEqual(t, other.MaxPerRun, 100, "other jobs keep shared max")
}

func TestJobConfigPercentLimitPerKind(t *testing.T) {
	cfg := DefaultConfig()

	testutil.AssertEqual(t, cfg.JobConfig(domain.JobInventorySync).PercentLimit, 5.0, "inventory percent limit")
	testutil.AssertEqual(t, cfg.JobConfig(domain.JobDiscontinue).PercentLimit, 10.0, "discontinue percent limit")
}

func TestValidateRejectsUnknownJob(t *testing.T) {
	_, err := Load([]string{"--jobs", "nonsense"})
	testutil.AssertError(t, err, "unknown job name")
}

func TestNormalizeClampsValues(t *testing.T) {
	cfg := Config{
		Sync: Sync{WriteDelay: -1 * time.Second, FuzzyThreshold: -5, MaxPerRun: 0},
	}
	normalize(&cfg)

	testutil.AssertEqual(t, cfg.Sync.WriteDelay, time.Duration(0), "negative delay clamped")
	testutil.AssertEqual(t, cfg.Sync.FuzzyThreshold, 60.0, "threshold restored to default")
	testutil.AssertEqual(t, cfg.Sync.MaxPerRun, 1, "max per run floor")
}
