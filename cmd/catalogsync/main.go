// cmd/catalogsync/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalogsync/internal/adapters/cached"
	"catalogsync/internal/adapters/feed"
	"catalogsync/internal/adapters/notify"
	"catalogsync/internal/adapters/report"
	"catalogsync/internal/adapters/shopcat"
	"catalogsync/internal/core/domain"
	"catalogsync/internal/core/ports"
	"catalogsync/internal/core/usecases"
	"catalogsync/internal/platform/config"
	"catalogsync/internal/platform/logx"
	"catalogsync/internal/platform/registry"
	"catalogsync/internal/platform/ui"

	// Import jobs for auto-registration via init()
	_ "catalogsync/internal/jobs/createnew"
	_ "catalogsync/internal/jobs/dedupe"
	_ "catalogsync/internal/jobs/discontinue"
	_ "catalogsync/internal/jobs/inventory"
	_ "catalogsync/internal/jobs/skuremap"
)

var (
	// set via -ldflags at build time
	version = "dev"
	commit  = "none"
)

// defaultRunOrder runs the repair pipelines before the pipelines that depend
// on clean SKU links.
var defaultRunOrder = []domain.JobKind{
	domain.JobSKURemap,
	domain.JobDeduplicate,
	domain.JobInventorySync,
	domain.JobCreateNew,
	domain.JobDiscontinue,
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		return 2
	}

	if cfg.PrintVersion {
		fmt.Printf("catalogsync %s (%s)\n", version, commit)
		return 0
	}

	if cfg.Feed.BaseURL == "" || cfg.Catalog.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: feed and catalog URLs are required")
		fmt.Fprintln(os.Stderr, "Try: catalogsync --feed.url <url> --catalog.url <url>")
		return 2
	}

	logger := logx.NewWithLevel(logx.ParseLevel(cfg.LogLevel))
	console := ui.NewConsole(!cfg.Quiet)
	console.Header(version)

	logger.Info("catalogsync starting",
		"version", version,
		"supplier_tag", cfg.Sync.SupplierTag,
		"feed", cfg.Feed.BaseURL,
		"catalog", cfg.Catalog.BaseURL,
	)

	ctx, cancel := rootContextWithSignals()
	defer cancel()

	notifier := buildNotifier(cfg, logger)
	defer notifier.Close()

	feedCatalog := feed.New(feed.Config{
		BaseURL:  cfg.Feed.BaseURL,
		APIKey:   cfg.Feed.APIKey,
		PageSize: cfg.Feed.PageSize,
		Timeout:  cfg.Feed.Timeout,
	}, logger)
	destCatalog := shopcat.New(shopcat.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Token:   cfg.Catalog.Token,
		Timeout: cfg.Catalog.Timeout,
	}, logger)

	deps := ports.JobDeps{
		Notifier:    notifier,
		Source:      cached.NewSource(feedCatalog, cfg.Sync.SnapshotTTL, logger),
		Destination: cached.NewDestination(destCatalog, cfg.Sync.SnapshotTTL, logger),
	}

	jobs, err := buildJobs(cfg, deps, logger)
	if err != nil {
		logger.Err(err, "phase", "job-build")
		return 2
	}

	orch := usecases.NewOrchestrator(usecases.OrchestratorOptions{
		Jobs: jobs,
		Failsafe: usecases.FailsafeConfig{
			InventoryPercentLimit:   cfg.Failsafe.InventoryPercentLimit,
			DiscontinuePercentLimit: cfg.Failsafe.DiscontinuePercentLimit,
			CreateAbsoluteLimit:     cfg.Failsafe.CreateAbsoluteLimit,
		},
		Notifier: notifier,
		Logger:   logger,
	})
	defer orch.Close()

	runJobs(ctx, cfg, orch, console, logger, jobs)

	status := orch.Status()

	if err := report.WriteAll(cfg.ReportDir, status.Summaries); err != nil {
		logger.Err(err, "phase", "report")
	}

	console.Summaries(status.Summaries)
	console.TopErrors(status.TopErrors)

	if status.Failsafe.Triggered {
		console.FailsafeBanner(status.Failsafe.Reason, status.Failsafe.PendingKind, status.Failsafe.PendingSize)
		return 3
	}

	for _, s := range status.Summaries {
		if s.Outcome == domain.RunFailed {
			return 1
		}
	}
	return 0
}

// runJobs executes the requested kinds one at a time. A failsafe halt stops
// the sequence unless the operator pre-authorized a resolution on the
// command line.
func runJobs(ctx context.Context, cfg config.Config, orch *usecases.Orchestrator, console *ui.Console, logger logx.Logger, jobs []ports.Job) {
	built := make(map[domain.JobKind]bool, len(jobs))
	for _, j := range jobs {
		built[j.Kind()] = true
	}

	for _, kind := range runOrder(cfg) {
		if ctx.Err() != nil {
			logger.Info("shutdown requested, skipping remaining jobs")
			return
		}
		if !built[kind] {
			logger.Debug("job not built, skipping", "job", kind)
			continue
		}

		if !orch.StartJob(ctx, kind) {
			continue
		}
		orch.Wait()

		st := orch.Status()
		if !st.Failsafe.Triggered {
			continue
		}

		switch {
		case cfg.ConfirmFailsafe:
			console.Warn(fmt.Sprintf("failsafe triggered for %s, applying held batch (pre-authorized)", st.Failsafe.PendingKind))
			orch.ConfirmFailsafe(ctx)
			orch.Wait()
		case cfg.AbortFailsafe:
			console.Warn(fmt.Sprintf("failsafe triggered for %s, discarding held batch (pre-authorized)", st.Failsafe.PendingKind))
			orch.AbortFailsafe()
		default:
			logger.Warn("failsafe triggered, stopping run sequence",
				"job", st.Failsafe.PendingKind,
				"reason", st.Failsafe.Reason,
			)
			return
		}
	}
}

func runOrder(cfg config.Config) []domain.JobKind {
	if len(cfg.Jobs) == 0 {
		return defaultRunOrder
	}
	kinds := make([]domain.JobKind, 0, len(cfg.Jobs))
	for _, name := range cfg.Jobs {
		kinds = append(kinds, domain.JobKind(name))
	}
	return kinds
}

func buildNotifier(cfg config.Config, logger logx.Logger) ports.Notifier {
	backends := []ports.Notifier{notify.NewLog(logger)}
	if cfg.Notify.WebhookURL != "" {
		backends = append(backends, notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout, logger))
	}
	return notify.NewFanout(backends...)
}

func buildJobs(cfg config.Config, deps ports.JobDeps, logger logx.Logger) ([]ports.Job, error) {
	configs := make(map[domain.JobKind]ports.JobConfig)
	for _, kind := range registry.Global().List() {
		configs[kind] = cfg.JobConfig(kind)
	}
	return registry.Global().Build(configs, deps, logger)
}

// rootContextWithSignals cancels the root context on SIGINT or SIGTERM. A
// second signal kills the process the normal way.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-ch:
			logx.New().Warn("signal received, shutting down", "signal", sig.String())
			cancel()
			signal.Stop(ch)
		case <-ctx.Done():
			signal.Stop(ch)
		}
	}()

	return ctx, cancel
}
