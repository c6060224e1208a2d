package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yourusername/community-manager/internal/auth"
	"github.com/yourusername/community-manager/internal/batch"
	"github.com/yourusername/community-manager/internal/browser"
	"github.com/yourusername/community-manager/internal/config"
	"github.com/yourusername/community-manager/internal/logger"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/resolver"
	"github.com/yourusername/community-manager/internal/session"
	"github.com/yourusername/community-manager/internal/storage"
	st "github.com/yourusername/community-manager/internal/stealth"
)

const (
	AppVersion = "1.0.0"
)

// runOptions holds the command line overrides of the config file
type runOptions struct {
	configPath string
	input      string
	sheet      string
	limit      string
	fresh      bool
	headless   bool
}

func main() {
	var opts runOptions
	if err := newRootCmd(&opts).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "community-manager",
		Short:        "Add and remove WhatsApp community members from a spreadsheet",
		Version:      AppVersion,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.Flags())
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the YAML config (default: $CONFIG_PATH or ./config/config.yaml)")
	cmd.Flags().StringVar(&opts.input, "input", "", "Spreadsheet or CSV with the community records")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read from an XLSX input (default: first sheet)")
	cmd.Flags().StringVar(&opts.limit, "limit", "", "Records to process: all, sample or a positive number")
	cmd.Flags().BoolVar(&opts.fresh, "fresh", false, "Discard the saved session and log in with a new QR scan")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run Chrome without a window")

	return cmd
}

// apply copies the flags the user actually set over the file values
func (o *runOptions) apply(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("input") {
		cfg.Batch.InputPath = o.input
	}
	if flags.Changed("sheet") {
		cfg.Batch.Sheet = o.sheet
	}
	if flags.Changed("limit") {
		cfg.Batch.Limit = o.limit
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if o.fresh {
		cfg.Session.Reuse = auth.ReuseFresh
	}
}

func run(ctx context.Context, opts *runOptions, flags *pflag.FlagSet) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}
	opts.apply(cfg, flags)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return err
	}

	err = logger.Init(logger.Options{
		Level:    cfg.Logging.Level,
		ToFile:   cfg.Logging.ToFile,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}
	defer logger.Sync()

	displayBanner()
	logger.Info("Community manager started", "version", AppVersion)

	// Initialize database
	logger.Info("Initializing database...", "path", cfg.Database.Path)
	if err := storage.InitDB(cfg.Database.Path); err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return err
	}
	defer storage.Close()

	// Print database statistics
	stats, err := storage.GetStats()
	if err == nil {
		logger.Info("Database statistics",
			"total_runs", stats["total_runs"],
			"members_added", stats["members_added"],
			"members_removed", stats["members_removed"],
			"failed_operations", stats["failed_operations"],
			"operations_today", stats["operations_today"],
		)
	}

	recs, err := records.Load(cfg.Batch.InputPath, cfg.Batch.Sheet)
	if err != nil {
		logger.Error("Failed to read records", "input", cfg.Batch.InputPath, "error", err)
		return err
	}
	logger.Info("Records loaded", "input", cfg.Batch.InputPath, "records", len(recs))

	// The session mode is fixed before the browser touches the profile
	mode, err := auth.DecideMode(cfg.Session.Reuse, cfg.Session.ProfileDir)
	if err != nil {
		logger.Error("Invalid session policy", "error", err)
		return err
	}
	if mode == session.Fresh {
		if err := auth.ClearProfile(cfg.Session.ProfileDir); err != nil {
			logger.Error("Failed to clear saved session", "error", err)
			return err
		}
	}

	logger.Info("Launching browser with stealth mode...")
	b, err := browser.Launch(browser.Options{
		ProfileDir: cfg.Session.ProfileDir,
		Headless:   cfg.Browser.Headless,
		Bin:        cfg.Browser.Bin,
	})
	if err != nil {
		logger.Error("Failed to launch browser", "error", err)
		return err
	}
	defer b.Close()

	page, err := b.Open(ctx, cfg.WhatsApp.URL)
	if err != nil {
		logger.Error("Failed to open WhatsApp", "url", cfg.WhatsApp.URL, "error", err)
		return err
	}

	sess := newSession(cfg, page, mode)

	runID, err := storage.StartRun(mode.String(), cfg.Batch.InputPath, cfg.RecordLimit().String())
	if err != nil {
		logger.Error("Failed to start run ledger", "error", err)
		return err
	}

	orch := batch.New(sess,
		batch.WithPacing(batch.Pacing{
			MinContact: cfg.GetMinContactDelay(),
			MaxContact: cfg.GetMaxContactDelay(),
			Phase:      cfg.GetPhaseDelay(),
		}),
		batch.WithRecorder(storage.RunLedger{RunID: runID}),
		batch.WithReadyCheck(func(ctx context.Context) error {
			return auth.Establish(ctx, sess)
		}),
	)

	result, runErr := orch.Run(ctx, recs, cfg.RecordLimit())

	status := runStatus(runErr)
	if err := storage.FinishRun(runID, result, status); err != nil {
		logger.Warn("Failed to finish run ledger", "run_id", runID, "error", err)
	}

	printSummary(result, status)

	if runErr != nil {
		logger.Error("Batch stopped", "run_id", runID, "status", status, "error", runErr)
		return runErr
	}
	return nil
}

// runStatus maps the batch error to the ledger status. An interrupt stays an
// interrupt even when it surfaced through the session wait.
func runStatus(err error) string {
	switch {
	case err == nil:
		return storage.StatusCompleted
	case errors.Is(err, context.Canceled):
		return storage.StatusInterrupted
	default:
		return storage.StatusAborted
	}
}

// newSession assembles the session value the locator and state machines share
func newSession(cfg *config.Config, page *browser.Page, mode session.Mode) *session.Context {
	res := resolver.New(page, resolver.WithPollInterval(cfg.GetPollInterval()))
	sess := session.New(page, res, st.NewPacer())
	sess.Mode = mode
	sess.Timeouts = session.Timeouts{
		Step:   cfg.GetStepTimeout(),
		Verify: cfg.GetVerifyTimeout(),
		Load:   cfg.GetLoadTimeout(),
		Login:  cfg.GetLoginTimeout(),
	}
	sess.Phones = cfg.PhoneRule()
	sess.SnapshotDir = cfg.Browser.SnapshotDir
	return sess
}

func printSummary(s batch.Stats, status string) {
	fmt.Println()
	fmt.Println("==================== SUMMARY ====================")
	fmt.Printf("Members added:        %d\n", s.AddsSucceeded)
	fmt.Printf("Failed additions:     %d\n", s.AddsFailed)
	fmt.Printf("Members removed:      %d\n", s.RemovesSucceeded)
	fmt.Printf("Failed removals:      %d\n", s.RemovesFailed)
	fmt.Printf("Total processed:      %d\n", s.Total())
	fmt.Printf("Run status:           %s\n", status)
	fmt.Println("=================================================")
}

const banner = `
╔════════════════════════════════════════════════════════════════════════════╗
║                                                                            ║
║                     WHATSAPP COMMUNITY MEMBERSHIP MANAGER                  ║
║                                                                            ║
║  This tool drives WhatsApp Web with your own account. It adds and removes  ║
║  community members exactly as listed in the input file.                    ║
║                                                                            ║
║  Review the input before running. Removals cannot be undone by the tool.   ║
║                                                                            ║
╚════════════════════════════════════════════════════════════════════════════╝

Press Ctrl+C at any time to stop the batch.
`

// displayBanner reminds the operator what the tool does to their account
func displayBanner() {
	fmt.Print(banner + "\n")
}
