package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"PhoneSync/internal/app"
	"PhoneSync/internal/config"
	"PhoneSync/internal/domain"
	"PhoneSync/internal/logging"
)

// BuildCLI assembles the phonesync command tree. Every subcommand maps
// onto one Integration facade method; cobra surfaces returned errors as a
// non-zero exit code.
func BuildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:           "phonesync",
		Short:         "Synchronize the phone catalog with external data providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newFullCommand(),
		newSourceCommand(),
		newPhoneCommand(),
		newStatusCommand(),
		newListCommand(),
		newClearCacheCommand(),
		newTestConnectionsCommand(),
		newServeCommand(),
	)
	return root
}

func buildApp() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

func newFullCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run a full specification and price sync",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			application.Sync.SetDryRun(dryRun)
			jobs, err := application.Integration.PerformFullSync(cmd.Context())
			if err != nil {
				return err
			}

			for _, job := range jobs {
				printJob(cmd, job)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "process records without writing to the catalog")
	return cmd
}

func newSourceCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "source <gsmarena|priceTracking>",
		Short:     "Sync a single data source",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.SourceGSMArena), string(domain.SourcePriceTracking)},
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			job, err := application.Integration.SyncSource(cmd.Context(), domain.Source(args[0]))
			if err != nil {
				return err
			}
			printJob(cmd, job)
			return nil
		},
	}
}

func newPhoneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "phone <id>",
		Short: "Resync one phone's specifications and prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			ok, err := application.Integration.SyncPhoneData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("phone %s not found or no fresh data available", args[0])
			}
			cmd.Printf("phone %s refreshed\n", args[0])
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	var detailed bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health, metrics, and recent sync jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			report := application.Integration.HealthStatus()
			cmd.Printf("health: %s\n", report.Status)
			for _, issue := range report.Issues {
				cmd.Printf("  issue: %s\n", issue)
			}
			for _, rec := range report.Recommendations {
				cmd.Printf("  recommendation: %s\n", rec)
			}

			metrics := application.Integration.Metrics()
			cmd.Printf("syncs: %d total, %d ok, %d failed\n",
				metrics.TotalSyncs, metrics.SuccessfulSyncs, metrics.FailedSyncs)
			cmd.Printf("api: %d requests, %d errors, %d rate limits, %d fallbacks\n",
				metrics.APIRequests, metrics.APIErrors, metrics.RateLimitHits, metrics.FallbackActivations)
			if !metrics.LastSyncTime.IsZero() {
				cmd.Printf("last sync: %s (avg duration %s)\n", metrics.LastSyncTime, metrics.AverageDuration)
			}

			if detailed {
				for _, evt := range application.Integration.RecentEvents(24) {
					cmd.Printf("  %s %-22s %-13s %s\n",
						evt.Timestamp.Format("15:04:05"), evt.Type, evt.Source, evt.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include the last 24h of monitoring events")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <brand>...",
		Short: "List catalog phones for one or more brands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			phones, err := application.Catalog.PhonesByBrands(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, phone := range phones {
				cmd.Printf("%-36s %-12s %-24s active=%t\n", phone.ID, phone.Brand, phone.Model, phone.Active)
			}
			cmd.Printf("%d phones\n", len(phones))
			return nil
		},
	}
}

func newClearCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop all cached fallback entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			if err := application.Integration.ClearCache(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("cache cleared")
			return nil
		},
	}
}

func newTestConnectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connections",
		Short: "Probe both upstream providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			failed := false
			for source, probeErr := range application.Integration.TestConnections(cmd.Context()) {
				if probeErr != nil {
					failed = true
					cmd.Printf("%-13s FAIL %v\n", source, probeErr)
				} else {
					cmd.Printf("%-13s OK\n", source)
				}
			}
			if failed {
				return fmt.Errorf("one or more providers unreachable")
			}
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run automatic periodic sync until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			defer application.Close(ctx)

			go func() {
				if err := application.ServeMetrics(); err != nil {
					application.Logger.Error("metrics server stopped", "error", err)
				}
			}()

			if err := application.Integration.StartAutomaticSync(ctx); err != nil {
				return err
			}
			application.Logger.Info("automatic sync armed")

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			<-signals

			application.Logger.Info("shutting down")
			return application.Integration.StopAutomaticSync(ctx)
		},
	}
}

func printJob(cmd *cobra.Command, job domain.SyncJob) {
	cmd.Printf("job %s source=%s status=%s processed=%d created=%d updated=%d errors=%d\n",
		job.ID, job.Source, job.Status,
		job.RecordsProcessed, job.RecordsCreated, job.RecordsUpdated, len(job.Errors))
	for _, msg := range job.Errors {
		cmd.Printf("  error: %s\n", msg)
	}
}
