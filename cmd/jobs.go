package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-upi-payments/app/service"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
)

var (
	workerMode bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Run backend subscription record commands",
}

var recordsDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Submit successful payment attempts to the backend subscription API",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"records_dispatch",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.RecordDispatchInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				return s.RunDispatchRecordsBatch(ctx)
			},
		)
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run expiration-related commands",
}

var expirePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Mark payment attempts without a signal or manual reference as expired",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_pending",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpirePendingInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				return s.RunExpirePendingBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(expireCmd)
	recordsCmd.AddCommand(recordsDispatchCmd)
	expireCmd.AddCommand(expirePendingCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.PaymentService, ctx context.Context) error,
) {
	app, cleanup := mustCreateApplication()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := func() error { return fn(app.paymentService, ctx) }
	if workerMode {
		runWorker(ctx, name, intervalResolver(app.cfg), job)
		return
	}
	runJob(name, job)
}

// runWorker runs job immediately and then on every tick until ctx ends.
func runWorker(ctx context.Context, name string, interval time.Duration, job func() error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runJob(name, job)
	for {
		select {
		case <-ctx.Done():
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, job)
		}
	}
}

func runJob(name string, job func() error) {
	start := time.Now()
	err := job()
	entry := logrus.WithFields(logrus.Fields{
		"job":     name,
		"latency": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("job_failed")
		return
	}
	entry.Info("job_completed")
}
