// docsink bulk-loads JSON records into a remote document store using the
// batched asynchronous write pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vortexlabs/docsink/pkg/config"
	"github.com/vortexlabs/docsink/pkg/docstore"
	"github.com/vortexlabs/docsink/pkg/logger"
	"github.com/vortexlabs/docsink/pkg/pipeline"
	"github.com/vortexlabs/docsink/pkg/record"
)

var version = "0.9.0"

func main() {
	// Load .env if present; env vars feed ${VAR} substitution in the config.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "docsink",
		Short:   "Batched document-store ingestion",
		Version: version,
	}

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run an ingestion job from a YAML job config",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobCfg, err := loadJobConfig(configPath)
			if err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:       jobCfg.Logging.Level,
				Development: jobCfg.Logging.Development,
				Encoding:    jobCfg.Logging.Encoding,
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runImport(ctx, jobCfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "job.yaml", "path to the job configuration file")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a job config and its store settings without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobCfg, err := loadJobConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := docstore.BuildTransportConfig(jobCfg.Store); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "job.yaml", "path to the job configuration file")
	return cmd
}

func loadJobConfig(path string) (*config.JobConfig, error) {
	jobCfg := config.NewJobConfig("")
	if err := config.Load(path, jobCfg); err != nil {
		return nil, err
	}
	if err := jobCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job config: %w", err)
	}
	return jobCfg, nil
}

func runImport(ctx context.Context, jobCfg *config.JobConfig) error {
	log := logger.With(zap.String("job", jobCfg.Name))

	source, err := os.Open(jobCfg.Import.Source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = source.Close() }()

	provider := docstore.NewProvider(jobCfg.Store)
	defer func() {
		if err := provider.Close(context.Background()); err != nil {
			log.Warn("failed to close store client", zap.Error(err))
		}
	}()

	writer, err := provider.Writer(ctx)
	if err != nil {
		return err
	}

	importer := pipeline.NewImporter(writer)
	opts := pipeline.Options{
		BatchSize:       jobCfg.Import.BatchSize,
		InterBatchDelay: jobCfg.Import.InterBatchDelay,
		RootField:       jobCfg.Import.RootField,
		Upsert:          jobCfg.Import.Upsert,
		RateLimitPerSec: jobCfg.Import.RateLimitPerSec,
	}

	log.Info("starting import",
		zap.String("source", jobCfg.Import.Source),
		zap.Int("batch_size", opts.BatchSize),
		zap.Duration("inter_batch_delay", opts.InterBatchDelay),
		zap.Bool("upsert", opts.Upsert))

	return importer.ImportBatch(ctx, record.NewJSONLinesIterator(source), opts)
}
