package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/app"
	"github.com/JakeFAU/inat-harvester/internal/config"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/pipeline"
	pkgconfig "github.com/JakeFAU/inat-harvester/pkg/config"
)

// harvester is what the fetch command needs from the application.
type harvester interface {
	Run(ctx context.Context) (pipeline.Result, error)
	PhotosDir() string
	Close() error
}

// newApp is the application factory. It is a variable so tests can swap in
// a fake harvester.
var newApp = func(cfg config.Config, logger *zap.Logger) (harvester, error) {
	return app.New(cfg, logger, app.Options{})
}

// newFetchCmd creates the 'fetch' subcommand that performs a harvest.
func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch observations and photos and write the export",
		Example: `  inat-harvester fetch --species "Phycodurus eques" --days 14
  inat-harvester fetch --species "Phycodurus eques,Phyllopteryx taeniolatus" --place "South Australia" --format html`,
		Args: cobra.NoArgs,
		RunE: runFetchCommand,
	}

	flags := cmd.Flags()
	flags.StringSliceP("species", "s", nil, "species names to download (repeat or comma-separate)")
	flags.IntP("days", "d", 30, "number of days to look back")
	flags.StringP("output", "o", "./inat_data", "output directory for the export and photos")
	flags.Float64("rate-limit", 1.0, "minimum seconds between API calls")
	flags.String("format", string(config.FormatCSV), "export format: csv or html")
	flags.String("place", "", "restrict observations to a place, e.g. \"South Australia\"")
	flags.String("location-id", "", "location identifier copied into every record")
	flags.String("submitter-id", "", "submitter identifier copied into every record")
	flags.Bool("social-split", false, "split multi-photo observations into one row per photo")
	return cmd
}

func runFetchCommand(cmd *cobra.Command, _ []string) error {
	v, used, err := pkgconfig.NewViper(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		return err
	}
	if used != "" {
		logger.Info("using config file", zap.String("path", used))
	}

	h, err := newApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			logger.Warn("failed to close application services", zap.Error(cerr))
		}
	}()

	result, err := h.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errInterrupted
		}
		return fmt.Errorf("run harvest: %w", err)
	}

	renderSummary(cmd.OutOrStdout(), result, h.PhotosDir())
	return nil
}
