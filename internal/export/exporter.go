package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/config"
	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/metrics"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no records to export")

// FilenameTimeLayout stamps export filenames.
const FilenameTimeLayout = "20060102_150405"

// Filename is the export file name for format at the current time of clock.
func Filename(format config.Format, clock harvest.Clock) string {
	return "inat_observations_" + clock.Now().Format(FilenameTimeLayout) + "." + format.Extension()
}

// Config wires an Exporter.
type Config struct {
	// Store is rooted at the output directory.
	Store harvest.BlobStore
	Clock harvest.Clock
	// PhotoDir is the photo directory relative to the output directory.
	PhotoDir string
	Logger   *zap.Logger
}

// Exporter writes a Table into the output directory in one format.
type Exporter struct {
	cfg    Config
	logger *zap.Logger
}

// NewExporter validates cfg and returns an Exporter.
func NewExporter(cfg Config) (*Exporter, error) {
	if cfg.Store == nil {
		return nil, errors.New("exporter requires a blob store")
	}
	if cfg.Clock == nil {
		return nil, errors.New("exporter requires a clock")
	}
	if cfg.PhotoDir == "" {
		cfg.PhotoDir = "photos"
	}
	return &Exporter{cfg: cfg, logger: logging.OrNop(cfg.Logger)}, nil
}

// Export renders records and stores the file, returning where it was written.
// With no records nothing is written and ErrNoRecords is returned.
func (e *Exporter) Export(ctx context.Context, format config.Format, records []harvest.Record) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	table := NewTable(records)
	name := Filename(format, e.cfg.Clock)

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	switch format {
	case config.FormatCSV:
		if err := WriteCSV(&buf, table); err != nil {
			return "", err
		}
	case config.FormatHTML:
		contentType = "text/html; charset=utf-8"
		err := WriteHTML(&buf, table, HTMLOptions{
			GeneratedAt: e.cfg.Clock.Now(),
			PhotoDir:    e.cfg.PhotoDir,
			CSVFilename: Filename(config.FormatCSV, e.cfg.Clock),
		})
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	path, err := e.cfg.Store.PutObject(ctx, name, contentType, &buf)
	if err != nil {
		return "", fmt.Errorf("write export %s: %w", name, err)
	}
	metrics.ObserveExport(string(format), len(records))
	e.logger.Info("export written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
		zap.Int("max_photos", table.MaxPhotos))
	return path, nil
}
