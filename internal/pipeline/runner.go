// Package pipeline runs one harvest: resolve names, fetch observations,
// normalize them into records and export the accumulated table once.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/config"
	"github.com/JakeFAU/inat-harvester/internal/export"
	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/inat"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/metrics"
)

// ErrPlaceNotResolved aborts a run whose place filter matched nothing.
var ErrPlaceNotResolved = errors.New("place filter could not be resolved")

// Source is the read side of the observation API.
type Source interface {
	SearchTaxon(ctx context.Context, name string) (harvest.Taxon, error)
	ResolvePlace(ctx context.Context, name string) (harvest.Place, error)
	FetchObservations(ctx context.Context, q inat.ObservationQuery) ([]harvest.Observation, error)
}

// Normalizer turns observations into records.
type Normalizer interface {
	NormalizeAll(ctx context.Context, observations []harvest.Observation, species string) ([]harvest.Record, error)
}

// Exporter writes the final table.
type Exporter interface {
	Export(ctx context.Context, format config.Format, records []harvest.Record) (string, error)
}

// Outcome is how a run that did not fail ended.
type Outcome int

// Run outcomes.
const (
	OutcomeExported Outcome = iota
	OutcomeNothingFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExported:
		return "exported"
	case OutcomeNothingFound:
		return "nothing found"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// SpeciesSummary reports what happened to one requested species.
type SpeciesSummary struct {
	Species      string
	Taxon        harvest.Taxon
	Found        bool
	Observations int
	Records      int
	// Err is set when the species was skipped or its pages were cut short.
	Err error
}

// Result summarizes a completed run.
type Result struct {
	Outcome Outcome
	Path    string
	Window  inat.Window
	Place   *harvest.Place
	Species []SpeciesSummary
	Records int
}

// Config wires a Runner.
type Config struct {
	Species []string
	Days    int
	Place   string
	Format  config.Format

	Source     Source
	Normalizer Normalizer
	Exporter   Exporter
	Clock      harvest.Clock
	Logger     *zap.Logger
}

// Runner executes harvests.
type Runner struct {
	cfg    Config
	logger *zap.Logger
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config) (*Runner, error) {
	switch {
	case len(cfg.Species) == 0:
		return nil, errors.New("runner requires at least one species")
	case cfg.Days < 1:
		return nil, errors.New("runner requires days >= 1")
	case cfg.Source == nil:
		return nil, errors.New("runner requires a source")
	case cfg.Normalizer == nil:
		return nil, errors.New("runner requires a normalizer")
	case cfg.Exporter == nil:
		return nil, errors.New("runner requires an exporter")
	case cfg.Clock == nil:
		return nil, errors.New("runner requires a clock")
	}
	return &Runner{cfg: cfg, logger: logging.OrNop(cfg.Logger)}, nil
}

// Run performs the harvest. Per-species failures are absorbed into the
// summary; an unresolvable place filter and cancellation are returned.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	result := Result{Window: inat.NewWindow(r.cfg.Clock.Now(), r.cfg.Days)}
	r.logger.Info("starting harvest",
		zap.Strings("species", r.cfg.Species),
		zap.Int("days", r.cfg.Days),
		zap.String("window", result.Window.String()),
		zap.String("place", r.cfg.Place),
		zap.String("format", string(r.cfg.Format)))

	query := inat.ObservationQuery{Window: result.Window}
	if r.cfg.Place != "" {
		place, err := r.cfg.Source.ResolvePlace(ctx, r.cfg.Place)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			return result, fmt.Errorf("%w: %q: %w", ErrPlaceNotResolved, r.cfg.Place, err)
		}
		result.Place = &place
		query.PlaceID = place.ID
	}

	var records []harvest.Record
	for _, species := range r.cfg.Species {
		summary, rows, err := r.harvestSpecies(ctx, species, query)
		result.Species = append(result.Species, summary)
		if err != nil {
			return result, err
		}
		records = append(records, rows...)
	}
	result.Records = len(records)

	if len(records) == 0 {
		r.logger.Info("no observations found for any species")
		result.Outcome = OutcomeNothingFound
		return result, nil
	}

	path, err := r.cfg.Exporter.Export(ctx, r.cfg.Format, records)
	if err != nil {
		if errors.Is(err, export.ErrNoRecords) {
			result.Outcome = OutcomeNothingFound
			return result, nil
		}
		return result, fmt.Errorf("export: %w", err)
	}
	result.Outcome = OutcomeExported
	result.Path = path
	return result, nil
}

// harvestSpecies returns an error only when the run must stop.
func (r *Runner) harvestSpecies(ctx context.Context, species string, query inat.ObservationQuery) (SpeciesSummary, []harvest.Record, error) {
	summary := SpeciesSummary{Species: species}
	logger := r.logger.With(zap.String("species", species))

	taxon, err := r.cfg.Source.SearchTaxon(ctx, species)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, nil, ctxErr
		}
		summary.Err = err
		if errors.Is(err, inat.ErrNotFound) {
			logger.Warn("species not found")
		} else {
			logger.Warn("species lookup failed", zap.Error(err))
		}
		return summary, nil, nil
	}
	summary.Taxon = taxon
	summary.Found = true

	query.TaxonID = taxon.ID
	observations, err := r.cfg.Source.FetchObservations(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, nil, ctxErr
		}
		summary.Err = err
		logger.Warn("keeping partial observations", zap.Int("observations", len(observations)), zap.Error(err))
	}
	summary.Observations = len(observations)
	metrics.ObserveObservations(metricsSpeciesLabel(species), len(observations))
	if len(observations) == 0 {
		logger.Info("no observations found")
		return summary, nil, nil
	}

	rows, err := r.cfg.Normalizer.NormalizeAll(ctx, observations, species)
	if err != nil {
		return summary, nil, fmt.Errorf("normalize %s: %w", species, err)
	}
	summary.Records = len(rows)
	logger.Info("species harvested",
		zap.Int64("taxon_id", taxon.ID),
		zap.Int("observations", len(observations)),
		zap.Int("records", len(rows)))
	return summary, rows, nil
}

func metricsSpeciesLabel(species string) string {
	return strings.ToLower(strings.Join(strings.Fields(species), "_"))
}
