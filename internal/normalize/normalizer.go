// Package normalize turns raw observations into flat export records,
// downloading each observation's photos along the way.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/photos"
)

// DefaultSiteURL prefixes canonical observation URLs.
const DefaultSiteURL = "https://www.inaturalist.org"

// PhotoAcquirer stores one photo under a filename.
type PhotoAcquirer interface {
	Acquire(ctx context.Context, photoURL, filename string) (photos.Result, error)
}

// Config wires a Normalizer. LocationID and SubmitterID are copied into
// every record.
type Config struct {
	Photos      PhotoAcquirer
	IDs         harvest.IDGenerator
	Clock       harvest.Clock
	SiteURL     string
	LocationID  string
	SubmitterID string
	SocialSplit bool
	Logger      *zap.Logger
}

// Normalizer converts observations into records.
type Normalizer struct {
	cfg    Config
	logger *zap.Logger
}

// New validates cfg and returns a Normalizer.
func New(cfg Config) (*Normalizer, error) {
	if cfg.Photos == nil {
		return nil, errors.New("normalizer requires a photo acquirer")
	}
	if cfg.IDs == nil {
		return nil, errors.New("normalizer requires an id generator")
	}
	if cfg.Clock == nil {
		return nil, errors.New("normalizer requires a clock")
	}
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	return &Normalizer{cfg: cfg, logger: logging.OrNop(cfg.Logger)}, nil
}

// ObservationURL is the canonical page of an observation.
func (n *Normalizer) ObservationURL(id int64) string {
	return n.cfg.SiteURL + "/observations/" + strconv.FormatInt(id, 10)
}

// NormalizeAll normalizes observations in order. species is the name the
// observations were requested under.
func (n *Normalizer) NormalizeAll(ctx context.Context, observations []harvest.Observation, species string) ([]harvest.Record, error) {
	records := make([]harvest.Record, 0, len(observations))
	for i, obs := range observations {
		if len(obs.Photos) > 0 {
			n.logger.Info("processing observation",
				zap.Int("index", i+1),
				zap.Int("of", len(observations)),
				zap.Int64("observation_id", obs.ID),
				zap.Int("photos", len(obs.Photos)))
		}
		rows, err := n.Normalize(ctx, obs, species)
		if err != nil {
			return records, err
		}
		records = append(records, rows...)
	}
	return records, nil
}

// Normalize produces the records for one observation. Photos that cannot be
// acquired are left out; only cancellation and id generation fail the call.
func (n *Normalizer) Normalize(ctx context.Context, obs harvest.Observation, species string) ([]harvest.Record, error) {
	base := n.baseRecord(obs, species)
	class := Classify(obs.Annotations)
	base.LivingStatus = class.LivingStatus
	base.NonOrganismEvidence = class.NonOrganismEvidence
	base.ExcludedProject = InExcludedProject(obs.ProjectIDs)

	filenames, licenses, err := n.acquirePhotos(ctx, obs)
	if err != nil {
		return nil, err
	}
	base.Comment = Comment(n.cfg.Clock.Now(), base.URL, licenses)

	if n.cfg.SocialSplit && len(filenames) > 1 && !class.SingleSubject {
		sightingID, err := n.cfg.IDs.NewID()
		if err != nil {
			return nil, fmt.Errorf("sighting id for observation %d: %w", obs.ID, err)
		}
		rows := make([]harvest.Record, len(filenames))
		for i := range filenames {
			row := base
			row.SightingID = sightingID
			row.Photos = []string{filenames[i]}
			row.Licenses = []string{licenses[i]}
			rows[i] = row
		}
		return rows, nil
	}

	if n.cfg.SocialSplit && len(filenames) > 0 {
		sightingID, err := n.cfg.IDs.NewID()
		if err != nil {
			return nil, fmt.Errorf("sighting id for observation %d: %w", obs.ID, err)
		}
		base.SightingID = sightingID
	}
	base.Photos = filenames
	base.Licenses = licenses
	return []harvest.Record{base}, nil
}

func (n *Normalizer) baseRecord(obs harvest.Observation, species string) harvest.Record {
	observedOn := obs.ObservedOn
	if observedOn == "" {
		observedOn = Unknown
	}
	year, month, day := SplitDate(observedOn)

	scientificName, commonName := species, ""
	if obs.Taxon != nil {
		if obs.Taxon.Name != "" {
			scientificName = obs.Taxon.Name
		}
		commonName = obs.Taxon.PreferredCommonName
	}
	genus, epithet := SplitName(scientificName)

	observer := Unknown
	if obs.User != nil && obs.User.Login != "" {
		observer = obs.User.Login
	}
	quality := obs.QualityGrade
	if quality == "" {
		quality = Unknown
	}
	lat, lon := Location(obs)

	return harvest.Record{
		ObservationID:    obs.ID,
		ObservedOn:       observedOn,
		Year:             year,
		Month:            month,
		Day:              day,
		ScientificName:   scientificName,
		Genus:            genus,
		SpecificEpithet:  epithet,
		CommonName:       commonName,
		Latitude:         lat,
		Longitude:        lon,
		VerbatimLocality: obs.PlaceGuess,
		LocationID:       n.cfg.LocationID,
		SubmitterID:      n.cfg.SubmitterID,
		State:            harvest.ReviewStateUnapproved,
		Observer:         observer,
		QualityGrade:     quality,
		URL:              n.ObservationURL(obs.ID),
	}
}

// acquirePhotos returns the filenames and license codes of the photos that
// were stored, in encounter order.
func (n *Normalizer) acquirePhotos(ctx context.Context, obs harvest.Observation) ([]string, []string, error) {
	filenames := make([]string, 0, len(obs.Photos))
	licenses := make([]string, 0, len(obs.Photos))
	for i, photo := range obs.Photos {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if photo.URL == "" {
			n.logger.Warn("photo has no url", zap.Int64("observation_id", obs.ID), zap.Int64("photo_id", photo.ID))
			continue
		}
		photoURL := photos.UpgradeURL(photo.URL)
		filename := photos.Filename(obs.ID, i+1, photoURL)
		res, err := n.cfg.Photos.Acquire(ctx, photoURL, filename)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			n.logger.Warn("skipping photo",
				zap.Int64("observation_id", obs.ID),
				zap.String("filename", filename),
				zap.Error(err))
			continue
		}
		filenames = append(filenames, res.Filename)
		licenses = append(licenses, photo.LicenseCode)
	}
	return filenames, licenses, nil
}

