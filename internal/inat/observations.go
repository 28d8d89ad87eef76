package inat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

// PageSize is the number of observations requested per page.
const PageSize = 200

// ObservationQuery selects observations for one taxon.
type ObservationQuery struct {
	TaxonID int64
	// PlaceID restricts results to a place when non-zero.
	PlaceID int64
	Window  Window
}

func (q ObservationQuery) params(page int) url.Values {
	params := url.Values{}
	params.Set("taxon_id", strconv.FormatInt(q.TaxonID, 10))
	if q.PlaceID != 0 {
		params.Set("place_id", strconv.FormatInt(q.PlaceID, 10))
	}
	params.Set("d1", q.Window.D1())
	params.Set("d2", q.Window.D2())
	params.Set("photos", "true")
	params.Set("quality_grade", "any")
	params.Set("per_page", strconv.Itoa(PageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("order_by", "observed_on")
	return params
}

type observationsResponse struct {
	TotalResults int                   `json:"total_results"`
	Page         int                   `json:"page"`
	PerPage      int                   `json:"per_page"`
	Results      []harvest.Observation `json:"results"`
}

// FetchObservations pages through the observation search until a page is
// empty or the reported total has been accumulated. When a page fails the
// observations gathered so far are returned together with the error.
func (c *Client) FetchObservations(ctx context.Context, q ObservationQuery) ([]harvest.Observation, error) {
	if q.TaxonID == 0 {
		return nil, errors.New("observation query requires a taxon id")
	}
	logger := c.logger.With(zap.Int64("taxon_id", q.TaxonID))
	logger.Info("fetching observations",
		zap.String("d1", q.Window.D1()),
		zap.String("d2", q.Window.D2()),
		zap.Int64("place_id", q.PlaceID))

	var all []harvest.Observation
	for page := 1; ; page++ {
		var resp observationsResponse
		if err := c.getJSON(ctx, "observations", q.params(page), &resp); err != nil {
			logger.Warn("observation page failed", zap.Int("page", page), zap.Error(err))
			return all, fmt.Errorf("fetch observations page %d: %w", page, err)
		}
		if len(resp.Results) == 0 {
			break
		}
		all = append(all, resp.Results...)
		logger.Info("observation page", zap.Int("page", page), zap.Int("observations", len(resp.Results)))
		if len(all) >= resp.TotalResults {
			break
		}
	}

	logger.Info("observations fetched", zap.Int("total", len(all)))
	return all, nil
}
