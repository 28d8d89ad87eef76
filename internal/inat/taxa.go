package inat

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/inat-harvester/internal/harvest"
)

type taxaResponse struct {
	TotalResults int             `json:"total_results"`
	Results      []harvest.Taxon `json:"results"`
}

// SearchTaxon resolves a species name to its taxon using the first
// species-rank search result. It returns ErrNotFound when nothing matches.
func (c *Client) SearchTaxon(ctx context.Context, name string) (harvest.Taxon, error) {
	key := lookupKey("taxon", name)
	if cached, ok := c.lookups.Get(key); ok {
		if taxon, ok := cached.(harvest.Taxon); ok {
			return taxon, nil
		}
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("rank", "species")

	var resp taxaResponse
	if err := c.getJSON(ctx, "taxa", params, &resp); err != nil {
		return harvest.Taxon{}, fmt.Errorf("search taxon %q: %w", name, err)
	}
	if len(resp.Results) == 0 {
		return harvest.Taxon{}, fmt.Errorf("taxon %q: %w", name, ErrNotFound)
	}

	taxon := resp.Results[0]
	c.lookups.SetDefault(key, taxon)
	c.logger.Info("resolved taxon",
		zap.String("query", name),
		zap.String("name", taxon.DisplayName()),
		zap.Int64("taxon_id", taxon.ID))
	return taxon, nil
}
