package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rewired-gh/tokenguard/internal/models"
)

type rugCheckReport struct {
	Score                *int    `json:"score"`
	TotalMarketLiquidity float64 `json:"totalMarketLiquidity"`
	Markets              []struct {
		Pubkey     string `json:"pubkey"`
		MarketType string `json:"marketType"`
	} `json:"markets"`
	Risks []struct {
		Name        string `json:"name"`
		Level       string `json:"level"`
		Description string `json:"description"`
	} `json:"risks"`
}

// GetRugCheckReport fetches the RugCheck report for the mint. A missing
// report is not an error: it returns nil. Without a RugCheck URL the lookup
// is disabled.
func (c *Client) GetRugCheckReport(ctx context.Context, mint string) (*models.ExternalReport, error) {
	if c.cfg.RugCheckURL == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/tokens/%s/report", c.cfg.RugCheckURL, url.PathEscape(mint))

	var header http.Header
	if c.cfg.RugCheckAPIKey != "" {
		header = http.Header{"Authorization": []string{"Bearer " + c.cfg.RugCheckAPIKey}}
	}

	var rc rugCheckReport
	if err := c.getJSON(ctx, endpoint, header, &rc); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch rugcheck report: %w", err)
	}

	report := &models.ExternalReport{
		Score:            rc.Score,
		LiquidityPresent: len(rc.Markets) > 0 || rc.TotalMarketLiquidity > 0,
	}
	for _, r := range rc.Risks {
		if r.Level != "" {
			report.Risks = append(report.Risks, fmt.Sprintf("%s (%s)", r.Name, r.Level))
		} else {
			report.Risks = append(report.Risks, r.Name)
		}
	}
	return report, nil
}
