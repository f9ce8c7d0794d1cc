package fetcher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// GetAll fetches every input of the analysis concurrently. Only the token
// metadata is required; holders, swaps and the RugCheck report degrade to
// empty data with a logged warning.
func (c *Client) GetAll(ctx context.Context, mint string) (models.Snapshot, error) {
	snap := models.Snapshot{
		TokenAddress: mint,
		Holders:      []models.Holder{},
		Transactions: []models.Transaction{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		info, err := c.GetTokenInfo(gctx, mint)
		if err != nil {
			return err
		}
		snap.Token = info
		return nil
	})
	g.Go(func() error {
		holders, err := c.GetLargestHolders(gctx, mint)
		if err != nil {
			logger.Warn("holders unavailable for %s: %v", mint, err)
			return nil
		}
		snap.Holders = holders
		return nil
	})
	g.Go(func() error {
		txs, err := c.GetSwaps(gctx, mint)
		if err != nil {
			logger.Warn("transactions unavailable for %s: %v", mint, err)
			return nil
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		report, err := c.GetRugCheckReport(gctx, mint)
		if err != nil {
			logger.Warn("rugcheck unavailable for %s: %v", mint, err)
			return nil
		}
		if report == nil {
			logger.Info("rugcheck has no report for %s", mint)
		}
		snap.External = report
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch %s: %w", mint, err)
	}
	snap.FetchedAt = time.Now().UTC()

	logger.Info("Fetched %s: holders=%d transactions=%d rugcheck=%t",
		mint, len(snap.Holders), len(snap.Transactions), snap.External != nil)
	return snap, nil
}
