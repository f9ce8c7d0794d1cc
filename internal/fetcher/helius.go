package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// heliusAsset is the subset of the getAsset result we use.
type heliusAsset struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Name        string `json:"name"`
			Symbol      string `json:"symbol"`
			Description string `json:"description"`
		} `json:"metadata"`
		Links struct {
			Image string `json:"image"`
		} `json:"links"`
	} `json:"content"`
	Authorities []struct {
		Address string   `json:"address"`
		Scopes  []string `json:"scopes"`
	} `json:"authorities"`
	TokenInfo struct {
		Supply          float64 `json:"supply"`
		Decimals        int     `json:"decimals"`
		MintAuthority   string  `json:"mint_authority"`
		FreezeAuthority string  `json:"freeze_authority"`
	} `json:"token_info"`
}

type tokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       int      `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// ui returns the human-readable amount, preferring the string form.
func (t tokenAmount) ui() float64 {
	if t.UIAmountString != "" {
		if v, err := strconv.ParseFloat(t.UIAmountString, 64); err == nil {
			return v
		}
	}
	if t.UIAmount != nil {
		return *t.UIAmount
	}
	return 0
}

type largestAccount struct {
	Address string `json:"address"`
	tokenAmount
}

// heliusTransaction is one entry of the enhanced transactions API.
type heliusTransaction struct {
	Signature      string           `json:"signature"`
	Slot           uint64           `json:"slot"`
	Timestamp      int64            `json:"timestamp"`
	Type           string           `json:"type"`
	FeePayer       string           `json:"feePayer"`
	TokenTransfers []heliusTransfer `json:"tokenTransfers"`
}

type heliusTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// GetTokenInfo fetches the mint metadata via getAsset.
func (c *Client) GetTokenInfo(ctx context.Context, mint string) (models.TokenInfo, error) {
	var asset heliusAsset
	if err := c.rpc(ctx, "getAsset", map[string]string{"id": mint}, &asset); err != nil {
		return models.TokenInfo{}, fmt.Errorf("failed to fetch token info: %w", err)
	}

	hasMint := asset.TokenInfo.MintAuthority != ""
	for _, a := range asset.Authorities {
		for _, s := range a.Scopes {
			if s == "mint" {
				hasMint = true
			}
		}
	}

	info := models.TokenInfo{
		Address:                mint,
		Name:                   asset.Content.Metadata.Name,
		Symbol:                 asset.Content.Metadata.Symbol,
		Decimals:               asset.TokenInfo.Decimals,
		Supply:                 asset.TokenInfo.Supply,
		MintAuthorityRevoked:   !hasMint,
		FreezeAuthorityRevoked: asset.TokenInfo.FreezeAuthority == "",
		Description:            asset.Content.Metadata.Description,
		Image:                  asset.Content.Links.Image,
	}
	if info.Name == "" {
		info.Name = "Unknown"
	}
	if info.Symbol == "" {
		info.Symbol = "???"
	}
	return info, nil
}

// GetTokenSupply returns the UI supply of the mint.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (float64, error) {
	var res struct {
		Value tokenAmount `json:"value"`
	}
	if err := c.rpc(ctx, "getTokenSupply", []string{mint}, &res); err != nil {
		return 0, fmt.Errorf("failed to fetch token supply: %w", err)
	}
	return res.Value.ui(), nil
}

// GetLargestHolders returns the largest token accounts with their share of
// supply, largest first.
func (c *Client) GetLargestHolders(ctx context.Context, mint string) ([]models.Holder, error) {
	supply, err := c.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, err
	}

	var res struct {
		Value []largestAccount `json:"value"`
	}
	if err := c.rpc(ctx, "getTokenLargestAccounts", []string{mint}, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch largest accounts: %w", err)
	}

	holders := make([]models.Holder, 0, len(res.Value))
	for _, acct := range res.Value {
		amount := acct.ui()
		pct := 0.0
		if supply > 0 {
			pct = math.Round(amount/supply*100*10000) / 10000
		}
		holders = append(holders, models.Holder{Address: acct.Address, Amount: amount, Percentage: pct})
	}
	sort.SliceStable(holders, func(i, j int) bool { return holders[i].Amount > holders[j].Amount })
	return holders, nil
}

// GetSwaps fetches recent SWAP transactions touching the mint and converts
// them into buys and sells from the fee payer's point of view.
func (c *Client) GetSwaps(ctx context.Context, mint string) ([]models.Transaction, error) {
	q := url.Values{}
	q.Set("api-key", c.cfg.HeliusAPIKey)
	q.Set("limit", strconv.Itoa(c.cfg.TransactionLimit))
	q.Set("type", "SWAP")
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.cfg.HeliusAPIURL, url.PathEscape(mint), q.Encode())

	var raw []heliusTransaction
	if err := c.getJSON(ctx, endpoint, nil, &raw); err != nil {
		if errors.Is(err, errNotFound) {
			return []models.Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return parseSwaps(raw, mint), nil
}

// parseSwaps keeps the transfers of mint in each transaction. Tokens
// received by the fee payer make a buy, tokens sent by it make a sell, and
// a swap that nets to zero is skipped.
// Records with missing fields are passed through; the analysis stages
// reject and report them.
func parseSwaps(raw []heliusTransaction, mint string) []models.Transaction {
	out := make([]models.Transaction, 0, len(raw))
	skipped := 0
	for _, ht := range raw {
		var bought, sold float64
		var buyFrom, sellTo []string
		for _, tr := range ht.TokenTransfers {
			if tr.Mint != mint {
				continue
			}
			switch {
			case ht.FeePayer != "" && tr.ToUserAccount == ht.FeePayer:
				bought += tr.TokenAmount
				buyFrom = appendUnique(buyFrom, tr.FromUserAccount)
			case ht.FeePayer != "" && tr.FromUserAccount == ht.FeePayer:
				sold += tr.TokenAmount
				sellTo = appendUnique(sellTo, tr.ToUserAccount)
			case ht.FeePayer == "":
				// Unattributable; keep it so it is reported as malformed.
				bought += tr.TokenAmount
			}
		}

		tx := models.Transaction{
			Signature: ht.Signature,
			Wallet:    ht.FeePayer,
			Block:     ht.Slot,
		}
		if ht.Timestamp > 0 {
			tx.Timestamp = time.Unix(ht.Timestamp, 0).UTC()
		}
		switch {
		case bought > sold:
			tx.Direction = models.DirectionBuy
			tx.Amount = bought - sold
			tx.Counterparties = buyFrom
		case sold > bought:
			tx.Direction = models.DirectionSell
			tx.Amount = sold - bought
			tx.Counterparties = sellTo
		default:
			skipped++
			continue
		}
		out = append(out, tx)
	}
	logger.Debug("parseSwaps: raw=%d parsed=%d without_net_transfer=%d", len(raw), len(out), skipped)
	return out
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
