// Package nft looks up the tokens a wallet owns through an external indexing provider.
package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"capstone-nft/apperrors"
	"capstone-nft/config"

	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// Tokens is the response of a wallet lookup. Items are passed through as
// the provider sent them.
type Tokens struct {
	Tokens []json.RawMessage `json:"tokens"`
}

// Lookup finds the NFTs held by a wallet address.
type Lookup interface {
	WalletNFTs(ctx context.Context, address string) (*Tokens, error)
}

// Client calls the provider's wallet NFT endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	chain      string
	logger     *zap.Logger
}

var _ Lookup = (*Client)(nil)

// NewClient builds a Client from cfg. A nil httpClient gets one with the
// configured timeout.
func NewClient(cfg config.NFTConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		chain:      cfg.Chain,
		logger:     logger.Named("nft"),
	}
}

type providerResponse struct {
	Result *[]json.RawMessage `json:"result"`
}

func (c *Client) WalletNFTs(ctx context.Context, address string) (*Tokens, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewFieldValidation(map[string][]string{"address": {"This field is required."}})
	}

	endpoint := fmt.Sprintf("%s/api/v2/%s/nft", c.baseURL, url.PathEscape(address))
	query := url.Values{}
	query.Set("chain", c.chain)
	query.Set("format", "decimal")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewInternal("build provider request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewUpstreamTimeout("NFT provider timed out", err)
		}
		return nil, apperrors.NewUpstream("NFT provider request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, apperrors.NewUpstreamTimeout("NFT provider timed out", err)
		}
		return nil, apperrors.NewUpstream("read NFT provider response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider returned error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("address", address),
		)
		return nil, apperrors.NewUpstream(fmt.Sprintf("NFT provider returned status %d", resp.StatusCode), nil)
	}

	var decoded providerResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.NewUpstream("decode NFT provider response", err)
	}
	if decoded.Result == nil {
		return nil, apperrors.NewUpstream("NFT provider response has no result", nil)
	}

	tokens := *decoded.Result
	if tokens == nil {
		tokens = []json.RawMessage{}
	}
	return &Tokens{Tokens: tokens}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
