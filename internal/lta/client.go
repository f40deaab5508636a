// Package lta talks to the LTA Datamall REST API and normalizes its
// inconsistently shaped JSON feeds into the canonical alert/crowd/bus model.
package lta

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"smarttravel/internal/config"

	"github.com/imroc/req/v3"
	"golang.org/x/time/rate"
)

const sourceName = "LTA Datamall"

// Client issues authenticated requests against the Datamall API.
type Client struct {
	http       *req.Client
	limiter    *rate.Limiter
	base       string
	accountKey string
	logger     *log.Logger
}

func NewClient(cfg config.UpstreamConfig, limiter *rate.Limiter, logger *log.Logger) *Client {
	httpClient := req.C().
		SetTimeout(cfg.Timeout).
		SetCommonHeader("accept", "application/json")

	return &Client{
		http:       httpClient,
		limiter:    limiter,
		base:       cfg.LTABase,
		accountKey: cfg.LTAAccountKey,
		logger:     logger,
	}
}

// HasKey reports whether an account key is configured. Fetchers degrade to
// synthetic results when it is not.
func (c *Client) HasKey() bool {
	return c.accountKey != ""
}

// get performs a single GET against the Datamall API and returns the raw
// status and body. A non-nil error means the request never produced a
// response (transport failure, timeout, cancelled context).
func (c *Client) get(ctx context.Context, path string, params map[string]string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader("AccountKey", c.accountKey)
	if len(params) > 0 {
		r.SetQueryParams(params)
	}

	resp, err := r.Get(c.base + path)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	return resp.StatusCode, resp.Bytes(), nil
}

// ok reports a 200 response.
func ok(status int) bool {
	return status == http.StatusOK
}
