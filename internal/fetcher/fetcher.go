// Package fetcher retrieves auction results from the TreasuryDirect search
// API using offset-based pagination, with an optional local JSON snapshot
// cache so repeated runs within the cache window skip the network entirely.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/guttosm/treasurypulse/config"
	"github.com/guttosm/treasurypulse/internal/logger"
)

// Record is one raw auction result as returned by the API. Field coercion is
// the pipeline's job; the fetcher hands records through untouched.
type Record = map[string]any

// searchResponse mirrors the relevant parts of the jqsearch response body.
type searchResponse struct {
	SecurityList      []Record `json:"securityList"`
	TotalResultsCount int      `json:"totalResultsCount"`
}

// Client pages through the TreasuryDirect securities search endpoint.
//
// Failure policy: a request error aborts further paging and returns whatever
// was accumulated so far (partial result, no retry). The caller decides what
// a partial fetch means for its run.
type Client struct {
	baseURL  string
	pageSize int
	httpc    *http.Client
	cache    config.CacheConfig

	// now is an indirection for cache-TTL tests.
	now func() time.Time
}

// New builds a Client from the Treasury API and cache configuration.
func New(api config.TreasuryConfig, cache config.CacheConfig) *Client {
	return &Client{
		baseURL:  api.BaseURL,
		pageSize: api.PageSize,
		httpc:    &http.Client{Timeout: api.Timeout},
		cache:    cache,
		now:      time.Now,
	}
}

// Fetch returns up to maxRecords auction records.
//
// Behavior:
//   - If the snapshot cache is usable under the configured policy, it is
//     loaded and returned without touching the network.
//   - Otherwise pages are requested with offset pagination until maxRecords
//     is reached, the API's totalResultsCount is satisfied, or an empty page
//     arrives. The accumulated list is trimmed to the reported total so a
//     padded final page never yields surplus records.
//   - On success with at least one record, the snapshot cache is rewritten.
func (c *Client) Fetch(ctx context.Context, maxRecords int) ([]Record, error) {
	if cached, ok := c.loadCache(); ok {
		logger.L().Info().Int("records", len(cached)).Str("file", c.cache.File).Msg("loaded records from cache")
		return cached, nil
	}

	var all []Record
	pageNum := 0

	logger.L().Info().Str("base_url", c.baseURL).Int("max_records", maxRecords).Msg("fetching auction data")

	for len(all) < maxRecords {
		page, total, err := c.fetchPage(ctx, pageNum)
		if err != nil {
			// Abort remaining pagination, keep the partial result.
			logger.L().Error().Int("page", pageNum).Err(err).Msg("page fetch failed, returning partial result")
			break
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		logger.L().Info().Int("page", pageNum+1).Int("total_records", len(all)).Msg("fetched page")

		if total > 0 && len(all) >= total {
			all = all[:total]
			break
		}
		pageNum++
	}

	if len(all) > maxRecords {
		all = all[:maxRecords]
	}

	if len(all) > 0 {
		if err := c.writeCache(all); err != nil {
			logger.L().Warn().Err(err).Str("file", c.cache.File).Msg("cache write failed")
		}
	}

	return all, nil
}

// fetchPage requests one page and returns its records plus the API's reported
// total result count (0 when the field is missing).
func (c *Client) fetchPage(ctx context.Context, pageNum int) ([]Record, int, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("pagesize", strconv.Itoa(c.pageSize))
	params.Set("pagenum", strconv.Itoa(pageNum))
	params.Set("recordstartindex", strconv.Itoa(pageNum*c.pageSize))
	params.Set("recordendindex", strconv.Itoa((pageNum+1)*c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request page %d: %w", pageNum, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("page %d: unexpected status %d", pageNum, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("decode page %d: %w", pageNum, err)
	}

	return body.SecurityList, body.TotalResultsCount, nil
}

// loadCache returns the cached snapshot if the configured policy allows it.
// A corrupt cache file is treated as a miss, not an error.
func (c *Client) loadCache() ([]Record, bool) {
	if c.cache.Mode == "off" || c.cache.File == "" {
		return nil, false
	}

	info, err := os.Stat(c.cache.File)
	if err != nil {
		return nil, false
	}
	if c.cache.Mode == "ttl" && c.now().Sub(info.ModTime()) > c.cache.TTL {
		logger.L().Info().Str("file", c.cache.File).Dur("ttl", c.cache.TTL).Msg("cache expired, refetching")
		return nil, false
	}

	raw, err := os.ReadFile(c.cache.File)
	if err != nil {
		logger.L().Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.L().Warn().Err(err).Msg("cache decode failed")
		return nil, false
	}
	return records, true
}

// writeCache serializes the full accumulated record list for future runs.
func (c *Client) writeCache(records []Record) error {
	if c.cache.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.cache.File), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(c.cache.File, raw, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	logger.L().Info().Int("records", len(records)).Str("file", c.cache.File).Msg("cached fetch snapshot")
	return nil
}
