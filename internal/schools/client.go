// Package schools fetches the national school directory and prepares school
// names for search.
package schools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/realmath/problempipeline/internal/models"
)

const (
	DefaultBaseURL  = "https://open.neis.go.kr/hub/schoolInfo"
	DefaultPageSize = 1000
)

// DefaultKinds are the school kinds fetched when none are given.
var DefaultKinds = []string{"초등학교", "중학교", "고등학교"}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	HTTPClient *http.Client
}

// Client reads the NEIS schoolInfo API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		pageSize:   opts.PageSize,
		httpClient: opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

type schoolInfoResponse struct {
	SchoolInfo []schoolInfoPart `json:"schoolInfo"`
}

type schoolInfoPart struct {
	Head []struct {
		ListTotalCount int `json:"list_total_count"`
	} `json:"head"`
	Row []struct {
		Name     string `json:"SCHUL_NM"`
		Location string `json:"LCTN_SC_NM"`
	} `json:"row"`
}

// FetchAll fetches every school of the given kinds. Kinds are fetched
// concurrently; the result lists them in the order given.
func (c *Client) FetchAll(ctx context.Context, kinds []string) ([]models.School, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds
	}

	results := make([][]models.School, len(kinds))
	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			schools, err := c.FetchKind(ctx, kind)
			if err != nil {
				return err
			}
			results[i] = schools
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.School
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// FetchKind pages through one school kind. A non-200 response or an
// undecodable body ends the kind early with a warning and keeps what was
// already fetched. Transport errors are returned.
func (c *Client) FetchKind(ctx context.Context, kind string) ([]models.School, error) {
	logCtx := slog.With("kind", kind)
	var schools []models.School

	for page := 1; ; page++ {
		logCtx.Info("Fetching school page", "page", page)

		part, ok, err := c.fetchPage(ctx, logCtx, kind, page)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, row := range part.rows.Row {
			schools = append(schools, models.School{SchoolName: row.Name, Location: row.Location})
		}
		if page*c.pageSize >= part.total {
			break
		}
	}

	logCtx.Info("Fetched schools", "count", len(schools))
	return schools, nil
}

type pageResult struct {
	total int
	rows  schoolInfoPart
}

// fetchPage returns ok=false when paging for this kind should stop.
func (c *Client) fetchPage(ctx context.Context, logCtx *slog.Logger, kind string, page int) (pageResult, bool, error) {
	q := url.Values{}
	q.Set("KEY", c.apiKey)
	q.Set("Type", "json")
	q.Set("pIndex", strconv.Itoa(page))
	q.Set("pSize", strconv.Itoa(c.pageSize))
	q.Set("SCHUL_KND_SC_NM", kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return pageResult{}, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageResult{}, false, fmt.Errorf("failed to fetch %s page %d: %w", kind, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logCtx.Warn("School request failed", "page", page, "status", resp.StatusCode, "body", string(body))
		return pageResult{}, false, nil
	}

	var decoded schoolInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logCtx.Warn("Failed to decode school response", "page", page, "error", err)
		return pageResult{}, false, nil
	}

	// A missing schoolInfo key is how the API reports the end of data.
	if len(decoded.SchoolInfo) < 2 || len(decoded.SchoolInfo[1].Row) == 0 {
		return pageResult{}, false, nil
	}

	res := pageResult{rows: decoded.SchoolInfo[1]}
	if head := decoded.SchoolInfo[0].Head; len(head) > 0 {
		res.total = head[0].ListTotalCount
	}
	return res, true, nil
}
