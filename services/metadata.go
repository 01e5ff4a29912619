package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"Reelrank/config"
	"Reelrank/models"
)

const maxResponseBytes = 2 << 20

// SearchResult is one candidate from the TMDB movie search.
type SearchResult struct {
	ExternalID  int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
}

func (r SearchResult) Year() *int {
	return ParseYear(r.ReleaseDate)
}

type tmdbSearchResponse struct {
	Results []SearchResult `json:"results"`
}

// MovieDetails is the subset of the TMDB movie details payload we keep.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
}

// ToNewMovie converts details into a new watchlist entry. Fields that are
// missing or malformed upstream end up absent on the entry. Titles are cut
// to the column limit; a poster URL that would not fit is dropped.
func (d MovieDetails) ToNewMovie(imageBaseURL string) models.NewMovie {
	nm := models.NewMovie{
		Title:  clampRunes(strings.TrimSpace(d.Title), models.MaxTitleLen),
		Year:   ParseYear(d.ReleaseDate),
		ImgURL: PosterURL(imageBaseURL, d.PosterPath),
	}
	if nm.ImgURL != nil && utf8.RuneCountInString(*nm.ImgURL) > models.MaxImgURLLen {
		nm.ImgURL = nil
	}
	if overview := strings.TrimSpace(d.Overview); overview != "" {
		nm.Description = &overview
	}
	return nm
}

func clampRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}

// TMDBClient talks to the TMDB search and details endpoints. Every call is
// bounded by the configured timeout.
type TMDBClient struct {
	apiKey     string
	searchURL  string
	detailsURL string
	httpClient *http.Client
	log        *slog.Logger
}

func NewTMDBClient(cfg config.TMDBConfig, logger *slog.Logger) *TMDBClient {
	return &TMDBClient{
		apiKey:     cfg.APIKey,
		searchURL:  cfg.SearchURL,
		detailsURL: strings.TrimSuffix(cfg.DetailsURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("component", "tmdb"),
	}
}

func (c *TMDBClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	reqURL := buildQueryURL(c.searchURL, map[string]string{
		"api_key": c.apiKey,
		"query":   query,
	})

	var body tmdbSearchResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		c.log.WarnContext(ctx, "tmdb search failed", slog.String("query", query), slog.String("error", err.Error()))
		return nil, fmt.Errorf("tmdb search %q: %w", query, err)
	}

	c.log.DebugContext(ctx, "tmdb search", slog.String("query", query), slog.Int("results", len(body.Results)))

	if body.Results == nil {
		return []SearchResult{}, nil
	}
	return body.Results, nil
}

func (c *TMDBClient) GetDetails(ctx context.Context, externalID int) (*MovieDetails, error) {
	reqURL := buildQueryURL(c.detailsURL+"/"+strconv.Itoa(externalID), map[string]string{
		"api_key": c.apiKey,
	})

	var details MovieDetails
	if err := c.getJSON(ctx, reqURL, &details); err != nil {
		c.log.WarnContext(ctx, "tmdb details failed", slog.Int("external_id", externalID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("tmdb details %d: %w", externalID, err)
	}

	if strings.TrimSpace(details.Title) == "" {
		return nil, fmt.Errorf("tmdb details %d: %w", externalID, ErrMalformedUpstream)
	}

	c.log.DebugContext(ctx, "tmdb details", slog.Int("external_id", externalID), slog.String("title", details.Title))
	return &details, nil
}

// getJSON issues a GET and decodes a 2xx JSON body into v. All failures wrap
// ErrUpstreamUnavailable.
func (c *TMDBClient) getJSON(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}

// buildQueryURL merges params into baseURL's query string.
func buildQueryURL(baseURL string, params map[string]string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PosterURL joins a TMDB poster path onto the image host. A nil or empty
// path means there is no poster.
func PosterURL(imageBaseURL string, posterPath *string) *string {
	if posterPath == nil {
		return nil
	}
	p := strings.TrimSpace(*posterPath)
	if p == "" {
		return nil
	}
	full := strings.TrimSuffix(imageBaseURL, "/") + "/" + strings.TrimPrefix(p, "/")
	return &full
}

// ParseYear reads the year from a release date such as "2020-05-01". It
// returns nil unless the part before the first '-' is exactly four digits.
func ParseYear(releaseDate string) *int {
	head, _, _ := strings.Cut(strings.TrimSpace(releaseDate), "-")
	if len(head) != 4 {
		return nil
	}
	for _, r := range head {
		if r < '0' || r > '9' {
			return nil
		}
	}
	year, err := strconv.Atoi(head)
	if err != nil || year == 0 {
		return nil
	}
	return &year
}
