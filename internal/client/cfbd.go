package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"cfbfeed/internal/metrics"
	"cfbfeed/internal/models"
	"cfbfeed/internal/teams"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the CollegeFootballData API root
const DefaultBaseURL = "https://api.collegefootballdata.com"

// seasonTypeRegular restricts every query to regular season weeks
const seasonTypeRegular = "regular"

// Client is the CollegeFootballData API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	throttle   *throttle
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new CFBD API client. Consecutive calls to the same endpoint
// family are spaced at least minDelay apart.
func NewClient(baseURL, apiKey string, timeout, minDelay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		throttle:   newThrottle(minDelay),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// throttle enforces a fixed minimum delay between the end of one call and the
// start of the next within an endpoint family. Calls of one family are serialized.
type throttle struct {
	mu       sync.Mutex
	minDelay time.Duration
	families map[string]*familySlot
}

// familySlot is a one-slot semaphore; last is only touched while holding sem
type familySlot struct {
	sem  chan struct{}
	last time.Time
}

func newThrottle(minDelay time.Duration) *throttle {
	return &throttle{minDelay: minDelay, families: make(map[string]*familySlot)}
}

func (t *throttle) slot(family string) *familySlot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.families[family]
	if !ok {
		s = &familySlot{sem: make(chan struct{}, 1)}
		t.families[family] = s
	}
	return s
}

// acquire waits until minDelay has passed since the family's previous call
// finished. The returned release must be called once the call completes.
func (t *throttle) acquire(ctx context.Context, family string) (func(), error) {
	if t.minDelay <= 0 {
		return func() {}, nil
	}

	s := t.slot(family)
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() {
		s.last = time.Now()
		<-s.sem
	}

	if s.last.IsZero() {
		return release, nil
	}
	delay := time.Until(s.last.Add(t.minDelay))
	if delay <= 0 {
		return release, nil
	}

	metrics.RecordThrottleWait(family, delay.Seconds())
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		<-s.sem
		return nil, ctx.Err()
	case <-timer.C:
		return release, nil
	}
}

// get performs a GET request with retry logic and per-family throttling
func (c *Client) get(ctx context.Context, family, path string, params url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", endpoint).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		release, err := c.throttle.acquire(ctx, family)
		if err != nil {
			return nil, err
		}
		body, status, err := c.do(ctx, endpoint, params, attempt)
		release()
		if err != nil {
			lastErr = err
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			metrics.RecordAPICall(family, "error", time.Since(start).Seconds())
			return nil, lastErr
		}

		switch status {
		case http.StatusOK:
			log.Debug().
				Str("url", endpoint).
				Int("status", status).
				Int("size", len(body)).
				Msg("API request successful")
			metrics.RecordAPICall(family, "success", time.Since(start).Seconds())
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", status, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", endpoint).
					Int("status", status).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			metrics.RecordAPICall(family, "error", time.Since(start).Seconds())
			return nil, lastErr

		case http.StatusUnauthorized, http.StatusForbidden:
			metrics.RecordAPICall(family, "unauthorized", time.Since(start).Seconds())
			return nil, fmt.Errorf("API authentication failed (status %d): %s", status, string(body))

		default:
			metrics.RecordAPICall(family, "error", time.Since(start).Seconds())
			return nil, fmt.Errorf("API returned status %d: %s", status, string(body))
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values, attempt int) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "cfbfeed/1.0")
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	log.Debug().
		Str("url", endpoint).
		Str("method", req.Method).
		Int("attempt", attempt+1).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// getJSON fetches path and decodes the response into out
func (c *Client) getJSON(ctx context.Context, family, path string, params url.Values, out any) error {
	body, err := c.get(ctx, family, path, params)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", family, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", family, err)
	}
	return nil
}

func seasonParams(season int) url.Values {
	return url.Values{"year": {strconv.Itoa(season)}}
}

func weekParams(season, week int) url.Values {
	params := seasonParams(season)
	params.Set("week", strconv.Itoa(week))
	params.Set("seasonType", seasonTypeRegular)
	return params
}

// resolverOr falls back to plain slugging when no directory is available yet
func resolverOr(ids models.SubjectResolver) models.SubjectResolver {
	if ids == nil {
		return slugResolver{}
	}
	return ids
}

type slugResolver struct{}

func (slugResolver) SubjectID(name string) string { return teams.Slug(name) }

// FetchCalendar lists the regular season weeks of season in ascending order
func (c *Client) FetchCalendar(ctx context.Context, season int) ([]models.Period, error) {
	var weeks []models.CalendarWeekInput
	if err := c.getJSON(ctx, "calendar", "calendar", seasonParams(season), &weeks); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(weeks))
	periods := make([]models.Period, 0, len(weeks))
	for i := range weeks {
		if !weeks[i].IsRegular() || seen[weeks[i].Week] {
			continue
		}
		seen[weeks[i].Week] = true
		p := weeks[i].ToPeriod()
		if p.Season == 0 {
			p.Season = season
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// ListPeriods implements period.Lister
func (c *Client) ListPeriods(ctx context.Context, season int) ([]models.Period, error) {
	return c.FetchCalendar(ctx, season)
}

// FetchRankings fetches one poll for a week. A week without that poll yields an empty snapshot.
func (c *Client) FetchRankings(ctx context.Context, season, week int, poll models.Poll, ids models.SubjectResolver) (models.RankingSnapshot, error) {
	var inputs []models.RankingsWeekInput
	if err := c.getJSON(ctx, "rankings", "rankings", weekParams(season, week), &inputs); err != nil {
		return models.RankingSnapshot{}, err
	}

	ids = resolverOr(ids)
	snap := models.RankingSnapshot{Season: season, Week: week, Poll: poll}
	for i := range inputs {
		if inputs[i].Week != week {
			continue
		}
		if s := inputs[i].ToSnapshot(poll, ids); s.Len() > 0 {
			snap.Entries = s.Entries
			break
		}
	}
	return snap, nil
}

// FetchLines fetches the betting lines of every game in a week
func (c *Client) FetchLines(ctx context.Context, season, week int, ids models.SubjectResolver) (models.LinePool, error) {
	var inputs []models.GameLinesInput
	if err := c.getJSON(ctx, "lines", "lines", weekParams(season, week), &inputs); err != nil {
		return models.LinePool{}, err
	}

	ids = resolverOr(ids)
	pool := models.LinePool{Season: season, Week: week, Lines: make([]models.LineEntry, 0, len(inputs))}
	for i := range inputs {
		pool.Lines = append(pool.Lines, inputs[i].ToLineEntry(ids))
	}
	return pool, nil
}

// FetchRecords fetches cumulative team records for season
func (c *Client) FetchRecords(ctx context.Context, season int, ids models.SubjectResolver) (models.RecordSet, error) {
	var inputs []models.TeamRecordInput
	if err := c.getJSON(ctx, "records", "records", seasonParams(season), &inputs); err != nil {
		return models.RecordSet{}, err
	}

	ids = resolverOr(ids)
	set := models.RecordSet{Season: season, Records: make([]models.RecordEntry, 0, len(inputs))}
	for i := range inputs {
		set.Records = append(set.Records, inputs[i].ToRecordEntry(ids))
	}
	return set, nil
}

// FetchResults fetches every game of a week, finished or not
func (c *Client) FetchResults(ctx context.Context, season, week int, ids models.SubjectResolver) (models.ResultSet, error) {
	var inputs []models.GameInput
	if err := c.getJSON(ctx, "games", "games", weekParams(season, week), &inputs); err != nil {
		return models.ResultSet{}, err
	}

	ids = resolverOr(ids)
	set := models.ResultSet{Season: season, Week: week, Games: make([]models.GameResult, 0, len(inputs))}
	for i := range inputs {
		set.Games = append(set.Games, inputs[i].ToGameResult(ids))
	}
	return set, nil
}

// FetchTeams fetches the FBS team reference table for season
func (c *Client) FetchTeams(ctx context.Context, season int) (models.TeamSet, error) {
	var inputs []models.TeamInput
	if err := c.getJSON(ctx, "teams", "teams/fbs", seasonParams(season), &inputs); err != nil {
		return models.TeamSet{}, err
	}
	return teams.FromInputs(season, inputs), nil
}
