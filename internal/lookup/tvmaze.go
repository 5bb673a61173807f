package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTVMazeURL is the public TVmaze API
const DefaultTVMazeURL = "https://api.tvmaze.com"

// TVMaze implements Provider against the TVmaze REST API
type TVMaze struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

type tvmazeSearchHit struct {
	Score float64    `json:"score"`
	Show  tvmazeShow `json:"show"`
}

type tvmazeShow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
	Network   *struct {
		Name string `json:"name"`
	} `json:"network"`
	WebChannel *struct {
		Name string `json:"name"`
	} `json:"webChannel"`
}

type tvmazeEpisode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  *int   `json:"number"`
	Airdate string `json:"airdate"`
	Summary string `json:"summary"`
}

// NewTVMaze creates a TVmaze client; an empty baseURL uses the public API
func NewTVMaze(baseURL, userAgent string) *TVMaze {
	if baseURL == "" {
		baseURL = DefaultTVMazeURL
	}
	if userAgent == "" {
		userAgent = "ezrename"
	}
	return &TVMaze{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Search queries /search/shows and returns candidates in API order
func (c *TVMaze) Search(ctx context.Context, name string) ([]ShowCandidate, error) {
	endpoint := fmt.Sprintf("%s/search/shows?q=%s", c.BaseURL, url.QueryEscape(name))

	var hits []tvmazeSearchHit
	if err := c.getJSON(ctx, "search shows", endpoint, &hits); err != nil {
		return nil, err
	}

	candidates := make([]ShowCandidate, 0, len(hits))
	for _, hit := range hits {
		network := ""
		switch {
		case hit.Show.Network != nil:
			network = hit.Show.Network.Name
		case hit.Show.WebChannel != nil:
			network = hit.Show.WebChannel.Name
		}
		candidates = append(candidates, ShowCandidate{
			ID:        strconv.Itoa(hit.Show.ID),
			Name:      hit.Show.Name,
			Premiered: hit.Show.Premiered,
			Network:   network,
		})
	}

	log.Debug().Str("query", name).Int("candidates", len(candidates)).Msg("tvmaze search")
	return candidates, nil
}

// Episodes fetches the full episode list of one show. Specials without a
// number are dropped.
func (c *TVMaze) Episodes(ctx context.Context, showID string) ([]Episode, error) {
	if _, err := strconv.Atoi(showID); err != nil {
		return nil, fmt.Errorf("invalid tvmaze show id %q: %w", showID, ErrNotFound)
	}
	endpoint := fmt.Sprintf("%s/shows/%s/episodes?specials=1", c.BaseURL, showID)

	var raw []tvmazeEpisode
	if err := c.getJSON(ctx, "list episodes", endpoint, &raw); err != nil {
		return nil, err
	}

	episodes := make([]Episode, 0, len(raw))
	for _, ep := range raw {
		if ep.Number == nil {
			continue
		}
		episodes = append(episodes, Episode{
			Season:  ep.Season,
			Number:  *ep.Number,
			Title:   strings.TrimSpace(ep.Name),
			Airdate: ep.Airdate,
			Summary: SummaryText(ep.Summary),
		})
	}

	log.Debug().Str("show_id", showID).Int("episodes", len(episodes)).Msg("tvmaze episodes")
	return episodes, nil
}

func (c *TVMaze) getJSON(ctx context.Context, op, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			Op:         op,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
