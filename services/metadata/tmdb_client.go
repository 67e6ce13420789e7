package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Minimal TMDB v3 client (api_key auth, the search/discover/detail
// endpoints the discovery views need).

const (
	tmdbAPIBase   = "https://api.themoviedb.org/3"
	tmdbImageBase = "https://image.tmdb.org/t/p"

	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "original"
	tmdbProfileSize  = "w185"

	posterPlaceholderURL  = "https://via.placeholder.com/500x750?text=No+Image"
	profilePlaceholderURL = "https://via.placeholder.com/185x278?text=No+Image"
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
	baseURL  string
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &tmdbClient{
		apiKey:   apiKey,
		language: language,
		httpc:    httpc,
		baseURL:  tmdbAPIBase,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// doGET issues one request against the API. The api_key and language
// are always appended; params with empty values are dropped rather
// than sent as empty strings.
func (c *tmdbClient) doGET(ctx context.Context, path string, params map[string]string, v any) error {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	if c.language != "" {
		q.Set("language", c.language)
	}
	for key, value := range params {
		if strings.TrimSpace(value) == "" {
			continue
		}
		q.Set(key, value)
	}

	endpoint := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("tmdb get %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("tmdb decode %s: %w", path, err)
	}
	return nil
}

type tmdbPage struct {
	Page         int        `json:"page"`
	Results      []tmdbItem `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

type tmdbItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`      // movies
	Name         string  `json:"name"`       // series
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	MediaType    string  `json:"media_type"` // only on trending/multi payloads
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbCastEntry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type tmdbVideo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type tmdbDetails struct {
	tmdbItem
	Overview       string      `json:"overview"`
	Runtime        int         `json:"runtime"`          // movies
	EpisodeRunTime []int       `json:"episode_run_time"` // series
	Genres         []tmdbGenre `json:"genres"`
	ExternalIDs    struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
	IMDBID  string `json:"imdb_id"` // movies carry it at top level
	Credits struct {
		Cast []tmdbCastEntry `json:"cast"`
	} `json:"credits"`
	Videos struct {
		Results []tmdbVideo `json:"results"`
	} `json:"videos"`
}

func (c *tmdbClient) search(ctx context.Context, kind, query string, page int) (tmdbPage, error) {
	params := map[string]string{"query": query}
	if page > 1 {
		params["page"] = strconv.Itoa(page)
	}
	var resp tmdbPage
	err := c.doGET(ctx, "/search/"+kind, params, &resp)
	return resp, err
}

func (c *tmdbClient) trending(ctx context.Context, kind string) (tmdbPage, error) {
	var resp tmdbPage
	err := c.doGET(ctx, "/trending/"+kind+"/week", nil, &resp)
	return resp, err
}

func (c *tmdbClient) topRated(ctx context.Context, kind string) (tmdbPage, error) {
	var resp tmdbPage
	err := c.doGET(ctx, "/"+kind+"/top_rated", nil, &resp)
	return resp, err
}

func (c *tmdbClient) popular(ctx context.Context, kind string) (tmdbPage, error) {
	var resp tmdbPage
	err := c.doGET(ctx, "/"+kind+"/popular", nil, &resp)
	return resp, err
}

func (c *tmdbClient) details(ctx context.Context, kind string, id int64) (tmdbDetails, error) {
	params := map[string]string{"append_to_response": "credits,videos,external_ids"}
	var resp tmdbDetails
	err := c.doGET(ctx, fmt.Sprintf("/%s/%d", kind, id), params, &resp)
	return resp, err
}

func (c *tmdbClient) discoverByGenre(ctx context.Context, kind string, genreID int64) (tmdbPage, error) {
	params := map[string]string{"with_genres": strconv.FormatInt(genreID, 10)}
	var resp tmdbPage
	err := c.doGET(ctx, "/discover/"+kind, params, &resp)
	return resp, err
}

func (c *tmdbClient) discoverByActor(ctx context.Context, kind string, actorID int64) (tmdbPage, error) {
	params := map[string]string{"with_cast": strconv.FormatInt(actorID, 10)}
	var resp tmdbPage
	err := c.doGET(ctx, "/discover/"+kind, params, &resp)
	return resp, err
}

func (c *tmdbClient) genreList(ctx context.Context, kind string) ([]tmdbGenre, error) {
	var resp struct {
		Genres []tmdbGenre `json:"genres"`
	}
	if err := c.doGET(ctx, "/genre/"+kind+"/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// validate issues a cheap authenticated request to check the key.
func (c *tmdbClient) validate(ctx context.Context) error {
	var resp struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	return c.doGET(ctx, "/configuration", nil, &resp)
}
