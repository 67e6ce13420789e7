package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"bingebase/models"
)

// FeedStatus tags every feed response so callers can tell a failed
// fetch apart from a valid zero-match result.
type FeedStatus string

const (
	// FeedOK means the call succeeded and returned at least one item.
	FeedOK FeedStatus = "ok"
	// FeedEmpty means the call succeeded with zero matches.
	FeedEmpty FeedStatus = "empty"
	// FeedFailed means the fetch itself failed (network, non-2xx,
	// malformed payload). Items is always nil.
	FeedFailed FeedStatus = "failed"
)

// FeedResult is the tagged outcome of a single feed call. Gateway
// methods never return an error for feed loads; failures come back as
// FeedFailed and are logged here.
type FeedResult struct {
	Status FeedStatus           `json:"status"`
	Items  []models.ContentItem `json:"items"`
}

// Failed reports whether the underlying fetch failed, as opposed to
// succeeding with no matches.
func (r FeedResult) Failed() bool { return r.Status == FeedFailed }

const feedCacheTTL = 6 * time.Hour

// Service wraps the TMDB API behind display-ready types. Listing
// feeds (trending, top rated, popular) are cached on disk; search and
// discover results are not.
type Service struct {
	tmdb  *tmdbClient
	cache *fileCache
}

func NewService(apiKey, language, cacheDir string, httpc *http.Client) *Service {
	return &Service{
		tmdb:  newTMDBClient(apiKey, language, httpc),
		cache: newFileCache(filepath.Join(cacheDir, "feeds"), feedCacheTTL),
	}
}

// UpdateAPIKey swaps the TMDB key and clears cached feeds so fresh
// data is fetched with the new credentials.
func (s *Service) UpdateAPIKey(apiKey, language string) {
	s.tmdb = newTMDBClient(apiKey, language, s.tmdb.httpc)
	if err := s.cache.clear(); err != nil {
		log.Printf("[metadata] warning: failed to clear feed cache: %v", err)
	}
}

// IsConfigured reports whether a TMDB key is set.
func (s *Service) IsConfigured() bool { return s.tmdb.isConfigured() }

// ValidateKey checks the configured key against /configuration. Used
// only at setup time, so unlike feed calls it retries transient
// failures before giving up.
func (s *Service) ValidateKey(ctx context.Context) error {
	if !s.tmdb.isConfigured() {
		return fmt.Errorf("tmdb api key is not configured")
	}
	return retry.Do(
		func() error { return s.tmdb.validate(ctx) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// Search queries /search/{kind}. Results are not cached.
func (s *Service) Search(ctx context.Context, query string, kind models.MediaType, page int) FeedResult {
	resp, err := s.tmdb.search(ctx, kind.APIPath(), query, page)
	if err != nil {
		log.Printf("[metadata] search %q failed: %v", query, err)
		return FeedResult{Status: FeedFailed}
	}
	return pageResult(resp, kind)
}

// Trending returns this week's trending feed for the given kind.
func (s *Service) Trending(ctx context.Context, kind models.MediaType) FeedResult {
	return s.cachedFeed(ctx, "trending", kind, s.tmdb.trending)
}

// TopRated returns the all-time top rated feed for the given kind.
func (s *Service) TopRated(ctx context.Context, kind models.MediaType) FeedResult {
	return s.cachedFeed(ctx, "top-rated", kind, s.tmdb.topRated)
}

// Popular returns the currently popular feed for the given kind.
func (s *Service) Popular(ctx context.Context, kind models.MediaType) FeedResult {
	return s.cachedFeed(ctx, "popular", kind, s.tmdb.popular)
}

func (s *Service) cachedFeed(ctx context.Context, feed string, kind models.MediaType, fetch func(context.Context, string) (tmdbPage, error)) FeedResult {
	key := cacheKey("tmdb", feed, string(kind))
	var cached []models.ContentItem
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return FeedResult{Status: FeedOK, Items: cached}
	}

	resp, err := fetch(ctx, kind.APIPath())
	if err != nil {
		log.Printf("[metadata] %s feed failed kind=%s: %v", feed, kind, err)
		return FeedResult{Status: FeedFailed}
	}
	result := pageResult(resp, kind)
	if result.Status == FeedOK {
		if err := s.cache.set(key, result.Items); err != nil {
			log.Printf("[metadata] failed to cache %s feed: %v", feed, err)
		}
	}
	return result
}

// DiscoverByGenre lists titles in a genre via /discover/{kind}.
func (s *Service) DiscoverByGenre(ctx context.Context, genreID int64, kind models.MediaType) FeedResult {
	resp, err := s.tmdb.discoverByGenre(ctx, kind.APIPath(), genreID)
	if err != nil {
		log.Printf("[metadata] discover by genre %d failed: %v", genreID, err)
		return FeedResult{Status: FeedFailed}
	}
	return pageResult(resp, kind)
}

// DiscoverByActor lists titles featuring an actor via /discover/{kind}.
func (s *Service) DiscoverByActor(ctx context.Context, actorID int64, kind models.MediaType) FeedResult {
	resp, err := s.tmdb.discoverByActor(ctx, kind.APIPath(), actorID)
	if err != nil {
		log.Printf("[metadata] discover by actor %d failed: %v", actorID, err)
		return FeedResult{Status: FeedFailed}
	}
	return pageResult(resp, kind)
}

// Genres returns the genre list for the given kind.
func (s *Service) Genres(ctx context.Context, kind models.MediaType) ([]models.Genre, error) {
	key := cacheKey("tmdb", "genres", string(kind))
	var cached []models.Genre
	if ok, _ := s.cache.get(key, &cached); ok && len(cached) > 0 {
		return cached, nil
	}
	raw, err := s.tmdb.genreList(ctx, kind.APIPath())
	if err != nil {
		return nil, err
	}
	genres := make([]models.Genre, 0, len(raw))
	for _, g := range raw {
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	if len(genres) > 0 {
		_ = s.cache.set(key, genres)
	}
	return genres, nil
}

const detailCastLimit = 10

// Details fetches the full record for one title, with credits and
// videos embedded in a single request.
func (s *Service) Details(ctx context.Context, id int64, kind models.MediaType) (*models.DetailRecord, error) {
	raw, err := s.tmdb.details(ctx, kind.APIPath(), id)
	if err != nil {
		return nil, err
	}

	detail := &models.DetailRecord{
		ContentItem: itemFromTMDB(raw.tmdbItem, kind),
		Overview:    raw.Overview,
		IMDBID:      raw.IMDBID,
	}
	if detail.IMDBID == "" {
		detail.IMDBID = raw.ExternalIDs.IMDBID
	}

	detail.RuntimeMinutes = raw.Runtime
	if detail.RuntimeMinutes == 0 && len(raw.EpisodeRunTime) > 0 {
		detail.RuntimeMinutes = raw.EpisodeRunTime[0]
	}

	for _, g := range raw.Genres {
		detail.Genres = append(detail.Genres, g.Name)
	}

	cast := raw.Credits.Cast
	if len(cast) > detailCastLimit {
		cast = cast[:detailCastLimit]
	}
	for _, entry := range cast {
		member := models.CastMember{
			ID:        entry.ID,
			Name:      entry.Name,
			Character: entry.Character,
			Portrait:  buildTMDBImage(entry.ProfilePath, tmdbProfileSize, "profile"),
		}
		if member.Portrait == nil {
			member.Portrait = &models.Image{URL: profilePlaceholderURL, Type: "profile"}
		}
		detail.Cast = append(detail.Cast, member)
	}

	for _, video := range raw.Videos.Results {
		if video.Type == "Trailer" && video.Site == "YouTube" {
			detail.Trailer = &models.Trailer{
				Key:  video.Key,
				Name: video.Name,
				URL:  "https://www.youtube.com/embed/" + video.Key,
			}
			break
		}
	}

	return detail, nil
}

func pageResult(page tmdbPage, fallback models.MediaType) FeedResult {
	if len(page.Results) == 0 {
		return FeedResult{Status: FeedEmpty, Items: []models.ContentItem{}}
	}
	items := make([]models.ContentItem, 0, len(page.Results))
	for _, raw := range page.Results {
		kind := fallback
		if raw.MediaType != "" {
			kind = models.NormalizeMediaType(raw.MediaType)
		}
		items = append(items, itemFromTMDB(raw, kind))
	}
	return FeedResult{Status: FeedOK, Items: items}
}

func itemFromTMDB(raw tmdbItem, kind models.MediaType) models.ContentItem {
	title := raw.Title
	if title == "" {
		title = raw.Name
	}
	item := models.ContentItem{
		ID:        raw.ID,
		MediaType: kind,
		Title:     title,
		Year:      parseTMDBYear(raw.ReleaseDate, raw.FirstAirDate),
		Rating:    raw.VoteAverage,
		Backdrop:  buildTMDBImage(raw.BackdropPath, tmdbBackdropSize, "backdrop"),
	}
	item.Poster = buildTMDBImage(raw.PosterPath, tmdbPosterSize, "poster")
	if item.Poster == nil {
		item.Poster = &models.Image{URL: posterPlaceholderURL, Type: "poster"}
	}
	return item
}

// buildTMDBImage resolves a relative artwork path against the image
// CDN. Returns nil for an empty path so callers can decide on a
// placeholder per context.
func buildTMDBImage(path, size, imageType string) *models.Image {
	if path == "" {
		return nil
	}
	return &models.Image{URL: tmdbImageBase + "/" + size + path, Type: imageType}
}

// parseTMDBYear extracts the release year from either the movie or
// series date field, whichever is set.
func parseTMDBYear(releaseDate, firstAirDate string) int {
	date := releaseDate
	if date == "" {
		date = firstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
