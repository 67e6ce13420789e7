package ratings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const omdbBaseURL = "https://www.omdbapi.com/"

// RatingStore is the persistence behind the enrichment cache.
type RatingStore interface {
	Get(imdbID string) (string, bool, error)
	Set(imdbID, rating string) error
}

// Service resolves IMDb ratings from OMDb with a write-through
// persistent cache. It is best effort throughout: when no key is
// configured, or the source has no rating, lookups report unavailable
// and the detail view simply omits the rating.
type Service struct {
	apiKey  string
	httpc   *http.Client
	baseURL string
	store   RatingStore
}

func NewService(apiKey string, store RatingStore, httpc *http.Client) *Service {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		apiKey:  apiKey,
		httpc:   httpc,
		baseURL: omdbBaseURL,
		store:   store,
	}
}

// IsConfigured reports whether an OMDb key is set.
func (s *Service) IsConfigured() bool {
	return strings.TrimSpace(s.apiKey) != ""
}

// Lookup returns the IMDb rating for the id, consulting the cache
// first. A cache miss with no configured key returns unavailable
// without a network call. A fetch failure or an explicit "N/A" from
// the source is NOT cached, so a later lookup may retry.
func (s *Service) Lookup(ctx context.Context, imdbID string) (string, bool) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return "", false
	}

	if rating, ok, err := s.store.Get(imdbID); err != nil {
		log.Printf("[ratings] cache read failed for %s: %v", imdbID, err)
	} else if ok {
		return rating, true
	}

	if !s.IsConfigured() {
		return "", false
	}

	rating, err := s.fetch(ctx, imdbID)
	if err != nil {
		log.Printf("[ratings] omdb lookup failed for %s: %v", imdbID, err)
		return "", false
	}
	if rating == "" {
		return "", false
	}

	if err := s.store.Set(imdbID, rating); err != nil {
		log.Printf("[ratings] cache write failed for %s: %v", imdbID, err)
	}
	return rating, true
}

type omdbResponse struct {
	Response   string `json:"Response"`
	Error      string `json:"Error"`
	IMDBRating string `json:"imdbRating"`
}

// retryableError marks server-side failures worth one more attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// fetch issues the OMDb request. Returns "" (with nil error) when the
// source answered but has no rating for the title.
func (s *Service) fetch(ctx context.Context, imdbID string) (string, error) {
	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("i", imdbID)
	endpoint := s.baseURL + "?" + q.Encode()

	var payload omdbResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			resp, err := s.httpc.Do(req)
			if err != nil {
				return &retryableError{err: err}
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 {
				return &retryableError{err: fmt.Errorf("omdb request failed: %s", resp.Status)}
			}
			if resp.StatusCode >= 300 {
				return fmt.Errorf("omdb request failed: %s", resp.Status)
			}
			return json.NewDecoder(resp.Body).Decode(&payload)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			_, ok := err.(*retryableError)
			return ok
		}),
	)
	if err != nil {
		return "", err
	}

	if payload.Response == "False" {
		// Explicit miss from the source, not an error.
		return "", nil
	}
	rating := strings.TrimSpace(payload.IMDBRating)
	if rating == "" || rating == "N/A" {
		return "", nil
	}
	return rating, nil
}
