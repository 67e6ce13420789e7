package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestDoGETDropsEmptyParams(t *testing.T) {
	var captured *http.Request
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{}`), nil
		}),
	}

	c := newTMDBClient("secret", "en-US", httpc)
	var out struct{}
	err := c.doGET(context.Background(), "/search/movie", map[string]string{
		"query": "dune",
		"page":  "",
		"year":  "  ",
	}, &out)
	if err != nil {
		t.Fatalf("doGET returned error: %v", err)
	}

	q := captured.URL.Query()
	if q.Get("api_key") != "secret" {
		t.Fatalf("expected api_key in query, got %q", q.Get("api_key"))
	}
	if q.Get("query") != "dune" {
		t.Fatalf("expected query param, got %q", q.Get("query"))
	}
	if _, present := q["page"]; present {
		t.Fatal("empty page param should have been dropped")
	}
	if _, present := q["year"]; present {
		t.Fatal("blank year param should have been dropped")
	}
}

func TestDoGETNonSuccessStatus(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnauthorized, `{"status_message":"Invalid API key"}`), nil
		}),
	}

	c := newTMDBClient("bad", "en-US", httpc)
	var out struct{}
	if err := c.doGET(context.Background(), "/configuration", nil, &out); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestDetailsRequestsEmbeddedCreditsAndVideos(t *testing.T) {
	var captured *http.Request
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{"id":1}`), nil
		}),
	}

	c := newTMDBClient("k", "en-US", httpc)
	if _, err := c.details(context.Background(), "movie", 27205); err != nil {
		t.Fatalf("details returned error: %v", err)
	}

	if captured.URL.Path != "/3/movie/27205" {
		t.Fatalf("unexpected path: %s", captured.URL.Path)
	}
	if got := captured.URL.Query().Get("append_to_response"); got != "credits,videos,external_ids" {
		t.Fatalf("unexpected append_to_response: %q", got)
	}
}

func TestBuildTMDBImage(t *testing.T) {
	if img := buildTMDBImage("", tmdbPosterSize, "poster"); img != nil {
		t.Fatal("expected nil image when path empty")
	}
	img := buildTMDBImage("/poster.png", tmdbPosterSize, "poster")
	if img == nil {
		t.Fatal("expected image for valid path")
	}
	if img.URL != "https://image.tmdb.org/t/p/w500/poster.png" {
		t.Fatalf("unexpected image url: %s", img.URL)
	}
	if img.Type != "poster" {
		t.Fatalf("unexpected image type: %s", img.Type)
	}
}

func TestParseTMDBYear(t *testing.T) {
	if year := parseTMDBYear("2024-05-01", ""); year != 2024 {
		t.Fatalf("expected 2024, got %d", year)
	}
	if year := parseTMDBYear("", "2019-01-01"); year != 2019 {
		t.Fatalf("expected 2019, got %d", year)
	}
	if year := parseTMDBYear("199", ""); year != 0 {
		t.Fatalf("expected 0 for invalid date, got %d", year)
	}
}
