package models

import (
	"fmt"
	"strconv"
)

// MediaType discriminates movies from series. The TMDB API calls series
// "tv", so use APIPath when building request paths.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// APIPath returns the TMDB path segment for the media type.
func (m MediaType) APIPath() string {
	if m == MediaTypeSeries {
		return "tv"
	}
	return "movie"
}

// NormalizeMediaType maps the loose type strings used by clients and by
// TMDB payloads ("tv", "show", "film", ...) onto a MediaType.
func NormalizeMediaType(s string) MediaType {
	switch s {
	case "tv", "series", "show", "shows":
		return MediaTypeSeries
	default:
		return MediaTypeMovie
	}
}

// Image is a fully resolved artwork URL.
type Image struct {
	URL  string `json:"url"`
	Type string `json:"type"` // "poster", "backdrop", "profile"
}

// ContentItem is a single display card: one movie or series as returned
// by a feed or search call. Immutable once built.
type ContentItem struct {
	ID        int64     `json:"id"`
	MediaType MediaType `json:"mediaType"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Poster    *Image    `json:"poster,omitempty"`
	Backdrop  *Image    `json:"backdrop,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
}

// RatingDisplay renders the 0-10 vote average with one decimal, or
// "N/A" when the source reported no votes.
func (c ContentItem) RatingDisplay() string {
	if c.Rating <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(c.Rating, 'f', 1, 64)
}

// YearDisplay renders the release year, or "N/A" when unknown.
func (c ContentItem) YearDisplay() string {
	if c.Year <= 0 {
		return "N/A"
	}
	return strconv.Itoa(c.Year)
}

// Favorite is a denormalized snapshot of a ContentItem taken when the
// user favorited it. At most one favorite exists per ID.
type Favorite struct {
	ID        int64     `json:"id"`
	MediaType MediaType `json:"mediaType"`
	Title     string    `json:"title"`
	PosterURL string    `json:"posterUrl,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
}

// FavoriteFromItem snapshots a ContentItem for persistence.
func FavoriteFromItem(item ContentItem) Favorite {
	fav := Favorite{
		ID:        item.ID,
		MediaType: item.MediaType,
		Title:     item.Title,
		Rating:    item.Rating,
	}
	if item.Poster != nil {
		fav.PosterURL = item.Poster.URL
	}
	return fav
}

// Item converts a stored favorite back into a display card.
func (f Favorite) Item() ContentItem {
	item := ContentItem{
		ID:        f.ID,
		MediaType: f.MediaType,
		Title:     f.Title,
		Rating:    f.Rating,
	}
	if f.PosterURL != "" {
		item.Poster = &Image{URL: f.PosterURL, Type: "poster"}
	}
	return item
}

// CastMember is one credited actor on a detail view.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Portrait  *Image `json:"portrait,omitempty"`
}

// Trailer is a playable trailer reference (YouTube only).
type Trailer struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DetailRecord is a ContentItem enriched for the detail overlay. Built
// on demand and never persisted.
type DetailRecord struct {
	ContentItem
	RuntimeMinutes  int          `json:"runtimeMinutes,omitempty"`
	Genres          []string     `json:"genres,omitempty"`
	Overview        string       `json:"overview,omitempty"`
	Cast            []CastMember `json:"cast,omitempty"`
	Trailer         *Trailer     `json:"trailer,omitempty"`
	IMDBID          string       `json:"imdbId,omitempty"`
	SecondaryRating string       `json:"secondaryRating,omitempty"`
}

// RuntimeDisplay renders the runtime in minutes, or "N/A" when the
// source reported none (common for ended series).
func (d DetailRecord) RuntimeDisplay() string {
	if d.RuntimeMinutes <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d min", d.RuntimeMinutes)
}
