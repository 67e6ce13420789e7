package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"bingebase/models"
	"bingebase/services/metadata"
)

// View names the content region states. The detail overlay is not a
// view: it layers on top of whichever view is active.
type View string

const (
	ViewHome          View = "home"
	ViewMovies        View = "movies"
	ViewSeries        View = "series"
	ViewFavorites     View = "favorites"
	ViewSearchResults View = "search-results"
	ViewActorResults  View = "actor-results"
)

// defaultDebounce is the quiet period after the last keystroke before
// a search fires.
const defaultDebounce = 300 * time.Millisecond

// minQueryLength: shorter queries revert to the current tab's feed
// instead of searching.
const minQueryLength = 2

type gateway interface {
	ValidateKey(ctx context.Context) error
	Search(ctx context.Context, query string, kind models.MediaType, page int) metadata.FeedResult
	Trending(ctx context.Context, kind models.MediaType) metadata.FeedResult
	TopRated(ctx context.Context, kind models.MediaType) metadata.FeedResult
	Popular(ctx context.Context, kind models.MediaType) metadata.FeedResult
	DiscoverByActor(ctx context.Context, actorID int64, kind models.MediaType) metadata.FeedResult
	Details(ctx context.Context, id int64, kind models.MediaType) (*models.DetailRecord, error)
}

type ratingSource interface {
	Lookup(ctx context.Context, imdbID string) (string, bool)
}

type preferenceStore interface {
	AddFavorite(fav models.Favorite) error
	RemoveFavorite(id int64) (bool, error)
	IsFavorite(id int64) bool
	Favorites() []models.Favorite
	RecordSearch(query string) error
	ClearHistory() error
	History() []string
}

// Controller drives the discovery views: it composes gateway calls per
// navigation action, merges the results into render-ready sections,
// and owns all transient view state. Constructed once at startup with
// its collaborators injected.
type Controller struct {
	gateway gateway
	ratings ratingSource
	prefs   preferenceStore

	mu       sync.Mutex
	view     View
	tab      View // last selected tab; search/actor results revert here
	heading  string
	query    string
	sections []Section
	detail   *models.DetailRecord
	notices  []Notice

	debounce      *time.Timer
	debounceDelay time.Duration
	searchGen     int
}

func NewController(gw gateway, ratings ratingSource, prefs preferenceStore) *Controller {
	return &Controller{
		gateway:       gw,
		ratings:       ratings,
		prefs:         prefs,
		view:          ViewHome,
		tab:           ViewHome,
		debounceDelay: defaultDebounce,
	}
}

// SetDebounceDelay overrides the search debounce window. Zero disables
// debouncing (searches fire immediately).
func (c *Controller) SetDebounceDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debounceDelay = d
}

// Start validates the configured key and, on success, loads the home
// feed. An invalid key blocks entry: no feed calls are issued.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.gateway.ValidateKey(ctx); err != nil {
		return fmt.Errorf("validate api key: %w", err)
	}
	c.SelectTab(ctx, ViewHome)
	return nil
}

// SelectTab clears any active search and replaces the content region
// with the tab's feed. Independent sections load in parallel; a failed
// section is silently omitted as long as at least one succeeded.
func (c *Controller) SelectTab(ctx context.Context, view View) {
	c.mu.Lock()
	c.cancelPendingSearchLocked()
	c.query = ""
	c.tab = view
	c.mu.Unlock()

	switch view {
	case ViewFavorites:
		c.showFavorites()
	case ViewMovies:
		c.loadFeed(ctx, ViewMovies, "Movies", models.MediaTypeMovie)
	case ViewSeries:
		c.loadFeed(ctx, ViewSeries, "TV Shows", models.MediaTypeSeries)
	default:
		c.loadHome(ctx)
	}
}

// feedSpec names one section of a composite feed load.
type feedSpec struct {
	title string
	fetch func(context.Context) metadata.FeedResult
}

func (c *Controller) loadHome(ctx context.Context) {
	specs := []feedSpec{
		{"Trending Movies", func(ctx context.Context) metadata.FeedResult {
			return c.gateway.Trending(ctx, models.MediaTypeMovie)
		}},
		{"Trending TV Shows", func(ctx context.Context) metadata.FeedResult {
			return c.gateway.Trending(ctx, models.MediaTypeSeries)
		}},
		{"Top Rated Movies", func(ctx context.Context) metadata.FeedResult {
			return c.gateway.TopRated(ctx, models.MediaTypeMovie)
		}},
		{"Popular Movies", func(ctx context.Context) metadata.FeedResult {
			return c.gateway.Popular(ctx, models.MediaTypeMovie)
		}},
	}
	c.loadSections(ctx, ViewHome, "Discover", specs)
}

func (c *Controller) loadFeed(ctx context.Context, view View, heading string, kind models.MediaType) {
	specs := []feedSpec{
		{"Trending", func(ctx context.Context) metadata.FeedResult { return c.gateway.Trending(ctx, kind) }},
		{"Top Rated", func(ctx context.Context) metadata.FeedResult { return c.gateway.TopRated(ctx, kind) }},
		{"Popular", func(ctx context.Context) metadata.FeedResult { return c.gateway.Popular(ctx, kind) }},
	}
	c.loadSections(ctx, view, heading, specs)
}

// loadSections fans out the independent section fetches, waits for all
// of them, then commits whatever succeeded. One slow call delays the
// composite but never serializes the others.
func (c *Controller) loadSections(ctx context.Context, view View, heading string, specs []feedSpec) {
	results := make([]metadata.FeedResult, len(specs))
	var wg conc.WaitGroup
	for i, spec := range specs {
		wg.Go(func() {
			results[i] = spec.fetch(ctx)
		})
	}
	wg.Wait()

	sections := make([]Section, 0, len(specs))
	failed := 0
	for i, spec := range specs {
		if results[i].Failed() {
			failed++
			continue
		}
		sections = append(sections, c.buildSection(spec.title, results[i]))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = view
	c.heading = heading
	c.sections = sections
	if failed == len(specs) {
		c.pushNoticeLocked(NoticeError, "Failed to fetch data. Please try again.")
	}
}

func (c *Controller) showFavorites() {
	favorites := c.prefs.Favorites()
	cards := make([]Card, 0, len(favorites))
	for _, fav := range favorites {
		cards = append(cards, Card{Item: fav.Item(), Favorite: true})
	}
	status := metadata.FeedOK
	if len(cards) == 0 {
		status = metadata.FeedEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = ViewFavorites
	c.heading = "My Favorites"
	c.sections = []Section{{Title: "My Favorites", Status: status, Cards: cards}}
}

// SetQuery reacts to search input. Each keystroke cancels and replaces
// the pending debounce timer; the search fires only after the input
// has been quiet for the debounce window. Queries shorter than two
// characters revert to the current tab's default feed.
func (c *Controller) SetQuery(ctx context.Context, query string) {
	c.mu.Lock()
	c.cancelPendingSearchLocked()
	c.query = query

	if len(query) < minQueryLength {
		revert := c.view == ViewSearchResults || c.view == ViewActorResults
		tab := c.tab
		c.mu.Unlock()
		if revert {
			c.SelectTab(ctx, tab)
		}
		return
	}

	c.searchGen++
	gen := c.searchGen
	if c.debounceDelay <= 0 {
		c.mu.Unlock()
		c.performSearch(ctx, query, gen)
		return
	}
	c.debounce = time.AfterFunc(c.debounceDelay, func() {
		c.performSearch(context.Background(), query, gen)
	})
	c.mu.Unlock()
}

func (c *Controller) cancelPendingSearchLocked() {
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.searchGen++
}

func (c *Controller) performSearch(ctx context.Context, query string, gen int) {
	kind := c.searchKind()
	result := c.gateway.Search(ctx, query, kind, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		// A newer keystroke or a tab switch superseded this search.
		return
	}

	switch result.Status {
	case metadata.FeedFailed:
		c.pushNoticeLocked(NoticeError, "Failed to fetch data. Please try again.")
		c.view = ViewSearchResults
		c.heading = fmt.Sprintf("Results for %q", query)
		c.sections = []Section{{Title: c.heading, Status: metadata.FeedFailed}}
	default:
		if err := c.prefs.RecordSearch(query); err != nil {
			c.pushNoticeLocked(NoticeError, "Failed to save search history")
		}
		c.view = ViewSearchResults
		c.heading = fmt.Sprintf("Results for %q", query)
		c.sections = []Section{c.buildSection(c.heading, result)}
	}
}

// searchKind maps the active tab onto the kind searched: the series
// tab scopes searches to series, everything else to movies.
func (c *Controller) searchKind() models.MediaType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tab == ViewSeries {
		return models.MediaTypeSeries
	}
	return models.MediaTypeMovie
}

// OpenDetail fetches the full record for an item and layers the detail
// overlay over the current view. The secondary rating lookup is best
// effort: when it is unavailable the overlay simply omits it.
func (c *Controller) OpenDetail(ctx context.Context, id int64, kind models.MediaType) {
	detail, err := c.gateway.Details(ctx, id, kind)
	if err != nil {
		c.mu.Lock()
		c.pushNoticeLocked(NoticeError, "Failed to fetch data. Please try again.")
		c.mu.Unlock()
		return
	}

	if detail.IMDBID != "" {
		if rating, ok := c.ratings.Lookup(ctx, detail.IMDBID); ok {
			detail.SecondaryRating = rating
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = detail
}

// CloseDetail dismisses the overlay. The underlying view is untouched
// and is not re-fetched.
func (c *Controller) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detail = nil
}

// ToggleFavorite flips membership for the item and persists before
// returning. When the favorites view is active, its content region is
// recomputed immediately.
func (c *Controller) ToggleFavorite(item models.ContentItem) {
	var message string
	if c.prefs.IsFavorite(item.ID) {
		if _, err := c.prefs.RemoveFavorite(item.ID); err != nil {
			c.notifyError("Failed to update favorites")
			return
		}
		message = fmt.Sprintf("Removed %q from favorites", item.Title)
	} else {
		if err := c.prefs.AddFavorite(models.FavoriteFromItem(item)); err != nil {
			c.notifyError("Failed to update favorites")
			return
		}
		message = fmt.Sprintf("Added %q to favorites", item.Title)
	}

	c.mu.Lock()
	onFavorites := c.view == ViewFavorites
	c.pushNoticeLocked(NoticeInfo, message)
	c.mu.Unlock()

	if onFavorites {
		c.showFavorites()
	}
}

// SelectActor closes the detail overlay and replaces the content
// region with titles featuring the actor, labeled distinctly from a
// text search.
func (c *Controller) SelectActor(ctx context.Context, actorID int64, name string) {
	c.CloseDetail()

	kind := c.searchKind()
	result := c.gateway.DiscoverByActor(ctx, actorID, kind)

	label := "Movies"
	if kind == models.MediaTypeSeries {
		label = "TV Shows"
	}
	heading := fmt.Sprintf("%s's %s", name, label)

	c.mu.Lock()
	defer c.mu.Unlock()
	if result.Failed() {
		c.pushNoticeLocked(NoticeError, "Failed to fetch data. Please try again.")
		return
	}
	c.view = ViewActorResults
	c.heading = heading
	c.sections = []Section{c.buildSection(heading, result)}
	c.pushNoticeLocked(NoticeInfo, fmt.Sprintf("Showing content featuring %s", name))
}

// ClearHistory wipes the stored search history.
func (c *Controller) ClearHistory() {
	if err := c.prefs.ClearHistory(); err != nil {
		c.notifyError("Failed to clear search history")
		return
	}
	c.mu.Lock()
	c.pushNoticeLocked(NoticeInfo, "Search history cleared")
	c.mu.Unlock()
}

func (c *Controller) buildSection(title string, result metadata.FeedResult) Section {
	cards := make([]Card, 0, len(result.Items))
	for _, item := range result.Items {
		cards = append(cards, Card{Item: item, Favorite: c.prefs.IsFavorite(item.ID)})
	}
	return Section{Title: title, Status: result.Status, Cards: cards}
}

func (c *Controller) notifyError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushNoticeLocked(NoticeError, message)
}

func (c *Controller) pushNoticeLocked(level NoticeLevel, message string) {
	c.notices = append(c.notices, Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
	})
}

// DismissNotice removes a notice by id.
func (c *Controller) DismissNotice(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}
