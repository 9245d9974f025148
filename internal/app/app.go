// Package app wires the sitekit components together from a loaded config.
// The MCP tools, the HTTP server and the CLI all share one App.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sitekit/sitekit/internal/codeembed"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/events"
	"github.com/sitekit/sitekit/internal/features"
	"github.com/sitekit/sitekit/internal/indexing"
	"github.com/sitekit/sitekit/internal/outline"
	"github.com/sitekit/sitekit/internal/preference"
	"github.com/sitekit/sitekit/internal/repocard"
	"github.com/sitekit/sitekit/internal/search"
	"github.com/sitekit/sitekit/internal/widgets"
)

// App holds the long-lived components
type App struct {
	Config     *config.Config
	Bus        *events.Bus
	Engine     *search.Engine
	Repos      *repocard.Client
	Embedder   *codeembed.Embedder
	Preference *preference.Store
	Widgets    *widgets.Registry

	// local is set when the engine searches a local index
	local *search.LocalBackend
}

// New builds an App. Nothing touches the network or the index until the
// first request or Setup.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	a := &App{
		Config:  cfg,
		Bus:     events.NewBus(),
		Widgets: widgets.NewRegistry(),
	}

	backend, err := a.newBackend()
	if err != nil {
		return nil, err
	}
	a.Engine = search.NewEngine(backend, a.SearchOptions())

	repoOpts := []repocard.Option{repocard.WithCache(cfg.RepoCard.CacheSize, cfg.RepoCard.CacheTTL)}
	if cfg.RepoCard.APIBase != "" {
		repoOpts = append(repoOpts, repocard.WithAPIBase(cfg.RepoCard.APIBase))
	}
	if cfg.RepoCard.ColorsURL != "" {
		repoOpts = append(repoOpts, repocard.WithColorsURL(cfg.RepoCard.ColorsURL))
	}
	if cfg.RepoCard.Token != "" {
		repoOpts = append(repoOpts, repocard.WithToken(cfg.RepoCard.Token))
	}
	a.Repos = repocard.NewClient(repoOpts...)

	embedOpts := []codeembed.EmbedderOption{codeembed.WithAllowList(cfg.Code.EmbedAllow)}
	if cfg.Code.RawBase != "" {
		embedOpts = append(embedOpts, codeembed.WithRawBase(cfg.Code.RawBase))
	}
	a.Embedder = codeembed.NewEmbedder(embedOpts...)

	a.Preference = preference.NewStore(cfg.Preference.Path, a.Bus)
	a.Preference.Load()

	if err := a.registerWidgets(); err != nil {
		return nil, err
	}
	return a, nil
}

// newBackend selects the search backend from the config. Disabled search
// yields a nil backend, which the engine answers with empty results.
func (a *App) newBackend() (search.Backend, error) {
	s := a.Config.Search
	if !s.Enable {
		return nil, nil
	}

	switch {
	case s.Type == config.SearchAlgolia:
		return search.NewRemoteBackend(search.RemoteConfig{
			AppID:     s.Algolia.AppID,
			SearchKey: s.Algolia.SearchKey,
			IndexName: s.Algolia.Index,
			Host:      s.Algolia.Host,
		}), nil
	case s.Type.Local():
		var source indexing.Source
		if s.Index != "" {
			source = indexing.NewSource(s.Index)
		}
		opts := []search.LocalOption{search.WithAnalyzer(s.Analyzer)}
		if s.PersistedIndex != "" {
			opts = append(opts, search.WithPersistedIndex(s.PersistedIndex))
		}
		a.local = search.NewLocalBackend(source, opts...)
		return a.local, nil
	default:
		return nil, fmt.Errorf("unknown search type %q", s.Type)
	}
}

// SearchOptions returns the configured result shaping
func (a *App) SearchOptions() search.Options {
	return search.Options{
		MaxResultLength: a.Config.Search.MaxResultLength,
		SnippetLength:   a.Config.Search.SnippetLength,
		HighlightTag:    a.Config.Search.HighlightTag,
	}.WithDefaults()
}

// ErrNoLocalIndex is returned by RefreshIndex for hosted or disabled search
var ErrNoLocalIndex = errors.New("search does not use a local index")

// RefreshIndex rebuilds the local index from its source
func (a *App) RefreshIndex(ctx context.Context) (uint64, error) {
	if a.local == nil {
		return 0, ErrNoLocalIndex
	}
	return a.local.Refresh(ctx)
}

// IndexedDocs reports the local index size, or 0 before the first build
func (a *App) IndexedDocs() uint64 {
	if a.local == nil {
		return 0
	}
	count, _ := a.local.DocCount()
	return count
}

// registerWidgets adds the server-side half of each widget
func (a *App) registerWidgets() error {
	inits := []struct {
		name string
		fn   widgets.InitFunc
	}{
		{features.WidgetSearch, a.initSearch},
		{features.WidgetOutline, a.initOutline},
		{features.WidgetCodeBlocks, a.initCodeBlocks},
		{features.WidgetRepoCards, a.initRepoCards},
		{features.WidgetCodeEmbeds, a.initCodeEmbeds},
		{features.WidgetTheme, a.initTheme},
	}
	for _, w := range inits {
		if err := a.Widgets.Register(w.name, w.fn); err != nil {
			return err
		}
	}
	return nil
}

// initSearch warms the local index so the first query does not pay for
// the build
func (a *App) initSearch(ctx context.Context) error {
	if !a.Config.Search.Enable || a.Engine.Backend() == nil {
		return widgets.ErrNotConfigured
	}
	if a.local != nil {
		return a.local.EnsureInitialized(ctx)
	}
	if remote, ok := a.Engine.Backend().(*search.RemoteBackend); ok {
		return remote.EnsureInitialized()
	}
	return nil
}

// initRepoCards loads the language colors once
func (a *App) initRepoCards(ctx context.Context) error {
	colors := a.Repos.Colors(ctx)
	log.Printf("Repository cards ready (%d language colors)", len(colors))
	return nil
}

// initOutline checks the breakpoints leave room for a floating outline
func (a *App) initOutline(ctx context.Context) error {
	layout := a.OutlineLayout()
	if layout.MobileBreakpoint > layout.StaticBreakpoint {
		return fmt.Errorf("mobile breakpoint %.0fpx exceeds static breakpoint %.0fpx", layout.MobileBreakpoint, layout.StaticBreakpoint)
	}
	log.Printf("Outline ready (floating above %.0fpx)", layout.StaticBreakpoint)
	return nil
}

// initCodeBlocks loads the highlighter's lexers and styles
func (a *App) initCodeBlocks(ctx context.Context) error {
	if _, err := codeembed.Highlight("package main\n", "main.go", "", 1, 4, a.Preference.Theme()); err != nil {
		return fmt.Errorf("highlighter unavailable: %w", err)
	}
	if limit := a.Config.Code.MaxShownLines; limit >= 0 {
		log.Printf("Code blocks ready (folding past %d lines)", limit+1)
	} else {
		log.Printf("Code blocks ready (never folded)")
	}
	return nil
}

// initCodeEmbeds validates the allow list
func (a *App) initCodeEmbeds(ctx context.Context) error {
	return a.Embedder.Check()
}

// initTheme reloads the stored preference, which the CLI may have changed
func (a *App) initTheme(ctx context.Context) error {
	log.Printf("Theme preference: %s", a.Preference.Load())
	return nil
}

// Setup initialises every widget, logging failures
func (a *App) Setup(ctx context.Context) int {
	return a.Widgets.SetupAll(ctx)
}

// Close releases the search index
func (a *App) Close() error {
	if a.local != nil {
		return a.local.Close()
	}
	return nil
}

// OutlineRequest carries the page geometry a browser would measure
type OutlineRequest struct {
	Width        float64       `json:"width"`
	HeaderHeight float64       `json:"headerHeight"`
	HeaderFixed  bool          `json:"headerFixed"`
	MinPanelTop  float64       `json:"minPanelTop"`
	Frame        outline.Frame `json:"frame"`
}

// OutlineResult is the computed outline state of one page
type OutlineResult struct {
	Page   *outline.Page           `json:"page"`
	Layout outline.Layout          `json:"layout"`
	Static bool                    `json:"static"`
	Mobile bool                    `json:"mobile"`
	State  outline.State           `json:"state"`
	Marks  []outline.SectionMarker `json:"markers"`
}

// ErrFrameMismatch is returned when a frame's heading positions do not line
// up with the headings of the page
var ErrFrameMismatch = errors.New("heading positions do not match page headings")

// CheckFrame verifies f carries one position per heading of page. A frame
// without positions is accepted and yields the initial state.
func CheckFrame(page *outline.Page, f outline.Frame) error {
	if n := len(f.HeadingTops); n != 0 && n != len(page.Headings) {
		return fmt.Errorf("%w: got %d positions for %d headings", ErrFrameMismatch, n, len(page.Headings))
	}
	return nil
}

// ComputeOutline parses a rendered page and computes the active section and
// panel placement for one frame. A static layout reports the initial state.
func (a *App) ComputeOutline(page io.Reader, req OutlineRequest) (*OutlineResult, error) {
	parsed, err := outline.ParsePage(page)
	if err != nil {
		return nil, err
	}
	if err := CheckFrame(parsed, req.Frame); err != nil {
		return nil, err
	}

	layout := a.PageLayout(parsed, req)
	tracker := outline.NewTracker(parsed.Tree, layout, req.Width)
	state, active := tracker.Recompute(req.Frame)

	return &OutlineResult{
		Page:   parsed,
		Layout: tracker.Layout(),
		Static: !active,
		Mobile: layout.Mobile(req.Width),
		State:  state,
		Marks:  outline.BuildMarkers(parsed.HeadingIDs(), req.Frame.HeadingTops, layout.TocSubtract, parsed.Tree.Len()),
	}, nil
}

// PageLayout combines the configured layout with what the page and the
// measured header geometry contribute
func (a *App) PageLayout(page *outline.Page, req OutlineRequest) outline.Layout {
	layout := page.Layout(a.OutlineLayout())
	if a.Config.Outline.TocSubtract >= 0 {
		layout.TocSubtract = a.Config.Outline.TocSubtract
	}
	layout.HeaderHeight = req.HeaderHeight
	layout.HeaderFixed = req.HeaderFixed
	layout.MinPanelTop = req.MinPanelTop
	return layout
}

// OutlineLayout returns the configured base layout
func (a *App) OutlineLayout() outline.Layout {
	return outline.Layout{
		BaseSpacing:      a.Config.Outline.BaseSpacing,
		StaticBreakpoint: a.Config.Outline.StaticBreakpoint,
		MobileBreakpoint: a.Config.Outline.MobileBreakpoint,
		TocSubtract:      a.Config.Outline.TocSubtract,
		Kept:             a.Config.Outline.Kept,
	}.WithDefaults()
}

// OutlineTrackerOptions returns the configured tracker options
func (a *App) OutlineTrackerOptions() []outline.TrackerOption {
	return []outline.TrackerOption{
		outline.WithResizeDebounce(a.Config.Outline.ResizeDebounce),
	}
}
