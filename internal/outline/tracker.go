package outline

import (
	"sync"
	"time"

	"github.com/sitekit/sitekit/internal/events"
)

// Layout defaults, in CSS pixels
const (
	DefaultBaseSpacing      = 20
	DefaultStaticBreakpoint = 960
	DefaultMobileBreakpoint = 680
	DefaultResizeDebounce   = 100 * time.Millisecond
)

// Position is the CSS positioning of the floating panel
type Position string

const (
	PositionAbsolute Position = "absolute"
	PositionFixed    Position = "fixed"
)

// Layout is the static geometry of a page, re-derived on resize
type Layout struct {
	BaseSpacing  float64 `json:"baseSpacing"`
	HeaderHeight float64 `json:"headerHeight"`
	HeaderFixed  bool    `json:"headerFixed"`

	// MinPanelTop is the panel's offset from the document top in normal flow
	MinPanelTop float64 `json:"minPanelTop"`

	// TocSubtract is the number of leading headings with no outline entry
	TocSubtract int `json:"tocSubtract"`

	StaticBreakpoint float64 `json:"staticBreakpoint"`

	// MobileBreakpoint is the width at or below which the page uses its
	// mobile header and menus
	MobileBreakpoint float64 `json:"mobileBreakpoint"`

	// Kept pins the outline into the static container regardless of width
	Kept bool `json:"kept"`
}

// WithDefaults fills unset spacing and breakpoint values
func (l Layout) WithDefaults() Layout {
	if l.BaseSpacing == 0 {
		l.BaseSpacing = DefaultBaseSpacing
	}
	if l.StaticBreakpoint == 0 {
		l.StaticBreakpoint = DefaultStaticBreakpoint
	}
	if l.MobileBreakpoint == 0 {
		l.MobileBreakpoint = DefaultMobileBreakpoint
	}
	return l
}

// TopSpacing is the distance from the viewport top at which headings count
// as read and the fixed panel is placed
func (l Layout) TopSpacing() float64 {
	if l.HeaderFixed {
		return l.BaseSpacing + l.HeaderHeight
	}
	return l.BaseSpacing
}

// scrollAdjust converts a panel top into the scroll offset at which the
// panel reaches the spacing line
func (l Layout) scrollAdjust(panelTop float64) float64 {
	top := panelTop - l.TopSpacing()
	if !l.HeaderFixed {
		top += l.HeaderHeight
	}
	return top
}

// MinScrollTop is the scroll offset below which the panel stays in flow
func (l Layout) MinScrollTop() float64 {
	return l.scrollAdjust(l.MinPanelTop)
}

// MaxPanelTop is the lowest panel top that keeps it above the footer
func (l Layout) MaxPanelTop(footerTop, panelHeight float64) float64 {
	return footerTop - panelHeight
}

// MaxScrollTop is the scroll offset above which the panel pins to MaxPanelTop
func (l Layout) MaxScrollTop(footerTop, panelHeight float64) float64 {
	return l.scrollAdjust(l.MaxPanelTop(footerTop, panelHeight))
}

// Static reports whether the outline renders without floating at width
func (l Layout) Static(width float64) bool {
	return l.Kept || width <= l.WithDefaults().StaticBreakpoint
}

// Mobile reports whether width is in the mobile range
func (l Layout) Mobile(width float64) bool {
	return width <= l.WithDefaults().MobileBreakpoint
}

// Frame is the geometry sampled on one scroll event
type Frame struct {
	ScrollTop float64 `json:"scrollTop"`

	// HeadingTops are viewport-relative heading tops in document order
	HeadingTops []float64 `json:"headingTops"`

	FooterTop   float64 `json:"footerTop"`
	PanelHeight float64 `json:"panelHeight"`
}

// Panel is the computed placement of the floating outline
type Panel struct {
	Position Position `json:"position"`
	Top      float64  `json:"top"`
}

// State is the full result of one recomputation. Nothing carries over from
// the previous state.
type State struct {
	// ActiveHeading indexes HeadingTops, or -1 without headings
	ActiveHeading int `json:"activeHeading"`

	// ActiveEntry indexes the outline, or -1 when the heading has no entry
	ActiveEntry int `json:"activeEntry"`

	// ActiveEntries is the active entry followed by its ancestors
	ActiveEntries []int `json:"activeEntries"`

	Panel Panel `json:"panel"`
}

// IsEntryActive reports whether entry i or one of its descendants is active
func (s State) IsEntryActive(i int) bool {
	for _, e := range s.ActiveEntries {
		if e == i {
			return true
		}
	}
	return false
}

// SelectActive returns the heading being read: the first heading while none
// has reached spacing, the last heading once all have, otherwise the last
// heading at or above spacing whose successor is still below it.
func SelectActive(tops []float64, spacing float64) int {
	n := len(tops)
	if n == 0 {
		return -1
	}
	for i := 0; i < n-1; i++ {
		if (i == 0 && tops[0] > spacing) || (tops[i] <= spacing && tops[i+1] > spacing) {
			return i
		}
	}
	return n - 1
}

// ClampPanel places the panel for a scroll offset
func ClampPanel(l Layout, scrollTop, footerTop, panelHeight float64) Panel {
	switch {
	case scrollTop < l.MinScrollTop():
		return Panel{Position: PositionAbsolute, Top: l.MinPanelTop}
	case scrollTop > l.MaxScrollTop(footerTop, panelHeight):
		return Panel{Position: PositionAbsolute, Top: l.MaxPanelTop(footerTop, panelHeight)}
	default:
		return Panel{Position: PositionFixed, Top: l.TopSpacing()}
	}
}

// Recompute derives the complete state for a frame. It is pure.
func Recompute(l Layout, tree Tree, f Frame) State {
	l = l.WithDefaults()
	state := State{
		ActiveHeading: SelectActive(f.HeadingTops, l.TopSpacing()),
		ActiveEntry:   -1,
		Panel:         ClampPanel(l, f.ScrollTop, f.FooterTop, f.PanelHeight),
	}

	if state.ActiveHeading >= 0 {
		if entry := state.ActiveHeading - l.TocSubtract; entry >= 0 && entry < tree.Len() {
			state.ActiveEntry = entry
			state.ActiveEntries = tree.Lineage(entry)
		}
	}
	return state
}

// Tracker owns the outline of one page and keeps its state current as
// scroll and resize events arrive on a bus. While the layout is static the
// tracker is inert and holds no scroll subscription.
type Tracker struct {
	mu       sync.Mutex
	tree     Tree
	layout   Layout
	width    float64
	state    State
	onChange func(State)
	onLayout func(Layout, bool)

	// relayout re-derives layout for a new viewport width
	relayout func(width float64) Layout

	bus          *events.Bus
	unsubScroll  func()
	unsubResize  func()
	resizeWindow time.Duration
	debouncer    *Debouncer
	pending      events.Resize
}

// TrackerOption configures a Tracker
type TrackerOption func(*Tracker)

// WithOnChange is called with every recomputed state
func WithOnChange(fn func(State)) TrackerOption {
	return func(t *Tracker) { t.onChange = fn }
}

// WithOnLayout is called after every resize with the new layout and whether
// the tracker still follows scrolling
func WithOnLayout(fn func(layout Layout, active bool)) TrackerOption {
	return func(t *Tracker) { t.onLayout = fn }
}

// WithRelayout supplies the layout for a new viewport width after resize.
// Without it the current layout is kept and only the static check reruns.
func WithRelayout(fn func(width float64) Layout) TrackerOption {
	return func(t *Tracker) { t.relayout = fn }
}

// WithResizeDebounce overrides the resize quiescence window. Non-positive
// values keep the default.
func WithResizeDebounce(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.resizeWindow = d
		}
	}
}

// NewTracker creates a tracker for a page viewed at width
func NewTracker(tree Tree, layout Layout, width float64, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		tree:         tree,
		layout:       layout.WithDefaults(),
		width:        width,
		resizeWindow: DefaultResizeDebounce,
		state:        State{ActiveHeading: -1, ActiveEntry: -1},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Active reports whether the tracker follows scrolling. A page without
// outline entries never activates.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

func (t *Tracker) activeLocked() bool {
	return t.tree.Len() > 0 && !t.layout.Static(t.width)
}

// Layout returns the current layout
func (t *Tracker) Layout() Layout {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.layout
}

// State returns the last computed state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Recompute updates the tracker from a frame. An inert tracker ignores the
// frame and reports false.
func (t *Tracker) Recompute(f Frame) (State, bool) {
	t.mu.Lock()
	if !t.activeLocked() {
		state := t.state
		t.mu.Unlock()
		return state, false
	}
	state := Recompute(t.layout, t.tree, f)
	t.state = state
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
	return state, true
}

// Attach subscribes the tracker to bus. Scroll frames are followed only
// while the layout floats; resize bursts are debounced and then re-derive
// the layout, which may install or remove the scroll subscription.
func (t *Tracker) Attach(bus *events.Bus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bus != nil {
		return
	}
	t.bus = bus
	t.debouncer = NewDebouncer(t.resizeWindow, t.applyResize)
	t.unsubResize = bus.Subscribe(events.TopicResize, func(payload any) {
		ev, ok := payload.(events.Resize)
		if !ok {
			return
		}
		t.mu.Lock()
		t.pending = ev
		t.mu.Unlock()
		t.debouncer.Trigger()
	})
	t.syncScrollLocked()
}

// Detach removes every subscription and stops pending resize work
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bus == nil {
		return
	}
	if t.unsubScroll != nil {
		t.unsubScroll()
		t.unsubScroll = nil
	}
	t.unsubResize()
	t.debouncer.Stop()
	t.bus = nil
}

// Resize applies a new viewport width immediately
func (t *Tracker) Resize(width float64) {
	t.mu.Lock()
	t.pending = events.Resize{Width: width}
	t.mu.Unlock()
	t.applyResize()
}

func (t *Tracker) applyResize() {
	t.mu.Lock()
	t.width = t.pending.Width
	if t.relayout != nil {
		t.layout = t.relayout(t.width).WithDefaults()
	}
	active := t.activeLocked()
	if !active {
		t.state = State{ActiveHeading: -1, ActiveEntry: -1}
	}
	if t.bus != nil {
		t.syncScrollLocked()
	}
	layout, onLayout := t.layout, t.onLayout
	t.mu.Unlock()

	if onLayout != nil {
		onLayout(layout, active)
	}
}

// Width returns the viewport width last applied
func (t *Tracker) Width() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

// syncScrollLocked installs the scroll subscription when floating and
// removes it when static
func (t *Tracker) syncScrollLocked() {
	active := t.activeLocked()
	switch {
	case active && t.unsubScroll == nil:
		t.unsubScroll = t.bus.Subscribe(events.TopicScroll, func(payload any) {
			if f, ok := payload.(Frame); ok {
				t.Recompute(f)
			}
		})
	case !active && t.unsubScroll != nil:
		t.unsubScroll()
		t.unsubScroll = nil
	}
}
