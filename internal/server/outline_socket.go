package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sitekit/sitekit/internal/app"
	"github.com/sitekit/sitekit/internal/events"
	"github.com/sitekit/sitekit/internal/outline"
)

// Outline socket message types
const (
	outlineInit   = "init"
	outlineScroll = "scroll"
	outlineResize = "resize"
	outlineMask   = "mask"

	outlineReady   = "ready"
	outlineState   = "state"
	outlineLayout  = "layout"
	outlineTheme   = "theme"
	outlineDismiss = "dismiss"
	outlineError   = "error"
)

// outlineMessage is sent by the page. The first message must be init and
// carry the rendered HTML; scroll carries a frame, resize the new viewport
// and header geometry.
type outlineMessage struct {
	Type string `json:"type"`
	HTML string `json:"html,omitempty"`
	app.OutlineRequest
	Height float64 `json:"height,omitempty"`
}

// outlineReply is sent back to the page
type outlineReply struct {
	Type    string                  `json:"type"`
	Layout  *outline.Layout         `json:"layout,omitempty"`
	Static  bool                    `json:"static,omitempty"`
	Mobile  bool                    `json:"mobile,omitempty"`
	State   *outline.State          `json:"state,omitempty"`
	Markers []outline.SectionMarker `json:"markers,omitempty"`
	Theme   string                  `json:"theme,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// outlineSession tracks one open page. Scroll, resize and mask messages are
// published on a bus private to the connection; the tracker follows scroll
// only while the outline floats and re-derives its layout once a burst of
// resizes has settled.
type outlineSession struct {
	id      string
	conn    *websocket.Conn
	app     *app.App
	bus     *events.Bus
	page    *outline.Page
	tracker *outline.Tracker

	writeMu sync.Mutex
	closed  bool

	geoMu    sync.Mutex
	geometry app.OutlineRequest

	// frame is the scroll frame being published; only the read loop sets it
	frame outline.Frame

	unsubs []func()
}

func (o *outlineSession) send(reply outlineReply) {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	if o.closed {
		return
	}
	if err := o.conn.WriteJSON(reply); err != nil {
		log.Printf("Warning: outline socket %s write: %v", o.id, err)
	}
}

func (o *outlineSession) sendError(message string) {
	o.send(outlineReply{Type: outlineError, Error: message})
}

// start parses the page and attaches a tracker for it
func (o *outlineSession) start(msg outlineMessage) error {
	page, err := outline.ParsePage(strings.NewReader(msg.HTML))
	if err != nil {
		return err
	}
	if err := app.CheckFrame(page, msg.Frame); err != nil {
		return err
	}
	o.page = page
	o.geometry = msg.OutlineRequest

	opts := append(o.app.OutlineTrackerOptions(),
		outline.WithRelayout(o.relayout),
		outline.WithOnChange(o.stateChanged),
		outline.WithOnLayout(func(layout outline.Layout, active bool) {
			o.send(outlineReply{
				Type:   outlineLayout,
				Layout: &layout,
				Static: !active,
				Mobile: layout.Mobile(o.tracker.Width()),
			})
		}),
	)
	layout := o.app.PageLayout(page, msg.OutlineRequest)
	o.tracker = outline.NewTracker(page.Tree, layout, msg.Width, opts...)
	o.tracker.Attach(o.bus)

	o.unsubs = append(o.unsubs,
		o.bus.Subscribe(events.TopicMaskClicked, func(any) {
			o.send(outlineReply{Type: outlineDismiss})
		}),
		o.app.Bus.Subscribe(events.TopicThemeChanged, func(payload any) {
			if ev, ok := payload.(events.ThemeChanged); ok {
				o.send(outlineReply{Type: outlineTheme, Theme: ev.Theme})
			}
		}),
	)

	current := o.tracker.Layout()
	o.send(outlineReply{
		Type:   outlineReady,
		Layout: &current,
		Static: !o.tracker.Active(),
		Mobile: current.Mobile(msg.Width),
		Theme:  o.app.Preference.Theme(),
	})
	if len(msg.Frame.HeadingTops) > 0 {
		o.scroll(msg.Frame)
	}
	return nil
}

// relayout derives the layout for a new width from the latest geometry
func (o *outlineSession) relayout(width float64) outline.Layout {
	o.geoMu.Lock()
	geometry := o.geometry
	o.geoMu.Unlock()

	geometry.Width = width
	return o.app.PageLayout(o.page, geometry)
}

// scroll publishes a frame. A static outline holds no scroll subscription
// and the frame goes unanswered.
func (o *outlineSession) scroll(frame outline.Frame) {
	if err := app.CheckFrame(o.page, frame); err != nil {
		o.sendError(err.Error())
		return
	}
	o.frame = frame
	o.bus.Publish(events.TopicScroll, frame)
}

// stateChanged runs on the read loop while a frame is published
func (o *outlineSession) stateChanged(state outline.State) {
	layout := o.tracker.Layout()
	o.send(outlineReply{
		Type:    outlineState,
		State:   &state,
		Markers: outline.BuildMarkers(o.page.HeadingIDs(), o.frame.HeadingTops, layout.TocSubtract, o.page.Tree.Len()),
	})
}

func (o *outlineSession) resize(msg outlineMessage) {
	o.geoMu.Lock()
	o.geometry.HeaderHeight = msg.HeaderHeight
	o.geometry.HeaderFixed = msg.HeaderFixed
	o.geometry.MinPanelTop = msg.MinPanelTop
	o.geoMu.Unlock()

	o.bus.Publish(events.TopicResize, events.Resize{Width: msg.Width, Height: msg.Height})
}

func (o *outlineSession) close() {
	if o.tracker != nil {
		o.tracker.Detach()
	}
	for _, unsub := range o.unsubs {
		unsub()
	}
	o.writeMu.Lock()
	o.closed = true
	o.writeMu.Unlock()
}

// handleOutlineSocket keeps the outline of one open page current as it
// scrolls and resizes, and forwards theme changes made elsewhere
func (s *Server) handleOutlineSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := &outlineSession{
		id:   uuid.NewString(),
		conn: conn,
		app:  s.app,
		bus:  events.NewBus(),
	}
	log.Printf("Outline socket %s opened from %s", session.id, r.RemoteAddr)
	defer log.Printf("Outline socket %s closed", session.id)
	defer session.close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Warning: outline socket %s read: %v", session.id, err)
			}
			return
		}

		var msg outlineMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			session.sendError("invalid message format")
			continue
		}

		if session.tracker == nil {
			if msg.Type != outlineInit || strings.TrimSpace(msg.HTML) == "" {
				session.sendError("expected init message with html")
				continue
			}
			if err := session.start(msg); err != nil {
				session.sendError(err.Error())
			}
			continue
		}

		switch msg.Type {
		case outlineScroll:
			session.scroll(msg.Frame)
		case outlineResize:
			session.resize(msg)
		case outlineMask:
			session.bus.Publish(events.TopicMaskClicked, nil)
		default:
			session.sendError("unknown message type " + msg.Type)
		}
	}
}
