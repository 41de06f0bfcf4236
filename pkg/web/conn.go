package web

import (
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/session"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn is the view of one browser tab. It implements gallery.Surface,
// gallery.Overlay and the view interfaces of session.Deps by sending Ops
// over the WebSocket.
type Conn struct {
	id     string
	ws     *websocket.Conn
	logger zerolog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	entryHeight float64
}

func newConn(id string, ws *websocket.Conn, logger zerolog.Logger) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		logger: logger,
	}
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) send(op Op) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.logger.Debug().Str("op", op.Op).Msg("Sending view operation")
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(op)
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Append sends the markup of entries as one append operation.
func (c *Conn) Append(entries []gallery.Entry) error {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Markup)
	}
	return c.send(Op{Op: OpAppend, HTML: b.String()})
}

// Clear empties the gallery. The measured entry height is dropped with it.
func (c *Conn) Clear() error {
	c.mu.Lock()
	c.entryHeight = 0
	c.mu.Unlock()
	return c.send(Op{Op: OpClear})
}

// NewOverlay binds the lightbox to the gallery links.
func (c *Conn) NewOverlay() (gallery.Overlay, error) {
	if err := c.send(Op{Op: OpLightbox, Action: LightboxInit}); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh rebinds the lightbox so appended links are included.
func (c *Conn) Refresh() error {
	return c.send(Op{Op: OpLightbox, Action: LightboxRefresh})
}

// Reset returns the page to the state of a fresh session: empty gallery, no
// lightbox, both controls and the loader hidden.
func (c *Conn) Reset() error {
	if err := c.Clear(); err != nil {
		return err
	}
	for _, op := range []Op{
		{Op: OpLightbox, Action: LightboxDestroy},
		{Op: OpControl, Name: ControlLoadMore},
		{Op: OpControl, Name: ControlBackToTop},
		{Op: OpLoader},
	} {
		if err := c.send(op); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) Notify(n session.Notice) error {
	return c.send(Op{Op: OpToast, Notice: &n})
}

func (c *Conn) SetLoadMoreVisible(visible bool) error {
	return c.send(Op{Op: OpControl, Name: ControlLoadMore, Visible: visible})
}

func (c *Conn) SetBackToTopVisible(visible bool) error {
	return c.send(Op{Op: OpControl, Name: ControlBackToTop, Visible: visible})
}

func (c *Conn) ShowLoader(pos session.LoaderPosition) error {
	return c.send(Op{Op: OpLoader, Visible: true, Position: string(pos)})
}

func (c *Conn) HideLoader() error {
	return c.send(Op{Op: OpLoader, Visible: false})
}

func (c *Conn) ClearInput() error {
	empty := ""
	return c.send(Op{Op: OpInput, Value: &empty})
}

// EntryHeight returns the last height reported by a layout event.
func (c *Conn) EntryHeight() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entryHeight, c.entryHeight > 0
}

func (c *Conn) setEntryHeight(h float64) {
	if h < 0 {
		h = 0
	}
	c.mu.Lock()
	c.entryHeight = h
	c.mu.Unlock()
}

func (c *Conn) ScrollBy(dy float64) error {
	return c.send(Op{Op: OpScroll, By: dy, Smooth: true})
}

func (c *Conn) ScrollToTop() error {
	return c.send(Op{Op: OpScroll, Top: true, Smooth: true})
}
