// Package web serves the browser gallery. The page itself is a static shell;
// every search runs in a session.Controller on the server and reaches the
// page as view operations over a WebSocket.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/pixabay-gallery/pkg/gallery"
	"github.com/Sternrassler/pixabay-gallery/pkg/logging"
	"github.com/Sternrassler/pixabay-gallery/pkg/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

//go:embed static
var staticFiles embed.FS

var (
	connectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_connections",
		Help: "Number of open browser connections",
	})

	eventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_events_ignored_total",
		Help: "Browser events dropped because an action was in flight or the event was unknown",
	}, []string{"type"})
)

// Handler serves the shell and the WebSocket endpoint.
type Handler struct {
	mux      *http.ServeMux
	fetcher  session.Fetcher
	config   session.Config
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the browser handler. Every connection gets its own
// renderer and controller backed by fetcher.
func NewHandler(fetcher session.Fetcher, cfg session.Config) *Handler {
	h := &Handler{
		mux:     http.NewServeMux(),
		fetcher: fetcher,
		config:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logging.NewLogger(logging.ComponentWeb),
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	files := gzhttp.GzipHandler(http.FileServer(http.FS(static)))

	h.mux.Handle("GET /", files)
	h.mux.HandleFunc("GET /ws", h.serveWS)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := uuid.NewString()
	logger := h.logger.With().Str("conn_id", id).Logger()
	conn := newConn(id, ws, logger)

	ctrl, err := session.NewController(session.Deps{
		Fetcher:  h.fetcher,
		Gallery:  gallery.New(conn, conn.NewOverlay),
		Notifier: conn,
		Controls: conn,
		Viewport: conn,
	}, h.config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create session controller")
		ws.Close()
		return
	}

	// A reconnecting page still shows the previous session.
	if err := conn.Reset(); err != nil {
		logger.Warn().Err(err).Msg("Failed to reset page")
		ws.Close()
		return
	}

	connectionsOpen.Inc()
	logger.Info().Str("remote_addr", r.RemoteAddr).Msg("Browser connected")

	// The connection outlives the upgrade request.
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		ws.Close()
		connectionsOpen.Dec()
		logger.Info().Msg("Browser disconnected")
	}()

	go conn.keepAlive(ctx)

	var inFlight atomic.Bool
	actions := make(chan Event, 1)
	go runActions(ctx, ctrl, actions, &inFlight, logger)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev Event
		if err := ws.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		switch ev.Type {
		case EventLayout:
			conn.setEntryHeight(ev.EntryHeight)
		case EventScrollTop:
			if err := ctrl.ScrollToTop(); err != nil {
				logger.Warn().Err(err).Msg("Scroll to top failed")
			}
		case EventSubmit, EventLoadMore:
			if !inFlight.CompareAndSwap(false, true) {
				logger.Debug().Str("event", ev.Type).Msg("Event ignored, action in flight")
				eventsIgnored.WithLabelValues(ev.Type).Inc()
				continue
			}
			actions <- ev
		default:
			logger.Debug().Str("event", ev.Type).Msg("Unknown event")
			eventsIgnored.WithLabelValues("unknown").Inc()
		}
	}
}

// runActions executes submit and load-more events one at a time and owns
// the session of the connection. inFlight is cleared after every action.
func runActions(ctx context.Context, ctrl *session.Controller, events <-chan Event, inFlight *atomic.Bool, logger zerolog.Logger) {
	var s session.Session
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			var err error
			switch ev.Type {
			case EventSubmit:
				s, err = ctrl.Submit(ctx, s, ev.Query)
			case EventLoadMore:
				s, err = ctrl.LoadMore(ctx, s)
			}
			if err != nil && !errors.Is(err, session.ErrValidation) && !errors.Is(err, session.ErrNoResults) {
				logger.Debug().Err(err).Str("event", ev.Type).Str("state", s.State.String()).Msg("Action failed")
			}
			inFlight.Store(false)
		}
	}
}

func (c *Conn) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.logger.Debug().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}
