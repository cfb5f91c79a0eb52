package realtime

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ctf-scoreboard/internal/interfaces/realtime")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 8
)

// BoardSource provides the leaderboard pushed to subscribers.
type BoardSource interface {
	Board(ctx context.Context, eventID string) (usecase.Leaderboard, error)
}

type Config struct {
	AllowedOrigins []string
	// BoardTimeout bounds a single board fetch during a broadcast.
	BoardTimeout time.Duration
}

// Hub keeps websocket subscribers grouped by event and pushes a fresh
// leaderboard whenever a score event touches their event.
type Hub struct {
	boards   BoardSource
	logger   *logging.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
	pending map[string]struct{}
	wake    chan struct{}
}

type client struct {
	conn    *websocket.Conn
	eventID string
	send    chan []byte
}

func NewHub(boards BoardSource, cfg Config, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BoardTimeout <= 0 {
		cfg.BoardTimeout = 5 * time.Second
	}

	return &Hub{
		boards: boards,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(cfg.AllowedOrigins),
		},
		timeout: cfg.BoardTimeout,
		clients: make(map[string]map[*client]struct{}),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	allowMap := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			allowMap[origin] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" || allowAll {
			return true
		}
		if _, ok := allowMap[origin]; ok {
			return true
		}
		return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
	}
}

// Run drains pending broadcasts until ctx is done, then closes every
// subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
			h.flush(ctx)
		}
	}
}

// OnScoreEvent schedules a push for the event. Repeated events before the
// next flush are coalesced. A timer change affects every event.
func (h *Hub) OnScoreEvent(_ context.Context, event usecase.ScoreEvent) {
	if event.Kind == usecase.ScoreEventWrongFlag {
		return
	}

	h.mu.Lock()
	if event.EventID == "" {
		for eventID := range h.clients {
			h.pending[eventID] = struct{}{}
		}
	} else if _, ok := h.clients[event.EventID]; ok {
		h.pending[event.EventID] = struct{}{}
	}
	scheduled := len(h.pending) > 0
	h.mu.Unlock()

	if !scheduled {
		return
	}
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Clients reports the number of open subscriptions.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := 0
	for _, group := range h.clients {
		total += len(group)
	}
	return total
}

// ServeEvent upgrades the request and subscribes it to eventID. It blocks
// until the peer disconnects.
func (h *Hub) ServeEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	ctx, span := tracer.Start(r.Context(), "realtime.Hub.ServeEvent")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		span.End()
		h.logger.WarnContext(ctx, "websocket upgrade failed", "event_id", eventID, "error", err)
		return
	}

	c := &client{conn: conn, eventID: eventID, send: make(chan []byte, sendBufferSize)}
	if payload, err := h.render(ctx, eventID); err != nil {
		h.logger.WarnContext(ctx, "initial leaderboard push failed", "event_id", eventID, "error", err)
	} else {
		c.send <- payload
	}
	span.End()

	h.register(c)
	h.logger.InfoContext(ctx, "leaderboard subscriber connected", "event_id", eventID)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.eventID] == nil {
		h.clients[c.eventID] = make(map[*client]struct{})
	}
	h.clients[c.eventID][c] = struct{}{}
}

// unregister closes the send channel exactly once per client.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.clients[c.eventID]
	if !ok {
		return
	}
	if _, ok := group[c]; !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.clients, c.eventID)
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for eventID, group := range h.clients {
		for c := range group {
			close(c.send)
		}
		delete(h.clients, eventID)
	}
}

func (h *Hub) flush(ctx context.Context) {
	h.mu.Lock()
	eventIDs := make([]string, 0, len(h.pending))
	for eventID := range h.pending {
		eventIDs = append(eventIDs, eventID)
	}
	clear(h.pending)
	h.mu.Unlock()

	for _, eventID := range eventIDs {
		h.broadcast(ctx, eventID)
	}
}

func (h *Hub) broadcast(ctx context.Context, eventID string) {
	ctx, span := tracer.Start(ctx, "realtime.Hub.broadcast")
	defer span.End()

	payload, err := h.render(ctx, eventID)
	if err != nil {
		h.logger.WarnContext(ctx, "leaderboard broadcast skipped", "event_id", eventID, "error", err)
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients[eventID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.WarnContext(ctx, "dropping slow leaderboard subscriber", "event_id", eventID)
		h.unregister(c)
	}
}

func (h *Hub) render(ctx context.Context, eventID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	board, err := h.boards.Board(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(newMessage(eventID, board))
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump only watches for disconnects; subscribers never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Message is the frame pushed to subscribers.
type Message struct {
	Type    string     `json:"type"`
	EventID string     `json:"eventId"`
	Teams   []Standing `json:"teams"`
	Timer   *Timer     `json:"timer"`
}

type Standing struct {
	Rank            int      `json:"rank"`
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	TotalPoints     int      `json:"totalPoints"`
	TotalTime       int64    `json:"totalTime"`
	CompletedBadges []string `json:"completedBadges"`
}

type Timer struct {
	StartedAt        time.Time `json:"startedAt"`
	DurationSeconds  int64     `json:"durationSeconds"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	IsActive         bool      `json:"isActive"`
}

func newMessage(eventID string, board usecase.Leaderboard) Message {
	return Message{
		Type:    "leaderboard",
		EventID: eventID,
		Teams:   standings(board.Standings),
		Timer:   timerOf(board.Timer),
	}
}

func standings(items []leaderboard.Standing) []Standing {
	out := make([]Standing, 0, len(items))
	for i, item := range items {
		badges := item.CompletedBadges
		if badges == nil {
			badges = []string{}
		}
		out = append(out, Standing{
			Rank:            i + 1,
			ID:              item.TeamID,
			Name:            item.Name,
			TotalPoints:     item.TotalPoints,
			TotalTime:       item.TotalTime,
			CompletedBadges: badges,
		})
	}
	return out
}

func timerOf(status *timer.Status) *Timer {
	if status == nil {
		return nil
	}
	return &Timer{
		StartedAt:        status.StartedAt,
		DurationSeconds:  status.DurationSeconds,
		RemainingSeconds: status.RemainingSeconds,
		IsActive:         status.IsActive,
	}
}
