package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/angelmondragon/mealbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealbridge-backend/pkg/errors"
	"github.com/angelmondragon/mealbridge-backend/pkg/logger"
)

const (
	EventJoin   = "join-delivery-tracking"
	EventLeave  = "leave-delivery-tracking"
	EventJoined = "joined-delivery-tracking"
	EventLeft   = "left-delivery-tracking"
	EventError  = "error"

	defaultSendBuffer   = 16
	defaultWriteTimeout = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxClientFrame      = 1024
)

type orderSubscriber interface {
	Subscribe(ctx context.Context, orderID uuid.UUID) (Subscription, error)
}

type accessChecker interface {
	Authorize(ctx context.Context, actorID uuid.UUID, role enums.UserRole, orderID uuid.UUID) error
}

// HubParams configures the websocket tracking endpoint.
type HubParams struct {
	Broker         orderSubscriber
	Access         accessChecker
	Logger         *logger.Logger
	AllowedOrigins []string
	SendBuffer     int
	WriteTimeout   time.Duration
}

// Hub upgrades authenticated requests and relays broker events per joined order.
type Hub struct {
	broker       orderSubscriber
	access       accessChecker
	logg         *logger.Logger
	sendBuffer   int
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	conns    map[*connection]struct{}
	draining bool
	serving  sync.WaitGroup
}

var errHubClosed = errors.New("tracking hub closed")

func NewHub(params HubParams) (*Hub, error) {
	if params.Broker == nil {
		return nil, errors.New("tracking broker required")
	}
	if params.Access == nil {
		return nil, errors.New("tracking access checker required")
	}
	h := &Hub{
		broker:       params.Broker,
		access:       params.Access,
		logg:         params.Logger,
		sendBuffer:   params.SendBuffer,
		writeTimeout: params.WriteTimeout,
		conns:        make(map[*connection]struct{}),
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = defaultSendBuffer
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(params.AllowedOrigins),
	}
	return h, nil
}

// originChecker allows any origin when none are configured.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

type clientMessage struct {
	Event   string `json:"event"`
	OrderID string `json:"orderId"`
}

type orderRef struct {
	OrderID uuid.UUID `json:"orderId"`
}

type errorFrame struct {
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

// Serve upgrades the request and blocks until the client disconnects.
// The caller has already authenticated actorID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, actorID uuid.UUID, role enums.UserRole) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		hub:        h,
		ws:         ws,
		actorID:    actorID,
		role:       role,
		send:       make(chan []byte, h.sendBuffer),
		closed:     make(chan struct{}),
		writerDone: make(chan struct{}),
		subs:       make(map[uuid.UUID]Subscription),
	}
	if !h.track(c) {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.writeTimeout))
		_ = ws.Close()
		return errHubClosed
	}
	defer h.untrack(c)

	go c.writePump()
	c.readPump(r.Context())
	return nil
}

// Close ends every live tracking socket and refuses new ones. It does not
// wait for the handlers to return.
func (h *Hub) Close() {
	h.mu.Lock()
	h.draining = true
	live := make([]*connection, 0, len(h.conns))
	for c := range h.conns {
		live = append(live, c)
	}
	h.mu.Unlock()

	for _, c := range live {
		c.shutdown()
	}
}

// Drain closes the hub and waits for every Serve call to return or ctx to end.
func (h *Hub) Drain(ctx context.Context) error {
	h.Close()
	done := make(chan struct{})
	go func() {
		h.serving.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) track(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.conns[c] = struct{}{}
	h.serving.Add(1)
	return true
}

func (h *Hub) untrack(c *connection) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.serving.Done()
}

// live reports how many sockets are being served.
func (h *Hub) live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

type connection struct {
	hub     *Hub
	ws      *websocket.Conn
	actorID uuid.UUID
	role    enums.UserRole
	send    chan []byte

	// closed is shut once by shutdown; writerDone when writePump exits.
	closed     chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}

	mu   sync.Mutex
	subs map[uuid.UUID]Subscription
}

func (c *connection) readPump(ctx context.Context) {
	defer c.shutdown()

	c.ws.SetReadLimit(maxClientFrame)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.warn(ctx, "tracking socket closed unexpectedly")
			}
			return
		}

		switch msg.Event {
		case EventJoin:
			c.join(ctx, msg.OrderID)
		case EventLeave:
			c.leave(msg.OrderID)
		default:
			c.reply(EventError, errorFrame{Message: "unknown event"})
		}
	}
}

func (c *connection) join(ctx context.Context, raw string) {
	orderID, err := uuid.Parse(raw)
	if err != nil {
		c.reply(EventError, errorFrame{Message: "invalid orderId", OrderID: raw})
		return
	}

	c.mu.Lock()
	_, joined := c.subs[orderID]
	c.mu.Unlock()
	if joined {
		c.reply(EventJoined, orderRef{OrderID: orderID})
		return
	}

	if err := c.hub.access.Authorize(ctx, c.actorID, c.role, orderID); err != nil {
		c.reply(EventError, errorFrame{Message: publicMessage(err), OrderID: raw})
		return
	}

	sub, err := c.hub.broker.Subscribe(ctx, orderID)
	if err != nil {
		c.hub.logError(ctx, "subscribe tracking channel", err)
		c.reply(EventError, errorFrame{Message: "tracking unavailable", OrderID: raw})
		return
	}

	c.mu.Lock()
	if c.subs == nil {
		c.mu.Unlock()
		_ = sub.Close()
		return
	}
	c.subs[orderID] = sub
	c.mu.Unlock()

	go c.forward(sub)
	c.reply(EventJoined, orderRef{OrderID: orderID})
}

func (c *connection) leave(raw string) {
	orderID, err := uuid.Parse(raw)
	if err != nil {
		c.reply(EventError, errorFrame{Message: "invalid orderId", OrderID: raw})
		return
	}
	c.mu.Lock()
	sub, ok := c.subs[orderID]
	delete(c.subs, orderID)
	c.mu.Unlock()
	if ok {
		_ = sub.Close()
	}
	c.reply(EventLeft, orderRef{OrderID: orderID})
}

// forward relays broker frames; a full send buffer drops the frame.
func (c *connection) forward(sub Subscription) {
	for payload := range sub.Messages() {
		select {
		case <-c.closed:
			return
		case <-c.writerDone:
			return
		case c.send <- payload:
		default:
			c.hub.warn(context.Background(), "tracking client too slow, dropped location update")
		}
	}
}

func (c *connection) reply(event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	case <-c.closed:
	case <-c.writerDone:
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
		// Unblocks readPump's pending read so it runs shutdown.
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// shutdown stops the writer and closes every subscription. Safe to call
// from readPump and Hub.Close concurrently.
func (c *connection) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		subs := c.subs
		c.subs = nil
		c.mu.Unlock()
		for _, sub := range subs {
			_ = sub.Close()
		}
	})
}

func publicMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "tracking unavailable"
}

func (h *Hub) warn(ctx context.Context, msg string) {
	if h.logg != nil {
		h.logg.Warn(ctx, msg)
	}
}

func (h *Hub) logError(ctx context.Context, msg string, err error) {
	if h.logg != nil {
		h.logg.Error(ctx, msg, err)
	}
}
