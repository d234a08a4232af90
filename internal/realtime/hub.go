package realtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/drumline-app/drumline/internal/domain"
	"github.com/drumline-app/drumline/internal/identity"
	"github.com/drumline-app/drumline/internal/logging"
	"github.com/drumline-app/drumline/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// ConnState is the lifecycle state of one registered connection. The upgrade
// and credential checks happen in the transport handler before registration,
// so the registry only ever holds these three states: Confirmed and
// Unconfirmed alternate with liveness sweeps, Disconnected is terminal.
type ConnState int

const (
	StateConfirmed ConnState = iota
	StateUnconfirmed
	StateDisconnected
)

// ConnectionProfile is the immutable identity snapshot of one registered
// connection, frozen from its security context at registration. A role or
// school change requires a new connection.
type ConnectionProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SchoolID    int64
	Role        domain.Role
	Super       bool
	ConnectedAt time.Time
}

type client struct {
	profile ConnectionProfile
	// topics is the frozen room set. No hub command mutates it; clients
	// cannot request membership changes.
	topics  []string
	writer  *clientWriter
	state   ConnState
	lastAck time.Time
}

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	profile      ConnectionProfile
	topics       []string
	connection   *websocket.Conn
	replyChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connectionID uuid.UUID
}

type confirmCmd struct {
	baseHubCmd
	connectionID uuid.UUID
}

type emitCmd struct {
	baseHubCmd
	topics       []string
	data         []byte
	replyChannel chan int
}

type sendToCmd struct {
	baseHubCmd
	connectionID uuid.UUID
	data         []byte
}

type profileCmd struct {
	baseHubCmd
	connectionID uuid.UUID
	replyChannel chan profileReply
}

type profileReply struct {
	profile ConnectionProfile
	ok      bool
}

type countCmd struct {
	baseHubCmd
	replyChannel chan int
}

type sweepCmd struct {
	baseHubCmd
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the connection registry. A single goroutine owns all registry state
// and consumes typed commands; nothing else touches the maps, so no locking
// discipline is needed. Construct one Hub at process start and inject it into
// the websocket handler, the dispatcher, and the health monitor.
type Hub struct {
	cmdCh          chan hubCmd
	clock          clockwork.Clock
	conns          map[uuid.UUID]*client
	rooms          map[string]map[uuid.UUID]*client
	maxConnections int
	maxPerRoom     int
	done           chan struct{}
}

// NewHub creates the registry and starts its actor goroutine.
// maxConnections caps the registry size; maxPerRoom caps each room
// (0 disables the per-room cap).
func NewHub(clock clockwork.Clock, maxConnections, maxPerRoom int) *Hub {
	h := &Hub{
		cmdCh:          make(chan hubCmd, 256),
		clock:          clock,
		conns:          make(map[uuid.UUID]*client),
		rooms:          make(map[string]map[uuid.UUID]*client),
		maxConnections: maxConnections,
		maxPerRoom:     maxPerRoom,
		done:           make(chan struct{}),
	}
	go h.run()
	return h
}

// --- Public API ---

// Register inserts a connection record for a resolved security context and
// returns its connection id. The room set is computed here, once, and frozen.
func (h *Hub) Register(sc *identity.SecurityContext, conn *websocket.Conn) (uuid.UUID, error) {
	profile := ConnectionProfile{
		ID:          uuid.New(),
		UserID:      sc.UserID(),
		SchoolID:    sc.SchoolID(),
		Role:        sc.Role(),
		Super:       sc.IsSuper(),
		ConnectedAt: h.clock.Now(),
	}

	connectionID := profile.ID
	conn.SetPongHandler(func(string) error {
		h.Confirm(connectionID)
		return nil
	})

	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{
		profile:      profile,
		topics:       Topics(RoomsFor(sc)),
		connection:   conn,
		replyChannel: errCh,
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			return uuid.Nil, err
		}
		return connectionID, nil
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection after its read loop ends.
func (h *Hub) Unregister(connectionID uuid.UUID) {
	h.cmdCh <- unregisterCmd{connectionID: connectionID}
}

// Confirm marks a connection alive after a liveness probe reply.
func (h *Hub) Confirm(connectionID uuid.UUID) {
	h.cmdCh <- confirmCmd{connectionID: connectionID}
}

// Emit sends data to every distinct connection in the given topics and
// returns the recipient count. 0 is a valid result meaning nobody is
// currently connected; -1 means the command timed out.
func (h *Hub) Emit(topics []string, data []byte) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- emitCmd{topics: topics, data: data, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("Emit timed out", "timeout", commandTimeout)
		return -1
	}
}

// SendTo delivers data to a single connection, e.g. an error notice for a
// rejected relay event.
func (h *Hub) SendTo(connectionID uuid.UUID, data []byte) {
	h.cmdCh <- sendToCmd{connectionID: connectionID, data: data}
}

// Profile returns the frozen identity snapshot for a connection.
func (h *Hub) Profile(connectionID uuid.UUID) (ConnectionProfile, bool) {
	replyCh := make(chan profileReply, 1)
	h.cmdCh <- profileCmd{connectionID: connectionID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.profile, reply.ok
	case <-timer.Chan():
		return ConnectionProfile{}, false
	}
}

// ClientCount returns the number of registered connections, -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- countCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		return -1
	}
}

// Sweep runs one liveness cycle: evict every connection still unconfirmed
// from the previous cycle, then mark the rest unconfirmed and probe them.
// Driven by the health monitor's ticker.
func (h *Hub) Sweep() {
	h.cmdCh <- sweepCmd{}
}

// Stop shuts down the hub, closing all connections. Blocks until the actor
// goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// --- Actor loop ---

func (h *Hub) run() {
	defer close(h.done)

	depthTicker := h.clock.NewTicker(time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.HubCommandChannelDepth.Set(float64(len(h.cmdCh)))
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.removeConnection(c.connectionID, websocket.CloseNormalClosure, "", false)
			case confirmCmd:
				h.handleConfirm(c)
			case emitCmd:
				c.replyChannel <- h.handleEmit(c.topics, c.data)
			case sendToCmd:
				h.handleSendTo(c)
			case profileCmd:
				h.handleProfile(c)
			case countCmd:
				c.replyChannel <- len(h.conns)
			case sweepCmd:
				h.handleSweep()
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.conns) >= h.maxConnections {
		slog.Warn("Rejecting connection: registry full", "max_connections", h.maxConnections)
		_ = c.connection.Close()
		c.replyChannel <- fmt.Errorf("max connections (%d) reached", h.maxConnections)
		return
	}
	if h.maxPerRoom > 0 {
		for _, topic := range c.topics {
			if len(h.rooms[topic]) >= h.maxPerRoom {
				slog.Warn("Rejecting connection: room full",
					"topic", topic, "max_per_room", h.maxPerRoom)
				_ = c.connection.Close()
				c.replyChannel <- fmt.Errorf("room %s is full (%d)", topic, h.maxPerRoom)
				return
			}
		}
	}

	cl := &client{
		profile: c.profile,
		topics:  c.topics,
		writer:  newClientWriter(c.connection, h.clock),
		state:   StateConfirmed,
		lastAck: h.clock.Now(),
	}

	h.conns[c.profile.ID] = cl
	for _, topic := range c.topics {
		room, exists := h.rooms[topic]
		if !exists {
			room = make(map[uuid.UUID]*client)
			h.rooms[topic] = room
		}
		room[c.profile.ID] = cl
	}

	metrics.ConnectedClients.Set(float64(len(h.conns)))
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
	slog.Debug("Connection registered",
		"connection_id", c.profile.ID.String(),
		"user_id", c.profile.UserID.String(),
		"school_id", c.profile.SchoolID,
		"rooms", len(c.topics),
	)
	c.replyChannel <- nil
}

// removeConnection takes a connection out of the registry and every room.
// graceful selects whether a close frame with reason is sent.
func (h *Hub) removeConnection(connectionID uuid.UUID, closeCode int, reason string, graceful bool) {
	cl, exists := h.conns[connectionID]
	if !exists {
		return
	}

	cl.state = StateDisconnected
	delete(h.conns, connectionID)
	for _, topic := range cl.topics {
		if room, ok := h.rooms[topic]; ok {
			delete(room, connectionID)
			if len(room) == 0 {
				delete(h.rooms, topic)
			}
		}
	}

	if graceful {
		cl.writer.stopGraceful(closeCode, reason)
	} else {
		cl.writer.stop()
	}

	metrics.ConnectedClients.Set(float64(len(h.conns)))
	metrics.ActiveRooms.Set(float64(len(h.rooms)))
	slog.Debug("Connection removed",
		"connection_id", connectionID.String(),
		"remaining", len(h.conns),
	)
}

func (h *Hub) handleConfirm(c confirmCmd) {
	cl, exists := h.conns[c.connectionID]
	if !exists {
		return
	}
	cl.state = StateConfirmed
	cl.lastAck = h.clock.Now()
}

func (h *Hub) handleEmit(topics []string, data []byte) int {
	seen := make(map[uuid.UUID]struct{})
	var slow []uuid.UUID
	count := 0

	for _, topic := range topics {
		for connectionID, cl := range h.rooms[topic] {
			if _, dup := seen[connectionID]; dup {
				continue
			}
			seen[connectionID] = struct{}{}
			if cl.writer.trySend(data) {
				count++
			} else {
				slow = append(slow, connectionID)
			}
		}
	}

	for _, connectionID := range slow {
		logging.WithConnection(connectionID).Warn("Disconnecting slow client")
		metrics.SlowClientEvictionsTotal.Inc()
		h.removeConnection(connectionID, websocket.CloseGoingAway, "send buffer full", true)
	}

	return count
}

func (h *Hub) handleSendTo(c sendToCmd) {
	cl, exists := h.conns[c.connectionID]
	if !exists {
		return
	}
	if !cl.writer.trySend(c.data) {
		metrics.SlowClientEvictionsTotal.Inc()
		h.removeConnection(c.connectionID, websocket.CloseGoingAway, "send buffer full", true)
	}
}

func (h *Hub) handleProfile(c profileCmd) {
	cl, exists := h.conns[c.connectionID]
	if !exists {
		c.replyChannel <- profileReply{}
		return
	}
	c.replyChannel <- profileReply{profile: cl.profile, ok: true}
}

// handleSweep is one health monitor cycle. A connection that failed to
// confirm since the previous sweep has missed a full cycle and is evicted;
// everyone else is marked unconfirmed and probed.
func (h *Hub) handleSweep() {
	var stale []uuid.UUID
	for connectionID, cl := range h.conns {
		if cl.state == StateUnconfirmed {
			stale = append(stale, connectionID)
			continue
		}
		cl.state = StateUnconfirmed
		cl.writer.tryPing()
	}

	for _, connectionID := range stale {
		logging.WithConnection(connectionID).Info("Evicting unresponsive connection")
		metrics.LivenessEvictionsTotal.Inc()
		h.removeConnection(connectionID, websocket.CloseGoingAway, "liveness timeout", true)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "connections", len(h.conns))
	for connectionID := range h.conns {
		h.removeConnection(connectionID, websocket.CloseGoingAway, "server shutting down", true)
	}
}
