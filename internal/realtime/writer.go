package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	messageBufferSize = 16
)

type outboundKind int

const (
	outboundText outboundKind = iota
	outboundPing
)

type outbound struct {
	kind outboundKind
	data []byte
}

// clientWriter serializes all writes to one websocket connection through a
// single goroutine. The hub never writes to a connection directly; it
// enqueues non-blocking and treats a full buffer as a slow client.
type clientWriter struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan outbound
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan outbound, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendChannel:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			switch msg.kind {
			case outboundPing:
				if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			default:
				if err := cw.connection.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					return
				}
			}
		case <-cw.doneChannel:
			return
		}
	}
}

// trySend enqueues a text message without blocking. Returns false when the
// client's buffer is full.
func (cw *clientWriter) trySend(data []byte) bool {
	select {
	case cw.sendChannel <- outbound{kind: outboundText, data: data}:
		return true
	default:
		return false
	}
}

// tryPing enqueues a liveness probe without blocking.
func (cw *clientWriter) tryPing() bool {
	select {
	case cw.sendChannel <- outbound{kind: outboundPing}:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a websocket close frame with reason before closing. The
// run goroutine must exit first so the close frame is not a concurrent write.
func (cw *clientWriter) stopGraceful(code int, reason string) {
	cw.stopOnce.Do(func() {
		close(cw.doneChannel)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(code, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}
