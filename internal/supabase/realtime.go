package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gwientjes/wall-cli/internal/wall"
)

// PostsTopic is the realtime channel scoped to inserts on the posts table.
const PostsTopic = "realtime:public:posts"

const (
	heartbeatInterval = 30 * time.Second
	writeWait         = 10 * time.Second
	readWait          = 60 * time.Second

	reconnectBase = time.Second
	reconnectMax  = time.Minute
)

// StreamState describes the subscriber's connection lifecycle.
type StreamState int

const (
	StreamConnecting StreamState = iota
	StreamLive
	StreamReconnecting
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamConnecting:
		return "connecting"
	case StreamLive:
		return "live"
	case StreamReconnecting:
		return "reconnecting"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StreamStatus is one connection state transition, with the error that
// caused it when the transition was a failure.
type StreamStatus struct {
	State StreamState
	Err   error
}

// phoenixMessage is the realtime protocol frame: every message carries a
// topic, an event name, a payload, and a client-assigned ref.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// changePayload is the body of a postgres change event.
type changePayload struct {
	Type   string     `json:"type"`
	Record postRecord `json:"record"`
}

// Subscriber maintains a long-lived realtime connection and delivers one
// wall.Post per insert notification, in arrival order, on Posts(). On
// read failures it redials with capped exponential backoff and rejoins
// the topic; transitions are reported on Status(). Close releases the
// connection and closes both channels; nothing is delivered afterwards.
type Subscriber struct {
	wsURL  string
	dialer *websocket.Dialer

	posts  chan wall.Post
	status chan StreamStatus
	done   chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSubscriber builds a subscriber for the backend at baseURL. The
// http(s) scheme is rewritten to ws(s); the anon key rides the query
// string as the realtime endpoint expects.
func NewSubscriber(baseURL, anonKey string) *Subscriber {
	wsURL := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/realtime/v1/websocket?apikey=" + anonKey + "&vsn=1.0.0"

	return &Subscriber{
		wsURL:  wsURL,
		dialer: websocket.DefaultDialer,
		posts:  make(chan wall.Post, 32),
		status: make(chan StreamStatus, 8),
		done:   make(chan struct{}),
	}
}

// Posts is the insert notification stream. The channel is closed when the
// subscriber shuts down.
func (s *Subscriber) Posts() <-chan wall.Post {
	return s.posts
}

// Status reports connection state transitions. Best effort: transitions
// are dropped rather than blocking the pump when the consumer lags.
func (s *Subscriber) Status() <-chan StreamStatus {
	return s.status
}

// Start runs the connection loop until Close is called or ctx is
// cancelled.
func (s *Subscriber) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Close tears the subscriber down. Safe to call more than once.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriber) run(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.posts)
	defer close(s.status)

	backoff := reconnectBase
	for attempt := 0; ; attempt++ {
		if s.stopped(ctx) {
			s.report(StreamStatus{State: StreamClosed})
			return
		}

		if attempt == 0 {
			s.report(StreamStatus{State: StreamConnecting})
		}

		err := s.runConnection(ctx)
		if s.stopped(ctx) || err == nil {
			s.report(StreamStatus{State: StreamClosed})
			return
		}

		s.report(StreamStatus{State: StreamReconnecting, Err: err})
		if !s.sleep(ctx, jitter(backoff)) {
			s.report(StreamStatus{State: StreamClosed})
			return
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// runConnection dials, joins the posts topic, and pumps messages until
// the connection drops. A nil return means a deliberate shutdown.
func (s *Subscriber) runConnection(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}
	defer conn.Close()

	// Closing the connection is the only way to unblock a pending read
	// when the subscriber shuts down.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-s.done:
			conn.Close()
		case <-ctx.Done():
			conn.Close()
		case <-connDone:
		}
	}()

	if err := s.join(conn); err != nil {
		return err
	}
	s.report(StreamStatus{State: StreamLive})

	// Heartbeats keep the server-side channel open; the writer stops
	// with the connection.
	stopHeartbeat := make(chan struct{})
	defer close(stopHeartbeat)
	go s.heartbeatPump(conn, stopHeartbeat)

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	for {
		var msg phoenixMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if s.stopped(ctx) {
				return nil
			}
			return fmt.Errorf("read realtime message: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		if msg.Topic != PostsTopic || msg.Event != "INSERT" {
			continue
		}

		var change changePayload
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			continue
		}
		if change.Type != "" && change.Type != "INSERT" {
			continue
		}

		select {
		case s.posts <- change.Record.toPost():
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Subscriber) join(conn *websocket.Conn) error {
	join := phoenixMessage{
		Topic:   PostsTopic,
		Event:   "phx_join",
		Payload: json.RawMessage(`{}`),
		Ref:     "1",
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join %s: %w", PostsTopic, err)
	}
	return nil
}

func (s *Subscriber) heartbeatPump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ref := 2
	for {
		select {
		case <-ticker.C:
			beat := phoenixMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     strconv.Itoa(ref),
			}
			ref++
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(beat); err != nil {
				return
			}
		case <-stop:
			return
		case <-s.done:
			return
		}
	}
}

func (s *Subscriber) report(status StreamStatus) {
	select {
	case s.status <- status:
	default:
	}
}

func (s *Subscriber) stopped(ctx context.Context) bool {
	select {
	case <-s.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (s *Subscriber) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// jitter spreads reconnect attempts across ±50% of the base delay.
func jitter(d time.Duration) time.Duration {
	half := int64(d) / 2
	return time.Duration(half + rand.Int64N(int64(d)))
}
