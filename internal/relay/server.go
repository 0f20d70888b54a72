package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khaaarl/elven-canopy/internal/wire"
)

// handshakeTimeout bounds how long a not-yet-admitted connection may
// take to send its Hello.
const handshakeTimeout = 5 * time.Second

// DefaultTurnInterval is the period of the main loop's turn ticker;
// each time it elapses the main loop flushes the current turn. It
// governs real-time turn cadence and is
// independent of TicksPerTurn, which only sets sim_tick_target math.
const DefaultTurnInterval = 100 * time.Millisecond

type connWriter struct {
	conn net.Conn
}

func (c *connWriter) Send(data []byte) error {
	return wire.WriteFrame(c.conn, data)
}

type newConnEvent struct {
	conn  net.Conn
	hello wire.HelloPayload
}

type messageEvent struct {
	playerId wire.PlayerId
	msg      wire.ClientMessage
}

type disconnectEvent struct {
	playerId wire.PlayerId
}

// Server accepts TCP connections, performs the Hello handshake, and
// runs the single-writer main loop that owns Session. Every other
// goroutine only ever sends events on Server's internal channel; none
// mutate Session or write to a client socket directly.
type Server struct {
	Addr    string
	Session *Session
	logger  *slog.Logger

	events      chan interface{}
	keepRunning atomic.Bool
	listener    net.Listener
}

// NewServer constructs a relay server for addr (":0" lets the OS pick
// a port; ListenAddr reports the bound address once Run or Serve has
// started — tests typically listen themselves and call Serve).
func NewServer(addr string, session *Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Addr:    addr,
		Session: session,
		logger:  logger,
		events:  make(chan interface{}, 256),
	}
}

// ListenAddr returns the bound listener's address. Only valid after
// Run has started listening (call from another goroutine, or inspect
// after Run returns on bind failure it will be the zero value).
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds the listener and blocks until ctx is cancelled or Stop is
// called, running the accept loop and the main loop under an
// errgroup so the first fatal error from either propagates to the
// caller.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("relay: bind %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept and main loops against an already-bound
// listener. Run is a thin wrapper that binds s.Addr and calls Serve;
// tests that need the bound address before the loops start (port 0)
// call Serve directly after listening themselves.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.listener = ln
	s.keepRunning.Store(true)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.acceptLoop(ln)
		cancel()
		return nil
	})
	g.Go(func() error {
		return s.mainLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Stop()
		return nil
	})

	err := g.Wait()
	_ = ln.Close()
	return err
}

// Stop flips the shared keep-running flag and unblocks the accept
// loop by closing the listener. Safe to call more than once.
func (s *Server) Stop() {
	if !s.keepRunning.CompareAndSwap(true, false) {
		return
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for s.keepRunning.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !s.keepRunning.Load() {
				return
			}
			s.logger.Warn("accept error", "error", err)
			continue
		}
		go s.handshake(conn)
	}
}

// handshake reads exactly one Hello within handshakeTimeout and hands
// the parsed result to the main loop as a newConnEvent. It never
// touches Session.
func (s *Server) handshake(conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	raw, err := wire.ReadFrame(conn)
	if err != nil {
		s.logger.Debug("handshake read failed", "error", err)
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	msg, err := wire.DecodeClientMessage(raw)
	if err != nil || msg.Type != wire.ClientHello {
		s.logger.Debug("handshake expected hello", "type", msg.Type, "error", err)
		_ = conn.Close()
		return
	}

	var hello wire.HelloPayload
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		_ = conn.Close()
		return
	}

	s.events <- newConnEvent{conn: conn, hello: hello}
}

// readLoop runs for the lifetime of an admitted connection, forwarding
// every subsequent message (or a disconnect) to the main loop.
func (s *Server) readLoop(id wire.PlayerId, conn net.Conn) {
	for {
		raw, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("read error, treating as disconnect", "player_id", id, "error", err)
			}
			s.events <- disconnectEvent{playerId: id}
			return
		}
		msg, err := wire.DecodeClientMessage(raw)
		if err != nil {
			s.logger.Warn("malformed message, disconnecting", "player_id", id, "error", err)
			s.events <- disconnectEvent{playerId: id}
			return
		}
		s.events <- messageEvent{playerId: id, msg: msg}
		if msg.Type == wire.ClientGoodbye {
			return
		}
	}
}

// mainLoop is the single writer and single mutator of Session. It
// wakes either on an event or on the DefaultTurnInterval ticker,
// flushing the turn on every ticker tick.
func (s *Server) mainLoop(ctx context.Context) error {
	ticker := time.NewTicker(DefaultTurnInterval)
	defer ticker.Stop()

	conns := make(map[wire.PlayerId]net.Conn)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Session.FlushTurn()
		case ev := <-s.events:
			switch e := ev.(type) {
			case newConnEvent:
				s.handleNewConn(e, conns)
			case messageEvent:
				if !s.handleMessage(e, conns) {
					return nil
				}
			case disconnectEvent:
				delete(conns, e.playerId)
				s.Session.RemovePlayer(e.playerId)
			}
		}
	}
}

func (s *Server) handleNewConn(e newConnEvent, conns map[wire.PlayerId]net.Conn) {
	cw := &connWriter{conn: e.conn}
	result, rejected := s.Session.AddPlayer(cw, e.hello)
	if rejected != nil {
		data, _ := wire.EncodeServerMessage(wire.ServerRejected, rejected)
		_ = wire.WriteFrame(e.conn, data)
		_ = e.conn.Close()
		return
	}

	data, _ := wire.EncodeServerMessage(wire.ServerWelcome, result.Welcome)
	if err := wire.WriteFrame(e.conn, data); err != nil {
		s.logger.Warn("failed to send welcome", "error", err)
		_ = e.conn.Close()
		return
	}

	conns[result.PlayerId] = e.conn
	go s.readLoop(result.PlayerId, e.conn)
}

// handleMessage returns false if the server should shut down (it
// never does on a per-message basis today; reserved for symmetry with
// the event switch and future admin commands).
func (s *Server) handleMessage(e messageEvent, conns map[wire.PlayerId]net.Conn) bool {
	id := e.playerId
	switch e.msg.Type {
	case wire.ClientCommand:
		var p wire.CommandPayload
		if json.Unmarshal(e.msg.Payload, &p) == nil {
			s.Session.EnqueueCommand(id, p)
		}
	case wire.ClientChecksum:
		var p wire.ChecksumPayload
		if json.Unmarshal(e.msg.Payload, &p) == nil {
			s.Session.RecordChecksum(id, p.Tick, p.Hash)
		}
	case wire.ClientSetSpeed:
		var p wire.SetSpeedPayload
		if json.Unmarshal(e.msg.Payload, &p) == nil {
			s.Session.SetSpeed(id, p.TicksPerTurn)
		}
	case wire.ClientRequestPause:
		s.Session.RequestPause(id)
	case wire.ClientRequestResume:
		s.Session.RequestResume(id)
	case wire.ClientChat:
		var p wire.ChatPayload
		if json.Unmarshal(e.msg.Payload, &p) == nil {
			s.Session.Chat(id, p.Text)
		}
	case wire.ClientStartGame:
		var p wire.StartGamePayload
		if json.Unmarshal(e.msg.Payload, &p) == nil {
			s.Session.HandleStartGame(id, p.Seed, p.ConfigJSON)
		}
	case wire.ClientSnapshotResponse:
		// Forwarding a snapshot blob to a specific late joiner is not
		// implemented; see DESIGN.md.
	case wire.ClientGoodbye:
		if conn, ok := conns[id]; ok {
			_ = conn.Close()
			delete(conns, id)
		}
		s.Session.RemovePlayer(id)
	default:
		s.logger.Warn("unknown client message type", "type", e.msg.Type)
	}
	return true
}
