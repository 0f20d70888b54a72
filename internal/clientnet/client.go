// Package clientnet is the host-side counterpart to the relay server:
// it opens one TCP connection, performs the Hello handshake, and
// exposes a non-blocking inbox the host's frame loop drains with
// Poll.
package clientnet

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/khaaarl/elven-canopy/internal/wire"
)

const helloTimeout = 5 * time.Second

// RejectedError reports a Hello rejected by the relay.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("relay rejected hello: %s", e.Reason)
}

// ProtocolError reports a handshake response that was neither Welcome
// nor Rejected.
type ProtocolError struct {
	Got wire.ServerMessageType
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("relay: unexpected message during handshake: %s", e.Got)
}

// Client holds one relay connection. Writes happen only from the host
// thread calling SendCommand/other Send* methods; a single background
// goroutine reads and decodes every ServerMessage onto Inbox.
type Client struct {
	PlayerId     wire.PlayerId
	SessionName  string
	TicksPerTurn uint32

	conn   net.Conn
	logger *slog.Logger
	inbox  chan wire.ServerMessage
	seq    atomic.Uint64
	closed atomic.Bool
}

// Connect opens addr, sends Hello, and waits up to helloTimeout for
// Welcome or Rejected. On Welcome it spawns the background reader and
// returns a ready Client.
func Connect(addr, name, simHash, configHash string, password *string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("clientnet: dial %s: %w", addr, err)
	}

	hello := wire.HelloPayload{
		ProtocolVersion: protocolVersion,
		PlayerName:      name,
		SimVersionHash:  simHash,
		ConfigHash:      configHash,
		SessionPassword: password,
	}
	data, err := wire.EncodeClientMessage(wire.ClientHello, hello)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := wire.WriteFrame(conn, data); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clientnet: send hello: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	raw, err := wire.ReadFrame(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clientnet: read handshake reply: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	msg, err := wire.DecodeServerMessage(raw)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	switch msg.Type {
	case wire.ServerWelcome:
		var welcome wire.WelcomePayload
		if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("clientnet: malformed welcome: %w", err)
		}
		c := &Client{
			PlayerId:     welcome.PlayerId,
			SessionName:  welcome.SessionName,
			TicksPerTurn: welcome.TicksPerTurn,
			conn:         conn,
			logger:       logger,
			inbox:        make(chan wire.ServerMessage, 256),
		}
		go c.readLoop()
		return c, nil

	case wire.ServerRejected:
		var rejected wire.RejectedPayload
		_ = json.Unmarshal(msg.Payload, &rejected)
		_ = conn.Close()
		return nil, &RejectedError{Reason: rejected.Reason}

	default:
		_ = conn.Close()
		return nil, &ProtocolError{Got: msg.Type}
	}
}

// protocolVersion must match relay.ProtocolVersion; duplicated here
// rather than imported to keep clientnet free of a relay package
// dependency (a real client binary and the relay never share a
// process).
const protocolVersion uint32 = 1

func (c *Client) readLoop() {
	defer close(c.inbox)
	for {
		raw, err := wire.ReadFrame(c.conn)
		if err != nil {
			if !c.closed.Load() {
				c.logger.Debug("clientnet: connection closed", "error", err)
			}
			return
		}
		msg, err := wire.DecodeServerMessage(raw)
		if err != nil {
			c.logger.Warn("clientnet: malformed server message", "error", err)
			continue
		}
		c.inbox <- msg
	}
}

// SendCommand wraps payload with the next monotonic ActionSequence and
// sends it framed.
func (c *Client) SendCommand(payload [][]byte) error {
	seq := c.seq.Add(1)
	data, err := wire.EncodeClientMessage(wire.ClientCommand, wire.CommandPayload{Sequence: seq, Payload: payload})
	if err != nil {
		return err
	}
	return wire.WriteFrame(c.conn, data)
}

// SendChecksum reports a computed state hash for a tick.
func (c *Client) SendChecksum(tick uint64, hash uint64) error {
	return c.send(wire.ClientChecksum, wire.ChecksumPayload{Tick: tick, Hash: hash})
}

// SendChat sends a chat line.
func (c *Client) SendChat(text string) error {
	return c.send(wire.ClientChat, wire.ChatPayload{Text: text})
}

// SendSetSpeed requests a new cadence. Ignored by the relay if the
// caller is not host.
func (c *Client) SendSetSpeed(ticksPerTurn uint32) error {
	return c.send(wire.ClientSetSpeed, wire.SetSpeedPayload{TicksPerTurn: ticksPerTurn})
}

// SendRequestPause / SendRequestResume toggle the shared pause state.
func (c *Client) SendRequestPause() error  { return c.send(wire.ClientRequestPause, nil) }
func (c *Client) SendRequestResume() error { return c.send(wire.ClientRequestResume, nil) }

// SendStartGame begins the game. Ignored by the relay if not host.
func (c *Client) SendStartGame(seed uint64, configJSON json.RawMessage) error {
	return c.send(wire.ClientStartGame, wire.StartGamePayload{Seed: seed, ConfigJSON: configJSON})
}

// SendGoodbye announces a clean departure and closes the connection.
func (c *Client) SendGoodbye() error {
	err := c.send(wire.ClientGoodbye, nil)
	c.Close()
	return err
}

func (c *Client) send(t wire.ClientMessageType, payload interface{}) error {
	data, err := wire.EncodeClientMessage(t, payload)
	if err != nil {
		return err
	}
	return wire.WriteFrame(c.conn, data)
}

// Poll drains every ServerMessage currently queued, without blocking.
// The host calls this once per frame.
func (c *Client) Poll() []wire.ServerMessage {
	var out []wire.ServerMessage
	for {
		select {
		case msg, ok := <-c.inbox:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

// Close marks the connection as intentionally closed and closes the
// socket, unblocking the background reader.
func (c *Client) Close() {
	c.closed.Store(true)
	_ = c.conn.Close()
}
