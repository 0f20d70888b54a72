// Package relay implements the turn-coordinating session and the TCP
// server that multiplexes clients onto it. Session holds all mutable
// game-lobby state and is touched only by the server's single main
// loop goroutine; it carries no internal locking.
package relay

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/khaaarl/elven-canopy/internal/wire"
)

// ProtocolVersion is the only wire protocol version this relay speaks.
const ProtocolVersion uint32 = 1

// PlayerConn is the write half of a connected client's socket, as seen
// by Session. The server owns the underlying net.Conn and read half;
// Session only ever writes framed, already-encoded messages.
type PlayerConn interface {
	Send(data []byte) error
}

type rosterEntry struct {
	Id         wire.PlayerId
	Name       string
	SimHash    string
	ConfigHash string
	Conn       PlayerConn
}

// Session holds one game lobby's roster, pending turn buffer, and
// per-tick checksum ledger. All mutating methods are meant to be
// called exclusively from the relay server's main loop goroutine.
type Session struct {
	Name         string
	Password     *string
	TicksPerTurn uint32
	MaxPlayers   int

	TurnNumber  uint64
	Paused      bool
	GameStarted bool

	simVersionHash string
	configHash     string
	hostId         wire.PlayerId
	hostSet        bool
	nextPlayerId   wire.PlayerId

	players map[wire.PlayerId]*rosterEntry
	pending []wire.TurnCommand

	// checksums[tick][playerId] = hash
	checksums      map[uint64]map[wire.PlayerId]uint64
	desyncReported map[uint64]bool

	logger *slog.Logger
}

// NewSession constructs an empty lobby. password, when non-nil,
// gates AddPlayer.
func NewSession(name string, password *string, ticksPerTurn uint32, maxPlayers int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Name:           name,
		Password:       password,
		TicksPerTurn:   ticksPerTurn,
		MaxPlayers:     maxPlayers,
		players:        make(map[wire.PlayerId]*rosterEntry),
		checksums:      make(map[uint64]map[wire.PlayerId]uint64),
		desyncReported: make(map[uint64]bool),
		logger:         logger,
	}
}

// AddPlayerResult is returned on a successful handshake.
type AddPlayerResult struct {
	PlayerId wire.PlayerId
	Welcome  wire.WelcomePayload
}

// AddPlayer validates a Hello against session-wide invariants (the
// protocol version must equal ProtocolVersion; the first player defines
// the sim/config hashes and becomes host) and
// either admits the player, broadcasting PlayerJoined to the existing
// roster, or returns a rejection reason for the caller to send back
// as Rejected before closing the connection.
func (s *Session) AddPlayer(conn PlayerConn, hello wire.HelloPayload) (AddPlayerResult, *wire.RejectedPayload) {
	if hello.ProtocolVersion != ProtocolVersion {
		return AddPlayerResult{}, &wire.RejectedPayload{Reason: "protocol_version_mismatch"}
	}
	if s.Password != nil {
		if hello.SessionPassword == nil || *hello.SessionPassword != *s.Password {
			return AddPlayerResult{}, &wire.RejectedPayload{Reason: "incorrect password"}
		}
	}
	if len(s.players) >= s.MaxPlayers {
		return AddPlayerResult{}, &wire.RejectedPayload{Reason: "session_full"}
	}

	if len(s.players) == 0 {
		s.simVersionHash = hello.SimVersionHash
		s.configHash = hello.ConfigHash
	} else if hello.SimVersionHash != s.simVersionHash || hello.ConfigHash != s.configHash {
		return AddPlayerResult{}, &wire.RejectedPayload{Reason: "sim_config_hash_mismatch"}
	}

	id := s.nextPlayerId
	s.nextPlayerId++
	entry := &rosterEntry{Id: id, Name: hello.PlayerName, SimHash: hello.SimVersionHash, ConfigHash: hello.ConfigHash, Conn: conn}
	s.players[id] = entry

	if !s.hostSet {
		s.hostId = id
		s.hostSet = true
	}

	s.broadcastExcept(id, wire.ServerPlayerJoined, wire.PlayerJoinedPayload{Player: wire.PlayerInfo{Id: id, Name: entry.Name}})

	return AddPlayerResult{
		PlayerId: id,
		Welcome: wire.WelcomePayload{
			PlayerId:     id,
			SessionName:  s.Name,
			Players:      s.rosterSnapshot(),
			TicksPerTurn: s.TicksPerTurn,
		},
	}, nil
}

// RemovePlayer drops id from the roster and broadcasts PlayerLeft. If
// the departing player was host and the game has not started, host
// status passes to the lowest remaining player id. A session with no
// players left never terminates on its own; the server decides
// whether to keep listening.
func (s *Session) RemovePlayer(id wire.PlayerId) {
	entry, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	s.broadcastAll(wire.ServerPlayerLeft, wire.PlayerLeftPayload{PlayerId: id, Name: entry.Name})

	if id == s.hostId && !s.GameStarted {
		s.promoteNextHost()
	}
}

func (s *Session) promoteNextHost() {
	var ids []wire.PlayerId
	for pid := range s.players {
		ids = append(ids, pid)
	}
	if len(ids) == 0 {
		s.hostSet = false
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.hostId = ids[0]
}

func (s *Session) rosterSnapshot() []wire.PlayerInfo {
	ids := s.sortedPlayerIds()
	out := make([]wire.PlayerInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, wire.PlayerInfo{Id: id, Name: s.players[id].Name})
	}
	return out
}

func (s *Session) sortedPlayerIds() []wire.PlayerId {
	ids := make([]wire.PlayerId, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EnqueueCommand appends a player's batched commands to the pending
// buffer for the next flush. Buffer order is arrival order; flush
// canonicalizes by (player_id, sequence).
func (s *Session) EnqueueCommand(id wire.PlayerId, cmd wire.CommandPayload) {
	if _, ok := s.players[id]; !ok {
		return
	}
	s.pending = append(s.pending, wire.TurnCommand{PlayerId: id, Sequence: cmd.Sequence, Payload: cmd.Payload})
}

// FlushTurn advances the turn counter and broadcasts the canonicalized
// pending buffer as a Turn. It is a no-op (returns false) before
// StartGame or while paused.
func (s *Session) FlushTurn() bool {
	if !s.GameStarted || s.Paused {
		return false
	}

	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].PlayerId != s.pending[j].PlayerId {
			return s.pending[i].PlayerId < s.pending[j].PlayerId
		}
		return s.pending[i].Sequence < s.pending[j].Sequence
	})

	s.TurnNumber++
	commands := s.pending
	s.pending = nil

	s.broadcastAll(wire.ServerTurn, wire.TurnPayload{
		TurnNumber:    s.TurnNumber,
		SimTickTarget: s.TurnNumber * uint64(s.TicksPerTurn),
		Commands:      commands,
	})
	return true
}

// RecordChecksum stores a player's reported hash for tick and, once
// every currently-connected player has reported for that tick,
// compares them. A mismatch broadcasts DesyncDetected exactly once per
// tick regardless of how many further reports arrive for it.
func (s *Session) RecordChecksum(id wire.PlayerId, tick uint64, hash uint64) {
	if _, ok := s.players[id]; !ok {
		return
	}
	byPlayer, ok := s.checksums[tick]
	if !ok {
		byPlayer = make(map[wire.PlayerId]uint64)
		s.checksums[tick] = byPlayer
	}
	byPlayer[id] = hash

	if len(byPlayer) < len(s.players) {
		return
	}

	var first uint64
	mismatch := false
	i := 0
	for _, h := range byPlayer {
		if i == 0 {
			first = h
		} else if h != first {
			mismatch = true
		}
		i++
	}

	if mismatch && !s.desyncReported[tick] {
		s.desyncReported[tick] = true
		s.broadcastAll(wire.ServerDesyncDetected, wire.DesyncDetectedPayload{Tick: tick})
	}
	delete(s.checksums, tick)
}

// SetSpeed changes the turn cadence. Host-only.
func (s *Session) SetSpeed(requester wire.PlayerId, ticksPerTurn uint32) *wire.RejectedPayload {
	if requester != s.hostId {
		return &wire.RejectedPayload{Reason: "host_only"}
	}
	s.TicksPerTurn = ticksPerTurn
	s.broadcastAll(wire.ServerSpeedChanged, wire.SpeedChangedPayload{TicksPerTurn: ticksPerTurn})
	return nil
}

// RequestPause pauses turn flushing. Idempotent: pausing an
// already-paused session is a no-op.
func (s *Session) RequestPause(requester wire.PlayerId) {
	if s.Paused {
		return
	}
	s.Paused = true
	s.broadcastAll(wire.ServerPaused, wire.PausedPayload{By: requester})
}

// RequestResume resumes turn flushing. Idempotent.
func (s *Session) RequestResume(requester wire.PlayerId) {
	if !s.Paused {
		return
	}
	s.Paused = false
	s.broadcastAll(wire.ServerResumed, wire.ResumedPayload{By: requester})
}

// Chat broadcasts a chat line from a connected player.
func (s *Session) Chat(from wire.PlayerId, text string) {
	entry, ok := s.players[from]
	if !ok {
		return
	}
	s.broadcastAll(wire.ServerChatBroadcast, wire.ChatBroadcastPayload{From: from, Name: entry.Name, Text: text})
}

// HandleStartGame transitions the lobby into play. Host-only.
func (s *Session) HandleStartGame(requester wire.PlayerId, seed uint64, configJSON json.RawMessage) *wire.RejectedPayload {
	if requester != s.hostId {
		return &wire.RejectedPayload{Reason: "host_only"}
	}
	if s.GameStarted {
		return &wire.RejectedPayload{Reason: "already_started"}
	}
	s.GameStarted = true
	s.broadcastAll(wire.ServerGameStart, wire.GameStartPayload{Seed: seed, ConfigJSON: configJSON})
	return nil
}

func (s *Session) broadcastAll(t wire.ServerMessageType, payload interface{}) {
	data := mustEncode(t, payload)
	for _, id := range s.sortedPlayerIds() {
		if err := s.players[id].Conn.Send(data); err != nil {
			s.logger.Warn("broadcast send failed", "player_id", id, "error", err)
		}
	}
}

func (s *Session) broadcastExcept(skip wire.PlayerId, t wire.ServerMessageType, payload interface{}) {
	data := mustEncode(t, payload)
	for _, id := range s.sortedPlayerIds() {
		if id == skip {
			continue
		}
		if err := s.players[id].Conn.Send(data); err != nil {
			s.logger.Warn("broadcast send failed", "player_id", id, "error", err)
		}
	}
}

func mustEncode(t wire.ServerMessageType, payload interface{}) []byte {
	data, err := wire.EncodeServerMessage(t, payload)
	if err != nil {
		panic(err)
	}
	return data
}
