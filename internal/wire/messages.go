package wire

import "encoding/json"

// PlayerId is the compact, relay-assigned identifier for a connected
// player. It is unrelated to any ids.SimUuid-based identifier the
// simulation kernel uses internally.
type PlayerId uint32

// ClientMessageType tags the variant carried by a ClientMessage.
type ClientMessageType string

const (
	ClientHello            ClientMessageType = "hello"
	ClientCommand          ClientMessageType = "command"
	ClientChecksum         ClientMessageType = "checksum"
	ClientSetSpeed         ClientMessageType = "set_speed"
	ClientRequestPause     ClientMessageType = "request_pause"
	ClientRequestResume    ClientMessageType = "request_resume"
	ClientChat             ClientMessageType = "chat"
	ClientSnapshotResponse ClientMessageType = "snapshot_response"
	ClientStartGame        ClientMessageType = "start_game"
	ClientGoodbye          ClientMessageType = "goodbye"
)

// ServerMessageType tags the variant carried by a ServerMessage.
type ServerMessageType string

const (
	ServerWelcome         ServerMessageType = "welcome"
	ServerRejected        ServerMessageType = "rejected"
	ServerTurn            ServerMessageType = "turn"
	ServerPlayerJoined    ServerMessageType = "player_joined"
	ServerPlayerLeft      ServerMessageType = "player_left"
	ServerDesyncDetected  ServerMessageType = "desync_detected"
	ServerSnapshotRequest ServerMessageType = "snapshot_request"
	ServerSnapshotLoad    ServerMessageType = "snapshot_load"
	ServerPaused          ServerMessageType = "paused"
	ServerResumed         ServerMessageType = "resumed"
	ServerChatBroadcast   ServerMessageType = "chat_broadcast"
	ServerSpeedChanged    ServerMessageType = "speed_changed"
	ServerGameStart       ServerMessageType = "game_start"
)

// ClientMessage is the envelope every client-to-server payload travels
// in. The relay decodes Type to pick the concrete payload struct; it
// never inspects the bytes nested inside a Command payload.
type ClientMessage struct {
	Type    ClientMessageType `json:"type"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// ServerMessage is the envelope every server-to-client payload travels
// in.
type ServerMessage struct {
	Type    ServerMessageType `json:"type"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

// HelloPayload is the first message a client must send.
type HelloPayload struct {
	ProtocolVersion uint32  `json:"protocol_version"`
	PlayerName      string  `json:"player_name"`
	SimVersionHash  string  `json:"sim_version_hash"`
	ConfigHash      string  `json:"config_hash"`
	SessionPassword *string `json:"session_password,omitempty"`
}

// CommandPayload batches one or more opaque sim-command payloads under
// a client-assigned monotonic sequence number.
type CommandPayload struct {
	Sequence uint64   `json:"sequence"`
	Payload  [][]byte `json:"payload"`
}

// ChecksumPayload reports a client's computed state hash at a tick.
type ChecksumPayload struct {
	Tick uint64 `json:"tick"`
	Hash uint64 `json:"hash"`
}

// SetSpeedPayload requests a new turn cadence. Host-only.
type SetSpeedPayload struct {
	TicksPerTurn uint32 `json:"ticks_per_turn"`
}

// ChatPayload carries a chat line from the sending client.
type ChatPayload struct {
	Text string `json:"text"`
}

// SnapshotResponsePayload answers a SnapshotRequest with a save blob.
type SnapshotResponsePayload struct {
	Data []byte `json:"data"`
}

// StartGamePayload begins the game with the given seed and config.
// Host-only.
type StartGamePayload struct {
	Seed       uint64          `json:"seed"`
	ConfigJSON json.RawMessage `json:"config_json"`
}

// PlayerInfo describes one roster entry as broadcast to clients.
type PlayerInfo struct {
	Id   PlayerId `json:"id"`
	Name string   `json:"name"`
}

// WelcomePayload is the successful reply to Hello.
type WelcomePayload struct {
	PlayerId     PlayerId     `json:"player_id"`
	SessionName  string       `json:"session_name"`
	Players      []PlayerInfo `json:"players"`
	TicksPerTurn uint32       `json:"ticks_per_turn"`
}

// RejectedPayload is the failed reply to Hello. The relay session's
// host-only methods also return one when a non-host calls them, but the
// server does not send it on to the requester.
type RejectedPayload struct {
	Reason string `json:"reason"`
}

// TurnCommand carries one originating player's batched commands,
// canonicalized into a Turn broadcast.
type TurnCommand struct {
	PlayerId PlayerId `json:"player_id"`
	Sequence uint64   `json:"sequence"`
	Payload  [][]byte `json:"payload"`
}

// TurnPayload is the canonical, identically-ordered command stream for
// one turn, broadcast to every connected client.
type TurnPayload struct {
	TurnNumber    uint64        `json:"turn_number"`
	SimTickTarget uint64        `json:"sim_tick_target"`
	Commands      []TurnCommand `json:"commands"`
}

// PlayerJoinedPayload announces a new roster entry.
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload announces a roster removal.
type PlayerLeftPayload struct {
	PlayerId PlayerId `json:"player_id"`
	Name     string   `json:"name"`
}

// DesyncDetectedPayload reports two reported checksums disagreeing at
// a tick.
type DesyncDetectedPayload struct {
	Tick uint64 `json:"tick"`
}

// SnapshotLoadPayload carries a save blob a late joiner should load
// before resuming turn broadcasts.
type SnapshotLoadPayload struct {
	Tick uint64 `json:"tick"`
	Data []byte `json:"data"`
}

// PausedPayload / ResumedPayload name who requested the transition.
type PausedPayload struct {
	By PlayerId `json:"by"`
}

type ResumedPayload struct {
	By PlayerId `json:"by"`
}

// ChatBroadcastPayload relays a chat line to every client.
type ChatBroadcastPayload struct {
	From PlayerId `json:"from"`
	Name string   `json:"name"`
	Text string   `json:"text"`
}

// SpeedChangedPayload announces a new cadence.
type SpeedChangedPayload struct {
	TicksPerTurn uint32 `json:"ticks_per_turn"`
}

// GameStartPayload announces the seed and config the game started
// with, so every client constructs identical initial state.
type GameStartPayload struct {
	Seed       uint64          `json:"seed"`
	ConfigJSON json.RawMessage `json:"config_json"`
}

// EncodeClientMessage marshals a typed payload into a tagged
// ClientMessage and returns its JSON bytes.
func EncodeClientMessage(t ClientMessageType, payload interface{}) ([]byte, error) {
	return encodeEnvelope(func(raw json.RawMessage) interface{} {
		return ClientMessage{Type: t, Payload: raw}
	}, payload)
}

// EncodeServerMessage marshals a typed payload into a tagged
// ServerMessage and returns its JSON bytes.
func EncodeServerMessage(t ServerMessageType, payload interface{}) ([]byte, error) {
	return encodeEnvelope(func(raw json.RawMessage) interface{} {
		return ServerMessage{Type: t, Payload: raw}
	}, payload)
}

func encodeEnvelope(wrap func(json.RawMessage) interface{}, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(wrap(raw))
}

// DecodeClientMessage unmarshals a framed payload into its envelope.
// Callers then switch on Type and unmarshal Payload into the matching
// struct.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, newFrameError(ErrCodeInvalidData, "malformed client message", err)
	}
	return m, nil
}

// DecodeServerMessage unmarshals a framed payload into its envelope.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ServerMessage{}, newFrameError(ErrCodeInvalidData, "malformed server message", err)
	}
	return m, nil
}
