package wire

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTripClient(t *testing.T, data []byte) ClientMessage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, data))
	framed, err := ReadFrame(&buf)
	require.NoError(t, err)
	msg, err := DecodeClientMessage(framed)
	require.NoError(t, err)
	return msg
}

func roundTripServer(t *testing.T, data []byte) ServerMessage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, data))
	framed, err := ReadFrame(&buf)
	require.NoError(t, err)
	msg, err := DecodeServerMessage(framed)
	require.NoError(t, err)
	return msg
}

func TestEveryClientMessageVariantRoundTrips(t *testing.T) {
	pw := "secret"
	cases := []struct {
		t       ClientMessageType
		payload interface{}
	}{
		{ClientHello, HelloPayload{ProtocolVersion: 1, PlayerName: "A", SimVersionHash: "s", ConfigHash: "c", SessionPassword: &pw}},
		{ClientCommand, CommandPayload{Sequence: 3, Payload: [][]byte{[]byte("x")}}},
		{ClientChecksum, ChecksumPayload{Tick: 50, Hash: 999}},
		{ClientSetSpeed, SetSpeedPayload{TicksPerTurn: 25}},
		{ClientRequestPause, nil},
		{ClientRequestResume, nil},
		{ClientChat, ChatPayload{Text: "hi"}},
		{ClientSnapshotResponse, SnapshotResponsePayload{Data: []byte("blob")}},
		{ClientStartGame, StartGamePayload{Seed: 7, ConfigJSON: json.RawMessage(`{}`)}},
		{ClientGoodbye, nil},
	}

	for _, c := range cases {
		data, err := EncodeClientMessage(c.t, c.payload)
		require.NoError(t, err)
		msg := roundTripClient(t, data)
		require.Equal(t, c.t, msg.Type)
	}
}

func TestEveryServerMessageVariantRoundTrips(t *testing.T) {
	cases := []struct {
		t       ServerMessageType
		payload interface{}
	}{
		{ServerWelcome, WelcomePayload{PlayerId: 1, SessionName: "s", Players: []PlayerInfo{{Id: 1, Name: "A"}}, TicksPerTurn: 50}},
		{ServerRejected, RejectedPayload{Reason: "session_full"}},
		{ServerTurn, TurnPayload{TurnNumber: 1, SimTickTarget: 50, Commands: []TurnCommand{{PlayerId: 1, Sequence: 1, Payload: [][]byte{[]byte("x")}}}}},
		{ServerPlayerJoined, PlayerJoinedPayload{Player: PlayerInfo{Id: 2, Name: "B"}}},
		{ServerPlayerLeft, PlayerLeftPayload{PlayerId: 2, Name: "B"}},
		{ServerDesyncDetected, DesyncDetectedPayload{Tick: 100}},
		{ServerSnapshotRequest, nil},
		{ServerSnapshotLoad, SnapshotLoadPayload{Tick: 100, Data: []byte("blob")}},
		{ServerPaused, PausedPayload{By: 1}},
		{ServerResumed, ResumedPayload{By: 1}},
		{ServerChatBroadcast, ChatBroadcastPayload{From: 1, Name: "A", Text: "hi"}},
		{ServerSpeedChanged, SpeedChangedPayload{TicksPerTurn: 25}},
		{ServerGameStart, GameStartPayload{Seed: 7, ConfigJSON: json.RawMessage(`{}`)}},
	}

	for _, c := range cases {
		data, err := EncodeServerMessage(c.t, c.payload)
		require.NoError(t, err)
		msg := roundTripServer(t, data)
		require.Equal(t, c.t, msg.Type)
	}
}

func TestDecodeClientMessageRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeClientMessage([]byte("not json"))
	require.Error(t, err)
	var fe *FrameError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ErrCodeInvalidData, fe.Code)
}
