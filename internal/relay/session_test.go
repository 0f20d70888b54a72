package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khaaarl/elven-canopy/internal/wire"
)

type fakeConn struct {
	sent [][]byte
}

func (f *fakeConn) Send(data []byte) error {
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeConn) lastType(t *testing.T) wire.ServerMessageType {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, err := wire.DecodeServerMessage(f.sent[len(f.sent)-1])
	require.NoError(t, err)
	return msg.Type
}

func helloFor(name string) wire.HelloPayload {
	return wire.HelloPayload{
		ProtocolVersion: ProtocolVersion,
		PlayerName:      name,
		SimVersionHash:  "simhash",
		ConfigHash:      "confighash",
	}
}

func TestAddPlayerFirstBecomesHostAndDefinesHashes(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	conn := &fakeConn{}

	result, rejected := s.AddPlayer(conn, helloFor("alice"))
	require.Nil(t, rejected)
	require.Equal(t, wire.PlayerId(0), result.PlayerId)
	require.Equal(t, "lobby", result.Welcome.SessionName)
	require.Len(t, result.Welcome.Players, 1)
	require.Equal(t, wire.PlayerId(0), s.hostId)
}

func TestAddPlayerRejectsHashMismatch(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	_, rejected := s.AddPlayer(&fakeConn{}, helloFor("alice"))
	require.Nil(t, rejected)

	mismatch := helloFor("bob")
	mismatch.ConfigHash = "other"
	_, rejected = s.AddPlayer(&fakeConn{}, mismatch)
	require.NotNil(t, rejected)
	require.Equal(t, "sim_config_hash_mismatch", rejected.Reason)
}

func TestAddPlayerRejectsWrongPassword(t *testing.T) {
	pw := "secret"
	s := NewSession("lobby", &pw, 50, 4, nil)

	hello := helloFor("alice")
	_, rejected := s.AddPlayer(&fakeConn{}, hello)
	require.NotNil(t, rejected)
	require.Equal(t, "incorrect password", rejected.Reason)

	wrong := "nope"
	hello.SessionPassword = &wrong
	_, rejected = s.AddPlayer(&fakeConn{}, hello)
	require.NotNil(t, rejected)

	hello.SessionPassword = &pw
	_, rejected = s.AddPlayer(&fakeConn{}, hello)
	require.Nil(t, rejected)
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	s := NewSession("lobby", nil, 50, 1, nil)
	_, rejected := s.AddPlayer(&fakeConn{}, helloFor("alice"))
	require.Nil(t, rejected)

	_, rejected = s.AddPlayer(&fakeConn{}, helloFor("bob"))
	require.NotNil(t, rejected)
	require.Equal(t, "session_full", rejected.Reason)
}

func TestRemovePlayerPromotesNextHost(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	r1, _ := s.AddPlayer(&fakeConn{}, helloFor("alice"))
	r2, _ := s.AddPlayer(&fakeConn{}, helloFor("bob"))
	require.Equal(t, r1.PlayerId, s.hostId)

	s.RemovePlayer(r1.PlayerId)
	require.Equal(t, r2.PlayerId, s.hostId)
}

func TestFlushTurnNoopBeforeStart(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	r, _ := s.AddPlayer(&fakeConn{}, helloFor("alice"))
	s.EnqueueCommand(r.PlayerId, wire.CommandPayload{Sequence: 1, Payload: [][]byte{[]byte("x")}})

	require.False(t, s.FlushTurn())
	require.Equal(t, uint64(0), s.TurnNumber)
}

func TestFlushTurnCanonicalizesOrderAndAdvancesTick(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	c1 := &fakeConn{}
	r1, _ := s.AddPlayer(c1, helloFor("alice"))
	r2, _ := s.AddPlayer(&fakeConn{}, helloFor("bob"))
	require.Nil(t, s.HandleStartGame(r1.PlayerId, 7, nil))

	s.EnqueueCommand(r2.PlayerId, wire.CommandPayload{Sequence: 2, Payload: [][]byte{[]byte("b2")}})
	s.EnqueueCommand(r1.PlayerId, wire.CommandPayload{Sequence: 5, Payload: [][]byte{[]byte("a5")}})
	s.EnqueueCommand(r1.PlayerId, wire.CommandPayload{Sequence: 1, Payload: [][]byte{[]byte("a1")}})

	require.True(t, s.FlushTurn())
	require.Equal(t, uint64(1), s.TurnNumber)
	require.Equal(t, uint64(50), s.TurnNumber*uint64(s.TicksPerTurn))
	require.Empty(t, s.pending)

	msg, err := wire.DecodeServerMessage(c1.sent[len(c1.sent)-1])
	require.NoError(t, err)
	require.Equal(t, wire.ServerTurn, msg.Type)
	var turn wire.TurnPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &turn))
	require.Equal(t, uint64(50), turn.SimTickTarget)
	require.Len(t, turn.Commands, 3)
	require.Equal(t, "a1", string(turn.Commands[0].Payload[0]))
	require.Equal(t, "a5", string(turn.Commands[1].Payload[0]))
	require.Equal(t, "b2", string(turn.Commands[2].Payload[0]))
}

func TestHandleStartGameIsHostOnly(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	r1, _ := s.AddPlayer(&fakeConn{}, helloFor("alice"))
	r2, _ := s.AddPlayer(&fakeConn{}, helloFor("bob"))

	rejected := s.HandleStartGame(r2.PlayerId, 1, nil)
	require.NotNil(t, rejected)
	require.Equal(t, "host_only", rejected.Reason)
	require.False(t, s.GameStarted)

	require.Nil(t, s.HandleStartGame(r1.PlayerId, 1, nil))
	require.True(t, s.GameStarted)
}

func TestRecordChecksumBroadcastsDesyncOnceWhenAllReport(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	c1, c2 := &fakeConn{}, &fakeConn{}
	r1, _ := s.AddPlayer(c1, helloFor("alice"))
	r2, _ := s.AddPlayer(c2, helloFor("bob"))

	s.RecordChecksum(r1.PlayerId, 50, 111)
	require.NotEqual(t, wire.ServerDesyncDetected, c1.lastType(t))

	s.RecordChecksum(r2.PlayerId, 50, 222)
	require.Equal(t, wire.ServerDesyncDetected, c1.lastType(t))
	require.Equal(t, wire.ServerDesyncDetected, c2.lastType(t))

	before := len(c1.sent)
	s.RecordChecksum(r1.PlayerId, 50, 111)
	s.RecordChecksum(r2.PlayerId, 50, 222)
	require.Equal(t, before, len(c1.sent))
}

func TestRecordChecksumMatchingDoesNotBroadcastDesync(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	c1, c2 := &fakeConn{}, &fakeConn{}
	r1, _ := s.AddPlayer(c1, helloFor("alice"))
	r2, _ := s.AddPlayer(c2, helloFor("bob"))

	s.RecordChecksum(r1.PlayerId, 50, 999)
	s.RecordChecksum(r2.PlayerId, 50, 999)

	require.NotEqual(t, wire.ServerDesyncDetected, c1.lastType(t))
}

func TestChatBroadcastsToAllIncludingSender(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	c1, c2 := &fakeConn{}, &fakeConn{}
	r1, _ := s.AddPlayer(c1, helloFor("alice"))
	_, _ = s.AddPlayer(c2, helloFor("bob"))

	s.Chat(r1.PlayerId, "hi")
	require.Equal(t, wire.ServerChatBroadcast, c1.lastType(t))
	require.Equal(t, wire.ServerChatBroadcast, c2.lastType(t))
}

func TestPauseResumeAreIdempotent(t *testing.T) {
	s := NewSession("lobby", nil, 50, 4, nil)
	c1 := &fakeConn{}
	r1, _ := s.AddPlayer(c1, helloFor("alice"))

	s.RequestPause(r1.PlayerId)
	require.True(t, s.Paused)
	sent := len(c1.sent)
	s.RequestPause(r1.PlayerId)
	require.Equal(t, sent, len(c1.sent))

	s.RequestResume(r1.PlayerId)
	require.False(t, s.Paused)
}
