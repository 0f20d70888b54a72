package clientnet

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khaaarl/elven-canopy/internal/wire"
)

// fakeRelay accepts exactly one connection, replies to its Hello with
// the given server message, and then answers every ClientMessage it
// decodes with a ChatBroadcast whose text is that message's type — just enough
// to exercise Connect, SendCommand and Poll without depending on the
// relay package.
func fakeRelay(t *testing.T, reply func(hello wire.HelloPayload) (wire.ServerMessageType, interface{})) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		raw, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		msg, err := wire.DecodeClientMessage(raw)
		if err != nil || msg.Type != wire.ClientHello {
			return
		}
		var hello wire.HelloPayload
		_ = json.Unmarshal(msg.Payload, &hello)

		t, payload := reply(hello)
		data, _ := wire.EncodeServerMessage(t, payload)
		if wire.WriteFrame(conn, data) != nil {
			return
		}

		for {
			raw, err := wire.ReadFrame(conn)
			if err != nil {
				return
			}
			cm, err := wire.DecodeClientMessage(raw)
			if err != nil {
				return
			}
			echoData, _ := wire.EncodeServerMessage(wire.ServerChatBroadcast, wire.ChatBroadcastPayload{Text: string(cm.Type)})
			if wire.WriteFrame(conn, echoData) != nil {
				return
			}
		}
	}()

	return ln.Addr().String()
}

func TestConnectSucceedsOnWelcome(t *testing.T) {
	addr := fakeRelay(t, func(hello wire.HelloPayload) (wire.ServerMessageType, interface{}) {
		require.Equal(t, "alice", hello.PlayerName)
		return wire.ServerWelcome, wire.WelcomePayload{PlayerId: 7, SessionName: "s", TicksPerTurn: 50}
	})

	c, err := Connect(addr, "alice", "sim", "cfg", nil, nil)
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, wire.PlayerId(7), c.PlayerId)
	require.Equal(t, "s", c.SessionName)
	require.EqualValues(t, 50, c.TicksPerTurn)
}

func TestConnectFailsOnRejected(t *testing.T) {
	addr := fakeRelay(t, func(hello wire.HelloPayload) (wire.ServerMessageType, interface{}) {
		return wire.ServerRejected, wire.RejectedPayload{Reason: "session_full"}
	})

	_, err := Connect(addr, "alice", "sim", "cfg", nil, nil)
	require.Error(t, err)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "session_full", rejected.Reason)
}

func TestConnectFailsOnUnexpectedMessage(t *testing.T) {
	addr := fakeRelay(t, func(hello wire.HelloPayload) (wire.ServerMessageType, interface{}) {
		return wire.ServerChatBroadcast, wire.ChatBroadcastPayload{Text: "surprise"}
	})

	_, err := Connect(addr, "alice", "sim", "cfg", nil, nil)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestPollDrainsInboxWithoutBlocking(t *testing.T) {
	addr := fakeRelay(t, func(hello wire.HelloPayload) (wire.ServerMessageType, interface{}) {
		return wire.ServerWelcome, wire.WelcomePayload{PlayerId: 1, SessionName: "s", TicksPerTurn: 50}
	})

	c, err := Connect(addr, "alice", "sim", "cfg", nil, nil)
	require.NoError(t, err)
	defer c.Close()

	require.Empty(t, c.Poll())

	require.NoError(t, c.SendCommand([][]byte{[]byte("x")}))

	deadline := time.Now().Add(time.Second)
	var got []wire.ServerMessage
	for time.Now().Before(deadline) && len(got) == 0 {
		got = c.Poll()
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, got, 1)
	require.Equal(t, wire.ServerChatBroadcast, got[0].Type)
}
