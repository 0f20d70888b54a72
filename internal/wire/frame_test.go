package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello")))
	require.NoError(t, WriteFrame(&buf, []byte{}))
	require.NoError(t, WriteFrame(&buf, []byte("world")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "", string(got))

	got, err = ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, "world", string(got))
}

func TestWriteFrameRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, MaxPayloadSize+1))
	require.Error(t, err)
	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ErrCodeInvalidArgument, fe.Code)
	require.Zero(t, buf.Len())
}

func TestReadFrameRejectsOversizeDeclaredLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("ok")))
	bad := buf.Bytes()
	bad[0], bad[1], bad[2], bad[3] = 0xff, 0xff, 0xff, 0xff

	_, err := ReadFrame(bytes.NewReader(bad))
	require.Error(t, err)
	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ErrCodeInvalidData, fe.Code)
}

func TestReadFrameReportsShortReadAsUnexpectedEOF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("hello world")))
	truncated := buf.Bytes()[:6]

	_, err := ReadFrame(bytes.NewReader(truncated))
	require.Error(t, err)
	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ErrCodeUnexpectedEOF, fe.Code)
}

func TestReadFrameOnEmptyStreamIsUnexpectedEOF(t *testing.T) {
	_, err := ReadFrame(strings.NewReader(""))
	require.Error(t, err)
	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ErrCodeUnexpectedEOF, fe.Code)
}
