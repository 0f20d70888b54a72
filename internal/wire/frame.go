// Package wire implements the relay's length-framed TCP protocol:
// message envelopes tagged by variant name, and the 4-byte big-endian
// length-prefixed framing they travel in.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPayloadSize is the largest payload either side of the wire will
// produce or accept.
const MaxPayloadSize = 16 << 20

// Error codes for FrameError.
const (
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeInvalidData     = "INVALID_DATA"
	ErrCodeUnexpectedEOF   = "UNEXPECTED_EOF"
)

// FrameError is the structured error type for framing violations.
type FrameError struct {
	Code    string
	Message string
	Cause   error
}

func (e *FrameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FrameError) Unwrap() error { return e.Cause }

func newFrameError(code, message string, cause error) *FrameError {
	return &FrameError{Code: code, Message: message, Cause: cause}
}

// WriteFrame writes a 4-byte big-endian length prefix followed by
// payload. Payloads larger than MaxPayloadSize are rejected before any
// bytes reach w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return newFrameError(ErrCodeInvalidArgument, "payload exceeds max frame size", nil)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadFrame reads one length-prefixed payload from r. A declared
// length over MaxPayloadSize fails without attempting to read the
// body. A short read (stream closes before length or body bytes are
// fully consumed) fails with ErrCodeUnexpectedEOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, newFrameError(ErrCodeUnexpectedEOF, "short read on frame length", err)
		}
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxPayloadSize {
		return nil, newFrameError(ErrCodeInvalidData, "declared frame length exceeds max", nil)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, newFrameError(ErrCodeUnexpectedEOF, "short read on frame body", err)
		}
		return nil, err
	}
	return payload, nil
}
