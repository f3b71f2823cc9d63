package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrNoType       = errors.New("envelope without type")
	ErrNilPayload   = errors.New("nil payload")
	ErrEmptyMessage = errors.New("empty message")
)

// Encode wraps payload in a JSON envelope of type t.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, ErrNoType
	}
	if payload == nil {
		return nil, fmt.Errorf("encode %q: %w", t, ErrNilPayload)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", t, err)
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

// DecodeEnvelope parses a JSON text frame.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyMessage
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.T == "" {
		return Envelope{}, ErrNoType
	}
	return e, nil
}

// DecodePayload unmarshals the payload of a JSON envelope into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("decode %q: %w", env.T, ErrNilPayload)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", env.T, err)
	}
	return out, nil
}

// EncodeBinary wraps payload in a msgpack envelope of type t.
func EncodeBinary(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, ErrNoType
	}
	if payload == nil {
		return nil, fmt.Errorf("encode %q: %w", t, ErrNilPayload)
	}
	pb, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", t, err)
	}
	return msgpack.Marshal(&BinaryEnvelope{T: t, P: pb})
}

// DecodeBinary parses a msgpack binary frame.
func DecodeBinary(b []byte) (BinaryEnvelope, error) {
	if len(b) == 0 {
		return BinaryEnvelope{}, ErrEmptyMessage
	}
	var e BinaryEnvelope
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return BinaryEnvelope{}, fmt.Errorf("decode binary envelope: %w", err)
	}
	if e.T == "" {
		return BinaryEnvelope{}, ErrNoType
	}
	return e, nil
}

// DecodeBinaryPayload unmarshals the payload of a msgpack envelope into T.
func DecodeBinaryPayload[T any](env BinaryEnvelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("decode %q: %w", env.T, ErrNilPayload)
	}
	if err := msgpack.Unmarshal(env.P, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", env.T, err)
	}
	return out, nil
}
