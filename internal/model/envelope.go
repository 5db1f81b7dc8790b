package model

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// JobEnvelope is the wire representation of a queued generation job: the
// target media item id plus the request to execute. It travels as
// base64-encoded UTF-8 JSON inside the queue message payload.
type JobEnvelope struct {
	MediaItemID string               `json:"media_item_id" validate:"required"`
	RequestDTO  GenerateVideoRequest `json:"request_dto" validate:"required"`
}

// Decode failure classes. Each one means the message can never succeed and
// must be rejected permanently rather than retried.
var (
	ErrEmptyPayload    = errors.New("envelope: empty payload")
	ErrBadEncoding     = errors.New("envelope: payload is not base64-encoded UTF-8")
	ErrBadJSON         = errors.New("envelope: payload is not valid JSON")
	ErrInvalidEnvelope = errors.New("envelope: payload does not match the job envelope schema")
)

// Encode serializes the envelope to JSON and base64-encodes it.
func (e *JobEnvelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job envelope: %w", err)
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
	base64.StdEncoding.Encode(encoded, data)
	return encoded, nil
}

// DecodeJobEnvelope reverses Encode. Unknown JSON fields are rejected, not
// dropped: a schema mismatch here means producer and consumer disagree about
// the contract and the message must not be half-applied.
func DecodeJobEnvelope(payload []byte) (*JobEnvelope, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(decoded, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	decoded = decoded[:n]

	if !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrBadEncoding)
	}

	dec := json.NewDecoder(bytes.NewReader(decoded))
	dec.DisallowUnknownFields()

	var env JobEnvelope
	if err := dec.Decode(&env); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
		// Unknown fields and other decode errors are schema violations.
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	if env.MediaItemID == "" {
		return nil, fmt.Errorf("%w: missing media_item_id", ErrInvalidEnvelope)
	}

	return &env, nil
}
