package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type envelope struct {
	V    uint8           `json:"v"`
	T    string          `json:"t"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encodeJSON(tag string, msg interface{}, hasData bool) ([]byte, error) {
	env := envelope{V: Version, T: tag}
	if hasData {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s", tag)
		}
		env.Data = data
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return out, nil
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, errors.Wrap(err, "unmarshal envelope")
	}
	if env.V != Version {
		return env, errors.Wrapf(ErrUnsupportedVersion, "version %d", env.V)
	}
	return env, nil
}

func unmarshalData(env envelope, out interface{}) error {
	if len(env.Data) == 0 {
		return errors.Errorf("protocol: %s without data", env.T)
	}
	return errors.Wrapf(json.Unmarshal(env.Data, out), "unmarshal %s", env.T)
}

// EncodeClientJSON encodes a client message as a JSON envelope
func EncodeClientJSON(msg ClientMessage) ([]byte, error) {
	switch msg.(type) {
	case JoinReq, Input, Ping:
		return encodeJSON(msg.ClientTag(), msg, true)
	case Leave:
		return encodeJSON(TagLeave, nil, false)
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "client message %T", msg)
	}
}

// EncodeServerJSON encodes a server message as a JSON envelope
func EncodeServerJSON(msg ServerMessage) ([]byte, error) {
	switch msg.(type) {
	case JoinOK, Snapshot, SnapshotDelta, Pong, PlayerLeft:
		return encodeJSON(msg.ServerTag(), msg, true)
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "server message %T", msg)
	}
}

// DecodeClientJSON decodes a JSON client envelope
func DecodeClientJSON(data []byte) (ClientMessage, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	var msg ClientMessage
	switch env.T {
	case TagJoinReq:
		var m JoinReq
		err = unmarshalData(env, &m)
		msg = m
	case TagInput:
		var m Input
		err = unmarshalData(env, &m)
		msg = m
	case TagPing:
		var m Ping
		err = unmarshalData(env, &m)
		msg = m
	case TagLeave:
		msg = Leave{}
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "client tag %q", env.T)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeServerJSON decodes a JSON server envelope
func DecodeServerJSON(data []byte) (ServerMessage, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	var msg ServerMessage
	switch env.T {
	case TagJoinOK:
		var m JoinOK
		err = unmarshalData(env, &m)
		msg = m
	case TagSnapshot:
		var m Snapshot
		err = unmarshalData(env, &m)
		msg = m
	case TagSnapshotDelta:
		var m SnapshotDelta
		err = unmarshalData(env, &m)
		msg = m
	case TagPong:
		var m Pong
		err = unmarshalData(env, &m)
		msg = m
	case TagPlayerLeft:
		var m PlayerLeft
		err = unmarshalData(env, &m)
		msg = m
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "server tag %q", env.T)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}
