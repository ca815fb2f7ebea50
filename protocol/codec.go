package protocol

import "github.com/pkg/errors"

// EncodeServer encodes a server message, trying the binary format first
// and falling back to JSON.
func EncodeServer(msg ServerMessage) ([]byte, error) {
	data, err := EncodeServerBinary(msg)
	if err == nil {
		return data, nil
	}
	data, jsonErr := EncodeServerJSON(msg)
	if jsonErr != nil {
		return nil, errors.Wrapf(jsonErr, "binary encode failed (%v)", err)
	}
	return data, nil
}

// EncodeClient encodes a client message, trying the binary format first
// and falling back to JSON.
func EncodeClient(msg ClientMessage) ([]byte, error) {
	data, err := EncodeClientBinary(msg)
	if err == nil {
		return data, nil
	}
	data, jsonErr := EncodeClientJSON(msg)
	if jsonErr != nil {
		return nil, errors.Wrapf(jsonErr, "binary encode failed (%v)", err)
	}
	return data, nil
}

// DecodeClient decodes a client frame in either format
func DecodeClient(data []byte) (ClientMessage, error) {
	msg, err := DecodeClientBinary(data)
	if err == nil {
		return msg, nil
	}
	msg, jsonErr := DecodeClientJSON(data)
	if jsonErr != nil {
		return nil, errors.Wrapf(jsonErr, "binary decode failed (%v)", err)
	}
	return msg, nil
}

// DecodeServer decodes a server frame in either format
func DecodeServer(data []byte) (ServerMessage, error) {
	msg, err := DecodeServerBinary(data)
	if err == nil {
		return msg, nil
	}
	msg, jsonErr := DecodeServerJSON(data)
	if jsonErr != nil {
		return nil, errors.Wrapf(jsonErr, "binary decode failed (%v)", err)
	}
	return msg, nil
}
