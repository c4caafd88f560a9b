package stream

import (
	"encoding/json"
	"fmt"
)

// Control operations exchanged as websocket text messages between a
// Remote stream and the bridge. Modem bytes travel as binary messages.
const (
	OpReset    = "reset"
	OpResetAck = "reset_ack"
	OpBusy     = "busy"
)

// ControlMessage is the body of a websocket text message.
type ControlMessage struct {
	Op    string `json:"op"`
	Error string `json:"error,omitempty"`
}

// EncodeControl marshals a control message.
func EncodeControl(msg ControlMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal control message: %w", err)
	}
	return data, nil
}

// DecodeControl unmarshals a control message.
func DecodeControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, fmt.Errorf("invalid control message: %w", err)
	}
	return msg, nil
}
