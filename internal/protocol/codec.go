package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Connectify/internal/core"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown event type")
)

// Decode parses one inbound frame into its typed variant.
func Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeJoinRoom:
		return decodeData[JoinRoom](env.Data)
	case TypeSignal:
		return decodeData[Signal](env.Data)
	case TypeChatMessage:
		return decodeData[ChatMessage](env.Data)
	case TypeDrawLine:
		return decodeData[DrawLine](env.Data)
	case TypeClearCanvas:
		return decodeData[ClearCanvas](env.Data)
	case TypeToggleWhiteboard:
		return decodeData[ToggleWhiteboard](env.Data)
	case TypeSendTranscription:
		return decodeData[SendTranscription](env.Data)
	case TypeGetMeetingSummary:
		return decodeData[GetMeetingSummary](env.Data)
	case TypePing:
		return Ping{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeData[T Inbound](data json.RawMessage) (Inbound, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, v.EventType(), err)
	}
	return v, nil
}

// Encode wraps payload into an envelope of the given type.
func Encode(eventType string, payload any) (core.Frame, error) {
	env := struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{Type: eventType, Data: payload}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return b, nil
}
