package domain

import "encoding/json"

// Message types carried over a room's sync socket.
const (
	MessageTypeVideoChange = "VIDEO_CHANGE"
)

// SyncMessage is one inbound socket payload. Exactly one variant is
// set; payloads with an unrecognized type decode to Unknown instead of
// failing, so a newer peer never kills the connection.
type SyncMessage struct {
	VideoChange *VideoChangeMessage
	Unknown     string
}

// VideoChangeMessage announces that the room's current video changed.
type VideoChangeMessage struct {
	Type      string `json:"type"`
	RoomCode  string `json:"roomCode"`
	VideoPath string `json:"videoPath"`
	UserId    string `json:"userId"`
	Username  string `json:"username"`
}

// DecodeSyncMessage parses a raw socket payload into a tagged variant.
// Only malformed JSON is an error; an unknown type is a valid Unknown
// message.
func DecodeSyncMessage(data []byte) (SyncMessage, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return SyncMessage{}, err
	}

	switch head.Type {
	case MessageTypeVideoChange:
		var msg VideoChangeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return SyncMessage{}, err
		}
		return SyncMessage{VideoChange: &msg}, nil
	default:
		return SyncMessage{Unknown: head.Type}, nil
	}
}
