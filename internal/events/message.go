package events

import (
	"encoding/json"
	"fmt"
)

// TypePredictionCompleted is emitted after a prediction is persisted.
const TypePredictionCompleted = "prediction.completed"

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type           string  `json:"type"`
	PredictionID   string  `json:"predictionId"`
	UserID         string  `json:"userId"`
	StressLevel    float64 `json:"stressLevel"`
	StressCategory string  `json:"stressCategory"`
	RequestID      string  `json:"requestId,omitempty"`
	OccurredAt     string  `json:"occurredAt"`
	Version        int     `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("event type is required")
	}
	return msg, nil
}
