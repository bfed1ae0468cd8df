// Package protocol defines the WebSocket message types shared by the
// rainfall server and its clients (the dashboard and the raintap CLI).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → Client messages
	TypeState  MessageType = "state"  // Rain state snapshot
	TypeStatus MessageType = "status" // System health snapshot

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// StateData carries one rain state snapshot
type StateData struct {
	Speed  float64 `json:"speed"`  // Signed fall speed multiplier
	Active bool    `json:"active"` // Hand currently steering the rain
	Zone   string  `json:"zone"`   // Gesture zone name, empty while idle
}

// StatusData carries system health information
type StatusData struct {
	CameraOK    bool    `json:"camera_ok"`
	DetectorOK  bool    `json:"detector_ok"`
	HandVisible bool    `json:"hand_visible"`
	Speed       float64 `json:"speed"`
	Zone        string  `json:"zone"`
	LastError   string  `json:"last_error,omitempty"`
	SimFPS      float64 `json:"sim_fps"`
	DetectFPS   float64 `json:"detect_fps"`
	Clients     int     `json:"clients"`
	UptimeSec   int64   `json:"uptime_sec"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
