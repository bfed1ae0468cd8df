package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "state message",
			msgType: TypeState,
			data:    StateData{Speed: 1.0, Active: false, Zone: "fall"},
			wantErr: false,
		},
		{
			name:    "status message",
			msgType: TypeStatus,
			data:    StatusData{CameraOK: true, Speed: -0.5},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	original := StateData{
		Speed:  -1.25,
		Active: true,
		Zone:   "ascend",
	}

	msg, err := NewMessage(TypeState, original)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}

	// Serialize to bytes
	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	// Parse back
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if parsed.Type != TypeState {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeState)
	}

	stateData, err := parsed.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData() error = %v", err)
	}

	if stateData.Speed != original.Speed {
		t.Errorf("Speed = %v, want %v", stateData.Speed, original.Speed)
	}
	if stateData.Active != original.Active {
		t.Errorf("Active = %v, want %v", stateData.Active, original.Active)
	}
	if stateData.Zone != original.Zone {
		t.Errorf("Zone = %v, want %v", stateData.Zone, original.Zone)
	}
}

func TestStateMessage(t *testing.T) {
	msg, err := NewStateMessage(1.5, true, "pour")
	if err != nil {
		t.Fatalf("NewStateMessage() error = %v", err)
	}

	if msg.Type != TypeState {
		t.Errorf("Type = %v, want %v", msg.Type, TypeState)
	}

	stateData, err := msg.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData() error = %v", err)
	}

	if stateData.Speed != 1.5 {
		t.Errorf("Speed = %v, want 1.5", stateData.Speed)
	}
	if !stateData.Active {
		t.Error("Active should be true")
	}
	if stateData.Zone != "pour" {
		t.Errorf("Zone = %v, want pour", stateData.Zone)
	}
}

func TestStatusMessage(t *testing.T) {
	status := StatusData{
		CameraOK:    true,
		DetectorOK:  false,
		HandVisible: false,
		Speed:       1.0,
		LastError:   "AI model failed to load",
		SimFPS:      59.8,
		Clients:     3,
	}

	msg, err := NewStatusMessage(status)
	if err != nil {
		t.Fatalf("NewStatusMessage() error = %v", err)
	}

	if msg.Type != TypeStatus {
		t.Errorf("Type = %v, want %v", msg.Type, TypeStatus)
	}

	statusData, err := msg.GetStatusData()
	if err != nil {
		t.Fatalf("GetStatusData() error = %v", err)
	}

	if statusData.DetectorOK {
		t.Error("DetectorOK should be false")
	}
	if statusData.LastError != "AI model failed to load" {
		t.Errorf("LastError = %v, want model load failure", statusData.LastError)
	}
	if statusData.Clients != 3 {
		t.Errorf("Clients = %v, want 3", statusData.Clients)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}

	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	// Create pong response
	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	if pongMsg.Type != TypePong {
		t.Errorf("Type = %v, want %v", pongMsg.Type, TypePong)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}

	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	// Verify JSON structure matches expected format
	msg, _ := NewStateMessage(0.0, true, "hold")

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "state" {
		t.Errorf("type = %v, want state", parsed["type"])
	}

	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	if _, ok := parsed["data"]; !ok {
		t.Error("data field should be present")
	}
}

func BenchmarkNewStateMessage(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewStateMessage(float64(i)*0.01, true, "fall")
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewStateMessage(1.0, false, "")
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
