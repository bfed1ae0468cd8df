package web

import (
	"testing"
	"time"

	"github.com/pallasite/rainfall/pkg/protocol"
)

func TestAnswerPing_RepliesWithLatency(t *testing.T) {
	ping, err := protocol.NewPingMessage("tap-1")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}
	data, err := ping.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	now := time.Now().UnixMilli() + 25
	out := answerPing(data, now)
	if out == nil {
		t.Fatal("Expected a pong for a ping envelope")
	}

	msg, err := protocol.ParseMessage(out)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Type != protocol.TypePong {
		t.Fatalf("Expected message type %s, got %s", protocol.TypePong, msg.Type)
	}

	pong, err := msg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pong.ID != "tap-1" {
		t.Errorf("Expected the ping ID to round-trip, got %q", pong.ID)
	}
	if pong.PingTS != ping.Timestamp {
		t.Errorf("Expected ping timestamp %d, got %d", ping.Timestamp, pong.PingTS)
	}
	if pong.PongTS != now {
		t.Errorf("Expected pong timestamp %d, got %d", now, pong.PongTS)
	}
	if pong.LatencyMs != now-ping.Timestamp {
		t.Errorf("Expected latency %d ms, got %d", now-ping.Timestamp, pong.LatencyMs)
	}
}

func TestAnswerPing_IgnoresOtherMessages(t *testing.T) {
	state, err := protocol.NewStateMessage(1.0, false, "")
	if err != nil {
		t.Fatalf("NewStateMessage() error = %v", err)
	}
	data, err := state.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	if out := answerPing(data, time.Now().UnixMilli()); out != nil {
		t.Error("Expected no reply to a state message")
	}
	if out := answerPing([]byte("not json"), time.Now().UnixMilli()); out != nil {
		t.Error("Expected no reply to a malformed message")
	}
}
