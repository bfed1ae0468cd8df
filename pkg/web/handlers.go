package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/pallasite/rainfall/pkg/hub"
	"github.com/pallasite/rainfall/pkg/protocol"
)

// handleStatus returns the live health snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

// handleConfig returns the fixed simulation parameters
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(s.info)
}

// handleStateWS handles WebSocket connections for the rain state stream
func (s *Server) handleStateWS(c *websocket.Conn) {
	// Send the current state up front so clients render without
	// waiting for the next publish
	st := s.Snapshot()
	if msg, err := protocol.NewStateMessage(st.Speed, st.HandVisible, st.Zone); err == nil {
		if data, err := msg.Bytes(); err == nil {
			c.WriteMessage(websocket.TextMessage, data)
		}
	}

	client := hub.NewClient(s.stateHub, c)
	client.OnMessage = s.handleStateMessage
	client.Run()
}

// handleStateMessage answers pings on the state stream. Everything else
// inbound is ignored.
func (s *Server) handleStateMessage(c *hub.Client, data []byte) {
	if pong := answerPing(data, time.Now().UnixMilli()); pong != nil {
		c.Reply(hub.NewJSONMessage(pong))
	}
}

// answerPing builds the pong for a ping envelope, or nil for anything
// else. The ping's envelope timestamp becomes the pong's ping side.
func answerPing(data []byte, now int64) []byte {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypePing {
		return nil
	}
	ping, err := msg.GetPingData()
	if err != nil {
		return nil
	}
	pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, now)
	if err != nil {
		return nil
	}
	out, err := pong.Bytes()
	if err != nil {
		return nil
	}
	return out
}

// handleParticlesWS handles WebSocket connections for particle buffers
func (s *Server) handleParticlesWS(c *websocket.Conn) {
	hub.NewClient(s.particleHub, c).Run()
}

// handleCameraWS handles WebSocket connections for the camera feed
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
