// Raintap tails the live state feed of a running rainfall process.
// It connects to the dashboard websocket and renders every rain state
// update as a single live terminal line, or as raw JSON with -json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pallasite/rainfall/internal/httpc"
	"github.com/pallasite/rainfall/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8791", "Rainfall dashboard host:port")
	jsonOut := flag.Bool("json", false, "Print raw JSON messages, one per line")
	statusOnce := flag.Bool("status", false, "Fetch the status once over HTTP and exit")
	flag.Parse()

	if *statusOnce {
		if err := printStatus(*addr, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	url := fmt.Sprintf("ws://%s/ws/state", *addr)
	fmt.Printf("🔌 Connecting to %s...\n", url)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Connection failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("✅ Connected, waiting for rain state (Ctrl+C to exit)")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	t := &tap{json: *jsonOut, started: time.Now()}
	t.sendPing(conn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					fmt.Fprintf(os.Stderr, "\n❌ Read error: %v\n", err)
				}
				return
			}
			t.handle(data)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		// Ask the server to close cleanly, then give the reader a
		// moment to drain.
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}

	t.report()
}

// tap renders incoming envelopes. Only the reader goroutine touches it
// until the connection is done.
type tap struct {
	json     bool
	started  time.Time
	states   int
	statuses int
	live     bool // a live state line is on screen

	pingID   string
	pingSent time.Time
}

// sendPing fires one ping so the matching pong can size the link
// latency. Called before the reader starts.
func (t *tap) sendPing(conn *websocket.Conn) {
	t.pingID = uuid.NewString()
	t.pingSent = time.Now()

	msg, err := protocol.NewPingMessage(t.pingID)
	if err != nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		return
	}
	conn.WriteMessage(websocket.TextMessage, data)
}

func (t *tap) handle(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n⚠️  Bad message: %v\n", err)
		return
	}

	if t.json {
		switch msg.Type {
		case protocol.TypeState:
			t.states++
		case protocol.TypeStatus:
			t.statuses++
		}
		fmt.Println(string(data))
		return
	}

	switch msg.Type {
	case protocol.TypeState:
		st, err := msg.GetStateData()
		if err != nil {
			return
		}
		t.states++
		fmt.Printf("\r%s", stateLine(st))
		t.live = true
	case protocol.TypeStatus:
		status, err := msg.GetStatusData()
		if err != nil {
			return
		}
		t.statuses++
		if t.live {
			fmt.Println()
			t.live = false
		}
		fmt.Println(statusLine(status))
	case protocol.TypePong:
		pong, err := msg.GetPongData()
		if err != nil || pong.ID != t.pingID {
			return
		}
		if t.live {
			fmt.Println()
			t.live = false
		}
		fmt.Printf("🏓 Round trip %s\n", time.Since(t.pingSent).Round(time.Millisecond))
	}
}

func (t *tap) report() {
	if t.live {
		fmt.Println()
	}
	elapsed := time.Since(t.started).Round(time.Second)
	fmt.Printf("\n📊 %d state updates, %d status updates in %s\n", t.states, t.statuses, elapsed)
}

func stateLine(st *protocol.StateData) string {
	hand := "· "
	if st.Active {
		hand = "🖐"
	}
	dir := "·"
	switch {
	case st.Speed > 0.05:
		dir = "▼"
	case st.Speed < -0.05:
		dir = "▲"
	}
	return fmt.Sprintf("%s %s %s  speed %+5.2f  %-6s", hand, dir, speedBar(st.Speed), st.Speed, orIdle(st.Zone))
}

// speedBar draws the speed on a fixed track, center marks zero, right
// is downward rain. Full scale is the steering range of ±2.
func speedBar(speed float64) string {
	const half = 10
	cells := make([]rune, 2*half+1)
	for i := range cells {
		cells[i] = '·'
	}
	cells[half] = '|'

	pos := half + int(math.Round(speed/2.0*half))
	if pos < 0 {
		pos = 0
	}
	if pos > 2*half {
		pos = 2 * half
	}
	cells[pos] = '●'
	return string(cells)
}

// printStatus asks a running instance for its health over plain HTTP.
func printStatus(addr string, jsonOut bool) error {
	var st protocol.StatusData
	if err := httpc.GetJSON(fmt.Sprintf("http://%s/api/status", addr), &st); err != nil {
		return err
	}

	if jsonOut {
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(statusLine(&st))
	fmt.Printf("   speed %+.2f  zone %s  hand %v  up %s\n",
		st.Speed, orIdle(st.Zone), st.HandVisible, time.Duration(st.UptimeSec)*time.Second)
	return nil
}

func orIdle(zone string) string {
	if zone == "" {
		return "idle"
	}
	return zone
}

func statusLine(s *protocol.StatusData) string {
	parts := []string{
		fmt.Sprintf("camera=%v", s.CameraOK),
		fmt.Sprintf("detector=%v", s.DetectorOK),
		fmt.Sprintf("sim=%.0ffps", s.SimFPS),
		fmt.Sprintf("detect=%.0ffps", s.DetectFPS),
		fmt.Sprintf("clients=%d", s.Clients),
	}
	line := "ℹ️  " + strings.Join(parts, " ")
	if s.LastError != "" {
		line += "  ⚠️  " + s.LastError
	}
	return line
}
