package sound

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Player owns the audio context and keeps the ambience stream playing.
// A nil *Player is a valid no-op so muted runs need no call-site guards.
type Player struct {
	stream *Stream
	player *audio.Player
}

// NewPlayer starts ambience playback. The audio context is created once
// per process, so rainfall builds at most one Player.
func NewPlayer() (*Player, error) {
	ctx := audio.NewContext(SampleRate)
	stream := NewStream()

	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	player.SetBufferSize(120 * time.Millisecond)
	player.Play()

	return &Player{stream: stream, player: player}, nil
}

// SetSpeed adjusts the ambience loudness to a rain speed.
func (p *Player) SetSpeed(speed float64) {
	if p == nil {
		return
	}
	p.stream.SetIntensity(IntensityForSpeed(speed))
}

// Close stops playback.
func (p *Player) Close() error {
	if p == nil {
		return nil
	}
	return p.player.Close()
}
