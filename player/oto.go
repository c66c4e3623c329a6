package player

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/1135975331/furnace/emu/log"
)

// PlayOto plays s through oto, which pulls samples from s on its own
// goroutine. It returns once the stream ends and playback is over, or when
// ctx is done.
func PlayOto(ctx context.Context, s io.Reader, rate, bufSize int) error {
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(bufSize) * time.Second / time.Duration(rate),
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("oto context: %w", err)
	}
	<-ready

	p := otoCtx.NewPlayer(s)
	defer p.Close()
	p.Play()
	log.ModSound.InfoZ("oto player started").Int("rate", rate).End()

	tck := time.NewTicker(10 * time.Millisecond)
	defer tck.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-tck.C:
		}
	}
	if err := p.Err(); err != nil {
		return fmt.Errorf("oto playback: %w", err)
	}
	return nil
}
