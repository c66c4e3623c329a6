package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/1135975331/furnace/emu/log"
)

// PlaySDL plays s on the default SDL audio device, queuing bufSize frames at
// a time. It returns once the stream ends and the device queue has drained,
// or when ctx is done.
func PlaySDL(ctx context.Context, s io.Reader, rate, bufSize int) error {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	spec := &sdl.AudioSpec{
		Freq:     int32(rate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  uint16(bufSize),
	}
	var actual sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	defer sdl.CloseAudioDevice(dev)

	log.ModSound.InfoZ("sdl audio device opened").
		Int("rate", int(actual.Freq)).
		Int("samples", int(actual.Samples)).
		End()

	sdl.PauseAudioDevice(dev, false)

	chunk := make([]byte, bufSize*BytesPerFrame)
	highWater := uint32(4 * len(chunk))
	for {
		if err := ctx.Err(); err != nil {
			sdl.ClearQueuedAudio(dev)
			return err
		}
		for sdl.GetQueuedAudioSize(dev) > highWater {
			time.Sleep(2 * time.Millisecond)
		}

		n, err := io.ReadFull(s, chunk)
		if n > 0 {
			if qerr := sdl.QueueAudio(dev, chunk[:n]); qerr != nil {
				return fmt.Errorf("queue audio: %w", qerr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	for sdl.GetQueuedAudioSize(dev) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}
