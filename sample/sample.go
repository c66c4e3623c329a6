// Package sample loads instrument samples from audio files, and converts them
// to the formats used by the sample playback channels.
package sample

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/emu/log"
)

var ErrFormat = errors.New("unsupported sample format")

// Load reads a sample from a .wav or .mp3 file.
func Load(path string) (*dispatch.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := Decode(name, filepath.Ext(path), f)
	if err != nil {
		return nil, fmt.Errorf("load sample %s: %w", path, err)
	}
	return s, nil
}

// Decode decodes a sample, ext being the file extension giving the format.
func Decode(name, ext string, r io.ReadSeeker) (*dispatch.Sample, error) {
	var (
		s   *dispatch.Sample
		err error
	)
	switch strings.ToLower(ext) {
	case ".wav":
		s, err = DecodeWAV(r)
	case ".mp3":
		s, err = DecodeMP3(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	s.Name = name
	log.ModSound.InfoZ("sample loaded").
		String("name", name).
		Int("rate", s.Rate).
		Int("len", len(s.Data)).
		End()
	return s, nil
}

// DecodeWAV decodes a PCM WAV file, keeping its first channel.
func DecodeWAV(r io.ReadSeeker) (*dispatch.Sample, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: %w", ErrFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	fbuf := buf.AsFloat32Buffer()
	nch := max(int(dec.NumChans), 1)

	// Integer PCM is not normalized by go-audio.
	scale := float32(1)
	if bits := buf.SourceBitDepth; bits > 0 {
		scale = float32(math.Pow(2, float64(bits-1)))
	}

	mono := make([]float32, 0, len(fbuf.Data)/nch)
	for i := 0; i < len(fbuf.Data); i += nch {
		mono = append(mono, fbuf.Data[i]/scale)
	}
	return FromFloat(int(dec.SampleRate), mono), nil
}

// DecodeMP3 decodes a MP3 stream, downmixed to mono.
func DecodeMP3(r io.Reader) (*dispatch.Sample, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	// go-mp3 always produces 16-bit little endian stereo.
	var mono []float32
	chunk := make([]byte, 4096)
	for {
		n, err := io.ReadFull(dec, chunk)
		for i := 0; i+3 < n; i += 4 {
			left := int16(uint16(chunk[i]) | uint16(chunk[i+1])<<8)
			right := int16(uint16(chunk[i+2]) | uint16(chunk[i+3])<<8)
			mono = append(mono, (float32(left)+float32(right))/65536)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3: %w", err)
		}
	}
	return FromFloat(dec.SampleRate(), mono), nil
}

// FromFloat converts normalized samples ([-1, 1]) to a sample.
func FromFloat(rate int, data []float32) *dispatch.Sample {
	s := &dispatch.Sample{Rate: rate, Loop: -1, Data: make([]int8, len(data))}
	for i, f := range data {
		v := math.Round(float64(f) * 127)
		s.Data[i] = int8(min(max(v, -128), 127))
	}
	return s
}

// WriteWAV writes interleaved 16-bit PCM frames as a WAV file.
func WriteWAV(w io.WriteSeeker, rate, channels int, frames []int16) error {
	enc := wav.NewEncoder(w, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           make([]int, len(frames)),
		SourceBitDepth: 16,
	}
	for i, s := range frames {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
