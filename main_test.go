package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/1135975331/furnace/emu/log"
	"github.com/1135975331/furnace/reglog"
	"github.com/1135975331/furnace/sample"
)

func init() { log.Disable() }

const testSong = `
system = "nes+sms"
tickRate = 60
length = 30

[[instruments]]
name = "pluck"
[instruments.macros.vol]
values = [15, 11, 8, 6, 4]

[[events]]
chan = 0
cmd = "Instrument"
value = 0

[[events]]
chan = 0
note = "A-4"

[[events]]
tick = 5
chip = 1
chan = 1
note = "E-5"
`

func writeSong(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.toml")
	if err := os.WriteFile(path, []byte(testSong), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), cfgFilename)

	if got := loadConfig(path); !cmp.Equal(got, defaultConfig) {
		t.Errorf("missing config mismatch (-want +got):\n%s", cmp.Diff(defaultConfig, got))
	}

	cfg := defaultConfig
	cfg.Audio.Backend = "oto"
	cfg.Audio.BufferSize = 512
	cfg.Render.SampleRate = 48000
	if err := saveConfig(path, cfg); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, loadConfig(path)); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), cfgFilename)
	data := "[audio]\nbackend = \"alsa\"\nsample_rate = -1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(defaultConfig, loadConfig(path)); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(path, []byte("[audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(defaultConfig, loadConfig(path)); diff != "" {
		t.Errorf("invalid config mismatch (-want +got):\n%s", diff)
	}
}

func TestModeOf(t *testing.T) {
	tests := map[string]mode{
		"render </path/to/song.toml>":  renderMode,
		"play </path/to/song.toml>":    playMode,
		"regdump </path/to/song.toml>": regdumpMode,
		"replay </path/to/dump.json>":  replayMode,
		"chips":                        chipsMode,
		"config":                       configMode,
		"version":                      versionMode,
	}
	for cmd, want := range tests {
		if got := modeOf(cmd); got != want {
			t.Errorf("modeOf(%q) = %d, want %d", cmd, got, want)
		}
	}
}

func TestRender(t *testing.T) {
	song := writeSong(t)
	out := filepath.Join(t.TempDir(), "song.wav")

	var stdout bytes.Buffer
	args := Render{Script: song, Out: out, Stems: true, Report: true}
	if err := runRender(context.Background(), args, defaultConfig, &stdout); err != nil {
		t.Fatal(err)
	}

	smp, err := sample.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if smp.Rate != 44100 || len(smp.Data) != 30*735 {
		t.Errorf("rendered %d samples at %dHz, want %d at 44100Hz", len(smp.Data), smp.Rate, 30*735)
	}
	for i, id := range []string{"nes", "sms"} {
		if _, err := os.Stat(stemPath(out, i, id)); err != nil {
			t.Errorf("stem %d: %v", i, err)
		}
	}
	for _, want := range []string{"song.wav: 22050 frames", "CHIP", "A-4", "E-5"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, stdout.String())
		}
	}
}

func TestRegdumpReplay(t *testing.T) {
	song := writeSong(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.json")

	f, err := os.Create(dump)
	if err != nil {
		t.Fatal(err)
	}
	args := Regdump{Script: song, Out: &outfile{w: f, name: dump, close: f.Close}}
	if err := runRegdump(context.Background(), args, defaultConfig, nil); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(dump)
	if err != nil {
		t.Fatal(err)
	}
	l, err := reglog.Decode(r)
	r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"nes", "sms"}, l.Chips); diff != "" {
		t.Errorf("chips mismatch (-want +got):\n%s", diff)
	}
	if l.NumFrames != 30 || l.FrameLen != 735 {
		t.Errorf("dump has %d frames of %d samples, want 30 of 735", l.NumFrames, l.FrameLen)
	}

	var stdout bytes.Buffer
	out := filepath.Join(dir, "replay.wav")
	if err := runReplay(Replay{Dump: dump, Chip: 1, Out: out}, &stdout); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "22050 frames") {
		t.Errorf("unexpected replay output %q", stdout.String())
	}

	if err := runReplay(Replay{Dump: dump, Chip: 2, Out: out}, &stdout); err == nil {
		t.Errorf("replaying chip 2 succeeded")
	}
}

func TestChips(t *testing.T) {
	var buf bytes.Buffer
	if err := runChips(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"dummy", "nes", "sms", "gamegear", "nes+sms"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("chips output does not contain %q", want)
		}
	}
}

func TestStemPath(t *testing.T) {
	if got := stemPath("/tmp/out.wav", 1, "sms"); got != "/tmp/out.1-sms.wav" {
		t.Errorf("stemPath = %q", got)
	}
}
