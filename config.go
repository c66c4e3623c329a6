package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/1135975331/furnace/emu/log"
)

type Config struct {
	Audio  AudioConfig  `toml:"audio"`
	Render RenderConfig `toml:"render"`
}

type AudioConfig struct {
	Backend    string `toml:"backend"` // sdl or oto
	SampleRate int    `toml:"sample_rate"`
	BufferSize int    `toml:"buffer_size"` // in frames
}

type RenderConfig struct {
	SampleRate int `toml:"sample_rate"`
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "furnace")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

var defaultConfig = Config{
	Audio: AudioConfig{
		Backend:    "sdl",
		SampleRate: 44100,
		BufferSize: 1024,
	},
	Render: RenderConfig{
		SampleRate: 44100,
	},
}

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the furnace config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	return loadConfig(filepath.Join(ConfigDir(), cfgFilename))
}

func loadConfig(path string) Config {
	cfg := defaultConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			log.ModEmu.WarnZ("invalid config, using defaults").String("path", path).Error("err", err).End()
		}
		return defaultConfig
	}
	cfg.check()
	return cfg
}

// check replaces invalid values with their defaults.
func (cfg *Config) check() {
	if cfg.Audio.Backend != "sdl" && cfg.Audio.Backend != "oto" {
		log.ModEmu.Warnf("Invalid audio backend %q, fallback to %q", cfg.Audio.Backend, defaultConfig.Audio.Backend)
		cfg.Audio.Backend = defaultConfig.Audio.Backend
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = defaultConfig.Audio.SampleRate
	}
	if cfg.Audio.BufferSize <= 0 {
		cfg.Audio.BufferSize = defaultConfig.Audio.BufferSize
	}
	if cfg.Render.SampleRate <= 0 {
		cfg.Render.SampleRate = defaultConfig.Render.SampleRate
	}
}

// SaveConfig into furnace config directory.
func SaveConfig(cfg Config) error {
	return saveConfig(filepath.Join(ConfigDir(), cfgFilename), cfg)
}

func saveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}
