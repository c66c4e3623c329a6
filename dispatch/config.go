package dispatch

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds chip configuration flags, such as clock selection or chip
// variant. The zero value is an empty configuration.
type Config struct {
	values map[string]any
}

// ParseConfig parses a flag string made of key=value lines, for example
// "clockSel=1\nchipType=2\n".
func ParseConfig(s string) (Config, error) {
	values := make(map[string]any)
	if _, err := toml.Decode(s, &values); err != nil {
		return Config{}, fmt.Errorf("parse chip flags: %w", err)
	}
	return Config{values: values}, nil
}

// MustParseConfig is like ParseConfig but panics on error.
func MustParseConfig(s string) Config {
	cfg, err := ParseConfig(s)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Int returns the integer value of key, or def if missing or not a number.
func (c Config) Int(key string, def int) int {
	switch v := c.values[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return def
}

// Bool returns the boolean value of key, or def if missing. Numbers are true
// when non-zero.
func (c Config) Bool(key string, def bool) bool {
	switch v := c.values[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return def
}

// String returns the string value of key, or def if missing.
func (c Config) String(key string, def string) string {
	switch v := c.values[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// With returns a copy of c with key set to val.
func (c Config) With(key string, val any) Config {
	values := maps.Clone(c.values)
	if values == nil {
		values = make(map[string]any)
	}
	values[key] = val
	return Config{values: values}
}

// Encode returns c as a flag string, with keys sorted.
func (c Config) Encode() string {
	var sb strings.Builder
	for _, k := range slices.Sorted(maps.Keys(c.values)) {
		sb.WriteString(k)
		sb.WriteByte('=')
		switch v := c.values[k].(type) {
		case string:
			sb.WriteString(strconv.Quote(v))
		default:
			fmt.Fprint(&sb, v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
