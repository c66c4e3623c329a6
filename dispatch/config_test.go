package dispatch

import "testing"

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("clockSel=2\nchipType=1\ndpcmLoop=true\nname=\"gg\"\n")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"clockSel", cfg.Int("clockSel", 0), 2},
		{"chipType", cfg.Int("chipType", 0), 1},
		{"missing int", cfg.Int("channels", 7), 7},
		{"bool", cfg.Bool("dpcmLoop", false), true},
		{"missing bool", cfg.Bool("noPhaseReset", false), false},
		{"int as bool", cfg.Bool("clockSel", false), true},
		{"string", cfg.String("name", ""), "gg"},
		{"has", cfg.Has("chipType"), true},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseConfigError(t *testing.T) {
	if _, err := ParseConfig("clockSel=\n"); err == nil {
		t.Errorf("ParseConfig accepted a malformed flag string")
	}
}

func TestConfigEncode(t *testing.T) {
	var cfg Config
	cfg = cfg.With("clockSel", 1).With("dpcmLoop", true)

	const want = "clockSel=1\ndpcmLoop=true\n"
	if got := cfg.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	back := MustParseConfig(cfg.Encode())
	if back.Int("clockSel", 0) != 1 || !back.Bool("dpcmLoop", false) {
		t.Errorf("re-parsed config = %q", back.Encode())
	}
}
