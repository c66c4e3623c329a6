package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/1135975331/furnace/emu/log"
)

type mode byte

const (
	renderMode  mode = iota // Render a song to WAV
	playMode                // Play a song
	regdumpMode             // Dump register writes
	replayMode              // Render a register dump
	chipsMode               // List chips and systems
	configMode              // Write the default config
	versionMode             // Show version
)

type (
	CLI struct {
		Render  Render      `cmd:"" help:"Render a song script to a WAV file."`
		Play    Play        `cmd:"" help:"Play a song script."`
		Regdump Regdump     `cmd:"" help:"Dump the register writes of a song script as JSON."`
		Replay  Replay      `cmd:"" help:"Render a chip of a register dump to a WAV file."`
		Chips   Chips       `cmd:"" help:"List available chips and systems."`
		Config  WriteConfig `cmd:"" help:"Write the default configuration file." name:"config"`
		Version Version     `cmd:"" help:"Show version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Render struct {
		Script string `arg:"" name:"/path/to/song.toml" help:"${script_help}" type:"existingfile"`

		Out    string `name:"out" short:"o" help:"Output WAV file." default:"out.wav" type:"path"`
		Rate   int    `name:"rate" help:"Sample rate. (default: from config)"`
		Ticks  int    `name:"ticks" help:"Stop after that many ticks. (0: whole song)"`
		Stems  bool   `name:"stems" help:"Also render each chip to its own WAV file."`
		Report bool   `name:"report" help:"Print levels and pitch of each channel at the end of the song."`
	}

	Play struct {
		Script string `arg:"" name:"/path/to/song.toml" help:"${script_help}" type:"existingfile"`

		Backend string `name:"backend" help:"Audio backend. (default: from config)" enum:"sdl,oto," default:""`
		Rate    int    `name:"rate" help:"Sample rate. (default: from config)"`
		Buffer  int    `name:"buffer" help:"Audio buffer size in frames. (default: from config)"`
		Ticks   int    `name:"ticks" help:"Stop after that many ticks. (0: whole song)"`
	}

	Regdump struct {
		Script string `arg:"" name:"/path/to/song.toml" help:"${script_help}" type:"existingfile"`

		Out   *outfile `name:"out" short:"o" help:"Write JSON to file." placeholder:"FILE|stdout|stderr"`
		Rate  int      `name:"rate" help:"Sample rate. (default: from config)"`
		Ticks int      `name:"ticks" help:"Stop after that many ticks. (0: whole song)"`
	}

	Replay struct {
		Dump string `arg:"" name:"/path/to/dump.json" type:"existingfile"`

		Chip int    `name:"chip" help:"Index of the chip to render." default:"0"`
		Out  string `name:"out" short:"o" help:"Output WAV file." default:"replay.wav" type:"path"`
	}

	Chips       struct{}
	WriteConfig struct{}
	Version     struct{}
)

var vars = kong.Vars{
	"script_help": "Song script (TOML).",
	"log_help":    "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("furnace"),
		kong.Description("Sound chip dispatch engine: render, play and inspect chip music."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	cfg.mode = modeOf(ctx.Command())
	return cfg
}

func modeOf(cmd string) mode {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return renderMode
	}
	switch fields[0] {
	case "play":
		return playMode
	case "regdump":
		return regdumpMode
	case "replay":
		return replayMode
	case "chips":
		return chipsMode
	case "config":
		return configMode
	case "version":
		return versionMode
	}
	return renderMode
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() != "" {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
