package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"text/tabwriter"

	"github.com/1135975331/furnace/chips"
	"github.com/1135975331/furnace/dispatch"
	"github.com/1135975331/furnace/player"
	"github.com/1135975331/furnace/reglog"
	"github.com/1135975331/furnace/sample"
	"github.com/1135975331/furnace/script"
	"github.com/1135975331/furnace/system"
	"github.com/1135975331/furnace/telemetry"
)

// reportWindow is the number of samples analyzed per channel by the render
// report.
const reportWindow = 8192

func openScript(path string, rate int) (*script.Script, *system.System, error) {
	s, err := script.Load(path)
	if err != nil {
		return nil, nil, err
	}
	sys, err := system.New(s.Def, s.Bank, rate)
	if err != nil {
		return nil, nil, err
	}
	return s, sys, nil
}

func writeWAV(path string, rate int, frames []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sample.WriteWAV(f, rate, 2, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stemPath(out string, idx int, id string) string {
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s.%d-%s%s", strings.TrimSuffix(out, ext), idx, id, ext)
}

func runRender(ctx context.Context, args Render, cfg Config, w io.Writer) error {
	rate := cmp.Or(args.Rate, cfg.Render.SampleRate)
	s, sys, err := openScript(args.Script, rate)
	if err != nil {
		return err
	}
	defer sys.Quit()

	var frames []int16
	err = sys.Render(ctx, s, args.Ticks, func(buf []int16) error {
		frames = append(frames, buf...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := writeWAV(args.Out, rate, frames); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d frames (%.2fs)\n", args.Out, len(frames)/2, float64(len(frames)/2)/float64(rate))

	if args.Stems {
		stems, err := system.RenderStems(ctx, s.Def, s.Bank, rate, s, args.Ticks)
		if err != nil {
			return err
		}
		for i, stem := range stems {
			path := stemPath(args.Out, i, s.Def.Chips[i].ID)
			if err := writeWAV(path, rate, stem); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s: %d frames\n", path, len(stem)/2)
		}
	}

	if args.Report {
		printReport(w, sys)
	}
	return nil
}

// printReport shows the state and recent output of every channel.
func printReport(w io.Writer, sys *system.System) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHIP\tCH\tNOTE\tVOL\tPEAK\tRMS (dBFS)\tFREQ (Hz)")
	for i := range sys.Chips() {
		d := sys.Chip(i)
		id := sys.Def().Chips[i].ID
		for ch := range d.Channels() {
			st, ok := d.ChanState(ch)
			if !ok {
				continue
			}
			note := "---"
			if st.Active {
				note = script.NoteName(st.Note)
			}
			rep := telemetry.Scope(d.OscBuffer(ch), reportWindow)
			freq := "-"
			if rep.Freq > 0 {
				freq = fmt.Sprintf("%.1f", rep.Freq)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%.3f\t%.1f\t%s\n", id, ch, note, st.OutVol, rep.Peak, rep.DBFS(), freq)
		}
	}
	tw.Flush()
}

func runPlay(ctx context.Context, args Play, cfg Config) error {
	rate := cmp.Or(args.Rate, cfg.Audio.SampleRate)
	bufSize := cmp.Or(args.Buffer, cfg.Audio.BufferSize)
	s, sys, err := openScript(args.Script, rate)
	if err != nil {
		return err
	}
	defer sys.Quit()

	stream := player.NewStream(sys, s, args.Ticks)
	switch cmp.Or(args.Backend, cfg.Audio.Backend) {
	case "oto":
		return player.PlayOto(ctx, stream, rate, bufSize)
	default:
		return player.PlaySDL(ctx, stream, rate, bufSize)
	}
}

func runRegdump(ctx context.Context, args Regdump, cfg Config, stdout io.Writer) error {
	rate := cmp.Or(args.Rate, cfg.Render.SampleRate)
	s, sys, err := openScript(args.Script, rate)
	if err != nil {
		return err
	}
	defer sys.Quit()

	var rec reglog.Recorder
	sys.Record(&rec)
	err = sys.Render(ctx, s, args.Ticks, func([]int16) error { return nil })
	sys.StopRecording()
	if err != nil {
		return err
	}

	frameLen := int(float64(rate) / s.Bank.TickRate())
	l := rec.Log(sys.ChipIDs(), rate, frameLen)

	var w io.Writer = stdout
	if args.Out != nil {
		defer args.Out.Close()
		w = args.Out
	}
	return reglog.Encode(w, l)
}

func runReplay(args Replay, w io.Writer) error {
	f, err := os.Open(args.Dump)
	if err != nil {
		return err
	}
	l, err := reglog.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	if args.Chip < 0 || args.Chip >= len(l.Chips) {
		return fmt.Errorf("chip %d out of range, dump has %d chips", args.Chip, len(l.Chips))
	}

	d, err := chips.Open(l.Chips[args.Chip], nil, 0, l.Rate, dispatch.Config{})
	if err != nil {
		return err
	}
	defer d.Quit()

	var frames []int16
	err = reglog.Replay(d, l, args.Chip, func(buf []int16) error {
		frames = append(frames, buf...)
		return nil
	})
	if err != nil {
		return err
	}
	if err := writeWAV(args.Out, l.Rate, frames); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d frames\n", args.Out, len(frames)/2)
	return nil
}

func runChips(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHIP\tCHANNELS\tSTEREO\tNAME")
	for _, c := range chips.All() {
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", c.ID, c.Channels, c.Stereo, c.Name)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SYSTEM\tCHIPS\t\tNAME")
	for _, d := range system.Presets() {
		ids := make([]string, len(d.Chips))
		for i, c := range d.Chips {
			ids[i] = c.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t\t%s\n", d.ID, strings.Join(ids, "+"), d.Name)
	}
	return tw.Flush()
}

func printVersion(w io.Writer) {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Fprintln(w, "furnace", version)
}
