package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	args := parseArgs(os.Args[1:])
	cfg := LoadConfigOrDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args.mode {
	case renderMode:
		checkf(runRender(ctx, args.Render, cfg, os.Stdout), "failed to render %s", args.Render.Script)
	case playMode:
		checkf(runPlay(ctx, args.Play, cfg), "failed to play %s", args.Play.Script)
	case regdumpMode:
		checkf(runRegdump(ctx, args.Regdump, cfg, os.Stdout), "failed to dump registers of %s", args.Regdump.Script)
	case replayMode:
		checkf(runReplay(args.Replay, os.Stdout), "failed to replay %s", args.Replay.Dump)
	case chipsMode:
		checkf(runChips(os.Stdout), "failed to list chips")
	case configMode:
		checkf(SaveConfig(cfg), "failed to save config")
	case versionMode:
		printVersion(os.Stdout)
	}
}
