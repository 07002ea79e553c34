// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command tilecomp renders a layer scene to an image file.
//
// Usage:
//
//	tilecomp -config scene.toml [-out out.png] [-scale 0.5] [-snapshot out.tlcs] [-watch] [-v]
//
// An output of "-" writes PNG to stdout, which must not be a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tilecomp"
	"github.com/gogpu/tilecomp/internal/scene"
	"github.com/gogpu/tilecomp/surface"
)

const pipeName = "-"

type config struct {
	scene    string
	out      string
	scale    float64
	snapshot string
	watch    bool
	verbose  bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scene, "config", "", "scene file (.toml, .yaml)")
	flag.StringVar(&cfg.out, "out", "", "output image, overrides the scene output; \"-\" for stdout")
	flag.Float64Var(&cfg.scale, "scale", 0, "resize factor, overrides the scene scale")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "also write the flattened tiles to this file")
	flag.BoolVar(&cfg.watch, "watch", false, "re-render when the scene file changes")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.Parse()

	if cfg.scene == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.verbose {
		tilecomp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	p := message.NewPrinter(language.English)
	if err := runOnce(cfg, p); err != nil {
		log.Fatalf("tilecomp: %v", err)
	}
	if !cfg.watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watch(ctx, cfg, p); err != nil {
		log.Fatalf("tilecomp: %v", err)
	}
}

// runOnce loads the scene, renders it and writes the outputs.
func runOnce(cfg config, p *message.Printer) error {
	start := time.Now()
	sc, err := scene.Load(cfg.scene)
	if err != nil {
		return err
	}
	out := sc.Output
	if cfg.out != "" {
		out = cfg.out
	}
	if out == "" {
		return errors.New("no output: set -out or the scene output")
	}
	if out == pipeName && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("`-` should be used with a pipe for stdout")
	}
	factor := sc.Scale
	if cfg.scale > 0 {
		factor = cfg.scale
	}

	var snap io.WriteCloser
	if cfg.snapshot != "" {
		if snap, err = os.Create(cfg.snapshot); err != nil {
			return err
		}
	}
	res, err := build(sc, snap)
	if snap != nil {
		if cerr := snap.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	if err := write(out, scaled(res.Image, factor)); err != nil {
		return err
	}

	p.Fprintf(os.Stderr, "%s: %d layers, %d tiles, %d regions painted in %v\n",
		filepath.Base(cfg.scene), res.Stats.Layers, res.Stats.Tiles, res.Stats.Painted,
		time.Since(start).Round(time.Millisecond))
	if res.Stats.Unsupported > 0 {
		p.Fprintf(os.Stderr, "warning: %d composite calls used an op without defined math\n",
			res.Stats.Unsupported)
	}
	return nil
}

func write(out string, img image.Image) error {
	if out == pipeName {
		return surface.Encode(os.Stdout, img, surface.FormatPNG)
	}
	return surface.Save(out, img)
}

// watch re-renders on every write to the scene file until ctx is done.
// Editors that save by rename are handled by watching the directory.
func watch(ctx context.Context, cfg config, p *message.Printer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(cfg.scene)); err != nil {
		return err
	}
	target := filepath.Clean(cfg.scene)

	// Editors emit bursts of events per save.
	const settle = 100 * time.Millisecond
	var timer <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			tilecomp.Logger().Warn("tilecomp: watch", "err", err)
		case <-timer:
			timer = nil
			if err := runOnce(cfg, p); err != nil {
				fmt.Fprintf(os.Stderr, "tilecomp: %v\n", err)
			}
		}
	}
}
