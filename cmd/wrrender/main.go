// Command wrrender renders a YAML scene to a PNG image.
//
// Usage:
//
//	wrrender [flags] scene.yaml
//	wrrender -spirv dir
//
// With -spirv the kernels that have a GPU form are compiled to SPIR-V
// and written to dir before any scene is rendered.
// With -watch the scene is rendered again whenever its file changes,
// until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	"github.com/gogpu/compositor"
)

// pipeName is the output name that writes to stdout.
const pipeName = "-"

// debounce is how long -watch waits for writes to settle.
const debounce = 100 * time.Millisecond

func main() {
	var (
		output  = flag.String("out", "out.png", "output file, - for stdout")
		config  = flag.String("config", "", "TOML renderer config")
		dpr     = flag.Float64("dpr", 0, "device pixel ratio, overrides the config")
		workers = flag.Int("workers", 0, "raster workers, 0 for one per CPU")
		watch   = flag.Bool("watch", false, "render again when the scene changes")
		debug   = flag.String("debug", "", "serve the debug protocol on this address")
		verbose = flag.Bool("v", false, "log frame statistics")
		spirv   = flag.String("spirv", "", "write compiled SPIR-V kernels to this directory")
	)
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: wrrender [flags] scene.yaml\n       wrrender -spirv dir\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *spirv != "" {
		names, err := writeShaders(*spirv)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %d shaders to %s", len(names), *spirv)
		if flag.NArg() == 0 {
			return
		}
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	scene := flag.Arg(0)

	if *output == pipeName && term.IsTerminal(int(os.Stdout.Fd())) {
		log.Fatal("`-` should be used with a pipe for stdout")
	}

	cfg := compositor.DefaultConfig()
	if *config != "" {
		var err error
		if cfg, err = compositor.LoadConfig(*config); err != nil {
			log.Fatal(err)
		}
	}
	opts := []compositor.Option{compositor.WithConfig(cfg)}
	if *dpr > 0 {
		opts = append(opts, compositor.WithDevicePixelRatio(float32(*dpr)))
	}
	if *workers > 0 {
		opts = append(opts, compositor.WithWorkers(*workers))
	}
	if *debug != "" {
		opts = append(opts, compositor.WithDebugServer(*debug))
	}
	if *verbose {
		level := slog.LevelInfo
		if term.IsTerminal(int(os.Stderr.Fd())) {
			level = slog.LevelDebug
		}
		opts = append(opts, compositor.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))))
	}

	r, err := compositor.New(opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := renderFile(ctx, r, scene, *output); err != nil {
		log.Fatal(err)
	}
	if *watch {
		if err := watchFile(ctx, scene, func() error {
			return renderFile(ctx, r, scene, *output)
		}); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
	}
}

// renderFile renders the scene at path and writes the PNG to out.
func renderFile(ctx context.Context, r *compositor.Renderer, path, out string) error {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	s, err := ParseScene(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	im, err := loadImages(s, filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	r.SetImages(im.tex)

	fr, err := s.Build(r, im)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	res, err := r.RenderPass(ctx, fr)
	if err != nil {
		return err
	}
	if err := writePNG(out, res); err != nil {
		return err
	}
	compositor.Logger().Info("wrrender: rendered",
		"scene", path,
		"out", out,
		"batches", res.Batches,
		"instances", res.Stats.Instances,
		"elapsed", time.Since(start))
	return nil
}

func writePNG(out string, res *compositor.Result) (err error) {
	if out == pipeName {
		return encodePNG(os.Stdout, out, res)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encodePNG(f, out, res)
}

func encodePNG(w io.Writer, name string, res *compositor.Result) error {
	if err := png.Encode(w, res.Image()); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

// watchFile calls fn after each change of path until ctx is done.
// Errors from fn are logged. The directory is watched so that editors
// replacing the file by rename are noticed.
func watchFile(ctx context.Context, path string, fn func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer = time.After(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-timer:
			timer = nil
			if err := fn(); err != nil {
				log.Print(err)
			}
		}
	}
}
