// Command fitsview displays a FITS, TIFF or PNG image in a window with
// interactive stretch, zoom and pan.
//
// Usage:
//
//	fitsview [flags] image.fits
//
// Scroll to zoom, drag to pan, 1-4 select the transfer function
// (linear, log, sqrt, asinh), [ and ] adjust brightness, - and = adjust
// contrast, R resets the view and Esc quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/fitsview"
	"github.com/gogpu/fitsview/fits"
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

type config struct {
	path          string
	width, height int
	low, high     float64
	tick          time.Duration
	watch         bool
	logger        *slog.Logger
}

func main() {
	var (
		width   = flag.Int("width", 1024, "initial window width")
		height  = flag.Int("height", 768, "initial window height")
		low     = flag.Float64("low", 0.25, "auto-stretch low percentile")
		high    = flag.Float64("high", 99.75, "auto-stretch high percentile")
		tick    = flag.Duration("tick", fitsview.DefaultTickInterval, "frame interval")
		watch   = flag.Bool("watch", false, "reload the image when the file changes")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	cfg := config{
		path:   flag.Arg(0),
		width:  *width,
		height: *height,
		low:    *low,
		high:   *high,
		tick:   *tick,
		watch:  *watch,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	img, err := fits.Load(cfg.path)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(cfg.width, cfg.height, title(cfg.path, img), nil, nil)
	if err != nil {
		return fmt.Errorf("glfw: %w", err)
	}
	defer win.Destroy()

	r, err := fitsview.New(glfwWindow{win},
		fitsview.WithTickInterval(cfg.tick),
		fitsview.WithLogger(cfg.logger),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	fbW, fbH := win.GetFramebufferSize()
	v := newViewer(r, cfg.low, cfg.high, fbW, fbH)
	stats, err := v.load(img)
	if err != nil {
		return err
	}
	lo, hi := v.stretch()
	report(os.Stdout, cfg.path, img, stats, lo, hi)

	bindInput(win, v)
	r.Start()
	defer r.Stop()

	if cfg.watch {
		stop, err := watchFile(cfg.path, func() { reload(cfg, v) }, cfg.logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	for !win.ShouldClose() {
		glfw.WaitEvents()
	}
	return nil
}

// reload runs on the watcher goroutine.
func reload(cfg config, v *viewer) {
	img, err := fits.Load(cfg.path)
	if err != nil {
		cfg.logger.Warn("reload failed", "path", cfg.path, "err", err)
		return
	}
	stats, err := v.load(img)
	if err != nil {
		cfg.logger.Error("reload failed", "path", cfg.path, "err", err)
		return
	}
	lo, hi := v.stretch()
	report(os.Stdout, cfg.path, img, stats, lo, hi)
}

func title(path string, img *fits.Image) string {
	return fmt.Sprintf("%s (%dx%d %s)", filepath.Base(path), img.Width, img.Height, img.Format)
}
