package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/huetrack/internal/app"
	"github.com/ayusman/huetrack/internal/capture"
	"github.com/ayusman/huetrack/internal/config"
	"github.com/ayusman/huetrack/internal/display"
	"github.com/ayusman/huetrack/internal/server"
	"github.com/ayusman/huetrack/internal/store"
	"github.com/ayusman/huetrack/internal/tray"
)

type options struct {
	configPath string
	device     int
	width      int
	height     int
	headless   bool
	httpAddr   string
	dbPath     string
	tray       bool
	verbose    bool
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) || errors.Is(err, capture.ErrFrameUnavailable) {
			log.Fatalf("Capture failed: %v", err)
		}
		log.Fatalf("huetrack: %v", err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "JSON config file (defaults apply to missing fields)")
	flag.IntVar(&opts.device, "device", config.DefaultDeviceID, "camera device index")
	flag.IntVar(&opts.width, "width", 0, "requested frame width (0 = device default)")
	flag.IntVar(&opts.height, "height", 0, "requested frame height (0 = device default)")
	flag.BoolVar(&opts.headless, "headless", false, "do not open a window")
	flag.StringVar(&opts.httpAddr, "http", "", "preview server address, e.g. :8080")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite detection journal path (empty disables the journal)")
	flag.BoolVar(&opts.tray, "tray", false, "run with a system tray menu instead of a window")
	flag.BoolVar(&opts.verbose, "v", false, "log every detection")
	flag.Parse()
	return opts
}

// loadConfig reads the config file, then applies the flags that were set explicitly.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.DeviceID = opts.device
		case "width":
			cfg.Width = opts.width
		case "height":
			cfg.Height = opts.height
		}
	})

	return cfg, cfg.Validate()
}

func run(opts options) error {
	fmt.Println("huetrack - live colour annotator")

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var st *store.Store
	if opts.dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0755); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
		st, err = store.New(opts.dbPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer st.Close()
		log.Printf("Journaling detections to %s", opts.dbPath)
	}

	var surface display.Surface
	if opts.headless || opts.tray {
		surface = display.NewHeadless()
	} else {
		surface = display.NewWindow(cfg.WindowTitle, cfg.QuitKey[0])
	}

	a, err := app.New(app.Config{
		Annotator: cfg,
		Store:     st,
		Surface:   surface,
		Verbose:   opts.verbose,
	})
	if err != nil {
		surface.Close()
		return err
	}
	defer a.Close()

	serverDone := make(chan struct{})
	if opts.httpAddr != "" {
		hub := server.NewHub()
		a.AddPublisher(hub)

		srv := server.New(server.Config{Store: st, Hub: hub})
		go func() {
			defer close(serverDone)
			if err := srv.Serve(ctx, opts.httpAddr); err != nil {
				log.Printf("Error running preview server: %v", err)
			}
		}()
	} else {
		close(serverDone)
	}

	if opts.tray {
		err = runWithTray(ctx, cancel, a, opts.httpAddr)
	} else {
		err = a.Run(ctx)
	}

	cancel()
	<-serverDone

	stats := a.Stats()
	log.Printf("Pipeline stopped after %d frames, %d detections", stats.Frames, stats.Detections)
	return err
}

// runWithTray keeps the tray on the calling goroutine and the pipeline on another.
func runWithTray(ctx context.Context, cancel context.CancelFunc, a *app.App, httpAddr string) error {
	t := tray.New()
	t.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		if enabled {
			log.Println("Annotation resumed")
		} else {
			log.Println("Annotation paused")
		}
	})
	t.OnPreview(func() {
		if httpAddr == "" {
			log.Println("Preview server disabled, start with -http :8080")
			return
		}
		log.Printf("Preview stream at %s", previewURL(httpAddr))
	})
	t.OnQuit(cancel)
	a.AddPublisher(t)

	// The pipeline starts only once the tray loop is up, so its t.Quit always lands on a running tray.
	runErr := make(chan error, 1)
	go func() {
		<-t.Ready()
		runErr <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	cancel()
	return <-runErr
}

func previewURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/api/stream"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/stream"
}
