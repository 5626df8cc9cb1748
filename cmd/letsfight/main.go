package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ayusman/letsfight/internal/app"
	"github.com/ayusman/letsfight/internal/capture"
	"github.com/ayusman/letsfight/internal/config"
	"github.com/ayusman/letsfight/internal/server"
	"github.com/ayusman/letsfight/internal/store"
	"github.com/ayusman/letsfight/internal/tray"
)

// enabledKey persists the recognition toggle across restarts.
const enabledKey = "enabled"

func main() {
	configPath := flag.String("config", "", "path to a JSON tuning file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	camera := flag.Int("camera", -1, "camera device id (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	useTray := flag.Bool("tray", false, "show a system tray menu")
	flag.Parse()

	fmt.Println("LetsFight - Pose Action Recognition")

	settings, err := config.LoadSettings(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		settings.Addr = *addr
	}
	if *camera >= 0 {
		settings.CameraID = *camera
	}
	if *dbPath != "" {
		settings.DBPath = *dbPath
	}

	st, err := store.New(settings.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	frames := capture.NewFrameBuffer()
	a, err := app.New(app.Config{
		Settings: settings,
		Store:    st,
		Frames:   frames,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	hub := server.NewActionsHandler()
	a.Subscribe(func(u app.Update) {
		hub.Publish(server.NewActionMessage(u.Output.Result, u.Raw, u.Time))
	})

	enabled := restoreEnabled(st)
	a.SetEnabled(enabled)

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Frames:     frames,
		Actions:    hub,
		Settings:   &settings,
		Controller: &persistedController{App: a, store: st},
	})

	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable: %v", err)
	}

	go func() {
		fmt.Printf("Starting server on %s\n", settings.Addr)
		if err := srv.ListenAndServe(settings.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
		if err := a.Close(); err != nil {
			log.Printf("Detector shutdown: %v", err)
		}
	}

	if *useTray {
		runTray(a, st, settings.Addr, enabled)
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}

	log.Println("Shutting down")
	shutdown()
}

// runTray blocks on the tray menu until Quit is chosen or a signal arrives.
func runTray(a *app.App, st *store.Store, addr string, enabled bool) {
	t := tray.New(enabled)
	t.OnToggle(func(on bool) {
		a.SetEnabled(on)
		saveEnabled(st, on)
	})
	t.OnDashboard(func() {
		if err := openBrowser("http://" + addr); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	a.Subscribe(func(u app.Update) { t.SetAction(u.Output.Result) })

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		t.Quit()
	}()

	t.Run()
}

// persistedController saves toggles made over the HTTP API.
type persistedController struct {
	*app.App
	store *store.Store
}

func (c *persistedController) SetEnabled(enabled bool) {
	c.App.SetEnabled(enabled)
	saveEnabled(c.store, enabled)
}

func restoreEnabled(st *store.Store) bool {
	v, err := st.Settings().Get(enabledKey)
	if errors.Is(err, store.ErrNotFound) {
		return true
	}
	if err != nil {
		log.Printf("Failed to read %s setting: %v", enabledKey, err)
		return true
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return enabled
}

func saveEnabled(st *store.Store, enabled bool) {
	if err := st.Settings().Set(enabledKey, strconv.FormatBool(enabled)); err != nil {
		log.Printf("Failed to save %s setting: %v", enabledKey, err)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.letsfight/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".letsfight", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
