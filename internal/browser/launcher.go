// Package browser launches a Chrome instance with the bridge shim loaded.
package browser

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

//go:embed shim
var shimFS embed.FS

// Config holds browser launch configuration.
type Config struct {
	CDPAddress   string
	CDPPort      int
	BridgeURL    string
	ExtensionDir string
	ProfileDir   string
	StartURL     string
	ExecPath     string
	Headless     bool
}

// Version is what the launched browser reports about itself.
type Version struct {
	Product         string `json:"product"`
	ProtocolVersion string `json:"protocol_version"`
	UserAgent       string `json:"user_agent"`
}

// Launcher manages the lifecycle of a browser process.
type Launcher struct {
	cfg Config

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context
}

func NewLauncher(cfg Config) *Launcher {
	if cfg.StartURL == "" {
		cfg.StartURL = "about:blank"
	}
	return &Launcher{cfg: cfg}
}

// WriteExtension unpacks the shim into dir and points it at bridgeURL.
func WriteExtension(dir, bridgeURL string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create extension dir: %w", err)
	}
	err := fs.WalkDir(shimFS, "shim", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := shimFS.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, d.Name()), data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("write extension: %w", err)
	}
	cfgJS := "const TABORDER_BRIDGE_URL = " + strconv.Quote(bridgeURL) + ";\n"
	if err := os.WriteFile(filepath.Join(dir, "config.js"), []byte(cfgJS), 0o644); err != nil {
		return fmt.Errorf("write extension config: %w", err)
	}
	return nil
}

// detectBrowser finds an available Chrome/Chromium binary.
func detectBrowser() (string, error) {
	candidates := []string{"chromium-browser", "chromium", "google-chrome"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried chromium-browser, chromium, google-chrome)")
}

func isPortInUse(address string, port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(address, strconv.Itoa(port)), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// allocatorOptions extends chromedp's defaults with the shim and the profile.
// Extensions only load in a headed browser or with the new headless mode.
func (l *Launcher) allocatorOptions(execPath string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.ExecPath(execPath),
		chromedp.UserDataDir(l.cfg.ProfileDir),
		chromedp.Flag("remote-debugging-address", l.cfg.CDPAddress),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(l.cfg.CDPPort)),
		chromedp.Flag("disable-extensions", false),
		chromedp.Flag("load-extension", l.cfg.ExtensionDir),
		chromedp.Flag("disable-extensions-except", l.cfg.ExtensionDir),
		chromedp.Flag("headless", false),
	)
	if l.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

// Launch writes the shim, starts the browser and probes its version. If
// something already listens on the CDP port, Launch attaches to it instead.
func (l *Launcher) Launch(ctx context.Context) (Version, error) {
	var allocCtx context.Context
	if isPortInUse(l.cfg.CDPAddress, l.cfg.CDPPort) {
		slog.Info("browser already running, attaching",
			"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)
		url := fmt.Sprintf("ws://%s:%d", l.cfg.CDPAddress, l.cfg.CDPPort)
		allocCtx, l.allocCancel = chromedp.NewRemoteAllocator(ctx, url)
	} else {
		execPath := l.cfg.ExecPath
		if execPath == "" {
			found, err := detectBrowser()
			if err != nil {
				return Version{}, err
			}
			execPath = found
		}
		slog.Info("detected browser", "path", execPath)

		if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
			return Version{}, fmt.Errorf("create profile dir: %w", err)
		}
		if err := WriteExtension(l.cfg.ExtensionDir, l.cfg.BridgeURL); err != nil {
			return Version{}, err
		}
		allocCtx, l.allocCancel = chromedp.NewExecAllocator(ctx, l.allocatorOptions(execPath)...)
	}

	l.browserCtx, l.browserCancel = chromedp.NewContext(allocCtx)
	if err := chromedp.Run(l.browserCtx, chromedp.Navigate(l.cfg.StartURL)); err != nil {
		l.Stop()
		return Version{}, fmt.Errorf("start browser: %w", err)
	}

	v, err := l.Version()
	if err != nil {
		l.Stop()
		return Version{}, err
	}
	slog.Info("browser ready", "product", v.Product, "protocol", v.ProtocolVersion)
	return v, nil
}

// Version asks the running browser for its product and protocol version.
func (l *Launcher) Version() (Version, error) {
	if l.browserCtx == nil {
		return Version{}, fmt.Errorf("browser not launched")
	}
	var v Version
	err := chromedp.Run(l.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		protocol, product, _, userAgent, _, err := cdpbrowser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		v = Version{Product: product, ProtocolVersion: protocol, UserAgent: userAgent}
		return nil
	}))
	if err != nil {
		return Version{}, fmt.Errorf("browser version: %w", err)
	}
	return v, nil
}

// Running reports whether a browser is attached.
func (l *Launcher) Running() bool {
	return l.browserCtx != nil && l.browserCtx.Err() == nil
}

// Stop closes the browser. A browser that was only attached to is left
// running by chromedp's remote allocator.
func (l *Launcher) Stop() {
	if l.browserCancel != nil {
		slog.Info("stopping browser")
		l.browserCancel()
		l.browserCancel = nil
	}
	if l.allocCancel != nil {
		l.allocCancel()
		l.allocCancel = nil
	}
}
