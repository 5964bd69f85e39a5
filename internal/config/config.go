package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxUploadBytes is the client-side size ceiling (100 MiB).
const DefaultMaxUploadBytes int64 = 100 * 1024 * 1024

type Config struct {
	ServerURL      string `json:"serverURL"`
	UploadPath     string `json:"uploadPath"`
	ChannelPath    string `json:"channelPath"`
	FormField      string `json:"formField"`
	Locale         string `json:"locale"`
	MaxUploadBytes int64  `json:"maxUploadBytes"`
	StatusWait     string `json:"statusWait"` // Go duration, e.g. "10s"
	HistoryLimit   int    `json:"historyLimit"`
	LogDir         string `json:"logDir"`
	LogLevel       string `json:"logLevel"`
}

func Defaults() Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		UploadPath:     "/upload/",
		ChannelPath:    "/ws/",
		FormField:      "file",
		Locale:         "en-US",
		MaxUploadBytes: DefaultMaxUploadBytes,
		StatusWait:     "10s",
		HistoryLimit:   20,
		LogDir:         filepath.Join(baseDir(), "logs"),
		LogLevel:       "info",
	}
}

func baseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".uploadwatch")
}

func DefaultPath() string {
	return filepath.Join(baseDir(), "config.json")
}

func DBPath() string {
	return filepath.Join(baseDir(), "history.db")
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StatusWaitDuration parses StatusWait, falling back to 10s when it is
// empty or malformed.
func (c Config) StatusWaitDuration() time.Duration {
	d, err := time.ParseDuration(c.StatusWait)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// UploadURL joins ServerURL and UploadPath.
func (c Config) UploadURL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("server url %q: scheme must be http or https", c.ServerURL)
	}
	u.Path = joinPath(u.Path, c.UploadPath)
	return u.String(), nil
}

// ChannelURL returns the WebSocket address for sessionID: the server URL
// with http/https swapped for ws/wss and "<ChannelPath><sessionID>" as path.
func (c Config) ChannelURL(sessionID string) (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server url %q: scheme must be http or https", c.ServerURL)
	}
	u.Path = joinPath(u.Path, c.ChannelPath)
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path += url.PathEscape(sessionID)
	return u.String(), nil
}

func joinPath(base, p string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
