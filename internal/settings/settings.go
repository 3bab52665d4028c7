// Package settings persists user preferences (theme and proxy) as a small
// JSON file and notifies subscribers when they change.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/nikbrunner/linkhub/internal/feed"
)

// Settings holds the user preferences.
type Settings struct {
	DarkTheme    bool   `json:"dark_theme"`
	ProxyEnabled bool   `json:"proxy_enabled"`
	ProxyHost    string `json:"proxy_host"`
	ProxyPort    string `json:"proxy_port"`
}

// Keys lists the setting names in display order.
var Keys = []string{"dark_theme", "proxy_enabled", "proxy_host", "proxy_port"}

// Default returns the default settings.
func Default() Settings {
	return Settings{DarkTheme: true}
}

// ProxyURL returns the proxy address, or "" when the proxy is off or
// incompletely configured.
func (s Settings) ProxyURL() string {
	if !s.ProxyEnabled || s.ProxyHost == "" || s.ProxyPort == "" {
		return ""
	}
	return "http://" + s.ProxyHost + ":" + s.ProxyPort
}

// Lookup returns the value of key formatted as text.
func (s Settings) Lookup(key string) (string, error) {
	switch key {
	case "dark_theme":
		return strconv.FormatBool(s.DarkTheme), nil
	case "proxy_enabled":
		return strconv.FormatBool(s.ProxyEnabled), nil
	case "proxy_host":
		return s.ProxyHost, nil
	case "proxy_port":
		return s.ProxyPort, nil
	}
	return "", unknownKey(key)
}

// Assign parses value and stores it under key.
func (s *Settings) Assign(key, value string) error {
	switch key {
	case "dark_theme", "proxy_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "dark_theme" {
			s.DarkTheme = b
		} else {
			s.ProxyEnabled = b
		}
	case "proxy_host":
		s.ProxyHost = value
	case "proxy_port":
		if value != "" {
			if _, err := strconv.ParseUint(value, 10, 16); err != nil {
				return fmt.Errorf("proxy_port: %q is not a port", value)
			}
		}
		s.ProxyPort = value
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown setting %q", key)
}

// Load reads settings from path.
// Creates the file with defaults if it doesn't exist.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s := Default()
			// Non-fatal: defaults still apply if the file can't be written
			_ = Save(path, s)
			return s, nil
		}
		return Settings{}, err
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns dir/settings.json.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "settings.json")
}

// Provider is the get/set-and-notify front for a settings file.
type Provider struct {
	path string

	mu      sync.Mutex
	current Settings
	subject *feed.Subject[Settings]
}

// Open loads the settings at path.
func Open(path string) (*Provider, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	p := &Provider{path: path, current: s, subject: feed.NewSubject[Settings]()}
	p.subject.Publish(s)
	return p, nil
}

// Get returns the current settings.
func (p *Provider) Get() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Set applies fn to a copy of the settings, persists it, then notifies
// subscribers. Nothing changes if fn or the write fails.
func (p *Provider) Set(fn func(*Settings) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.current
	if err := fn(&next); err != nil {
		return err
	}
	if err := Save(p.path, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	p.current = next
	p.subject.Publish(next)
	return nil
}

// Subscribe delivers the current settings and every later change.
func (p *Provider) Subscribe() *feed.Subscription[Settings] {
	return p.subject.Subscribe()
}
