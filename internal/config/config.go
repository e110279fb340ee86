package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Global represents the global ~/.waconsole/config.toml.
type Global struct {
	DefaultProfile string `toml:"default_profile"`
}

// Config represents a per-profile config.toml.
type Config struct {
	Server        Server        `toml:"server"`
	Realtime      Realtime      `toml:"realtime"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	QR            QR            `toml:"qr"`
}

// Server holds the backend endpoints and the bearer token sent on every
// authenticated request. Token acquisition is an external concern; operators
// paste one in.
type Server struct {
	EventsURL   string `toml:"events_url"`
	APIURL      string `toml:"api_url"`
	SessionsURL string `toml:"sessions_url"`
	Token       string `toml:"token"`
}

// Realtime tunes the event-stream connection.
type Realtime struct {
	AutoConnect       bool `toml:"auto_connect"`
	ReconnectAttempts int  `toml:"reconnect_attempts"`
	ReconnectDelayMS  int  `toml:"reconnect_delay_ms"`
	DialTimeoutMS     int  `toml:"dial_timeout_ms"`
	LiveFeedCap       int  `toml:"live_feed_cap"`
}

// Notifications controls the user-visible notification policy.
type Notifications struct {
	Enabled bool `toml:"enabled"`
}

// History tunes the paginated message history loader.
type History struct {
	PageSize     int `toml:"page_size"`
	TopThreshold int `toml:"top_threshold"`
	DebounceMS   int `toml:"debounce_ms"`
}

// QR controls the QR pairing refresh interval.
type QR struct {
	RefreshMS int `toml:"refresh_ms"`
}

// Default returns a config with every tunable at its default value.
// Server endpoints are intentionally empty; those come from the profile file.
func Default() *Config {
	return &Config{
		Realtime: Realtime{
			AutoConnect:       true,
			ReconnectAttempts: 5,
			ReconnectDelayMS:  1000,
			DialTimeoutMS:     20000,
			LiveFeedCap:       100,
		},
		Notifications: Notifications{Enabled: true},
		History: History{
			PageSize:     50,
			TopThreshold: 100,
			DebounceMS:   150,
		},
		QR: QR{RefreshMS: 5000},
	}
}

// Load reads a profile config from the given path. Tunables absent from the
// file keep their defaults. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyFloors()
	return cfg, nil
}

// LoadGlobal reads the global config from the given path.
func LoadGlobal(path string) (*Global, error) {
	var g Global
	_, err := toml.DecodeFile(path, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Save writes a profile config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return write(path, cfg)
}

// SaveGlobal writes the global config to the given path.
func SaveGlobal(path string, g *Global) error {
	return write(path, g)
}

func write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// applyFloors restores defaults for tunables that decoded to zero or below,
// so a sparse or hand-edited profile file never zeroes out a timer.
func (c *Config) applyFloors() {
	d := Default()
	if c.Realtime.ReconnectAttempts <= 0 {
		c.Realtime.ReconnectAttempts = d.Realtime.ReconnectAttempts
	}
	if c.Realtime.ReconnectDelayMS <= 0 {
		c.Realtime.ReconnectDelayMS = d.Realtime.ReconnectDelayMS
	}
	if c.Realtime.DialTimeoutMS <= 0 {
		c.Realtime.DialTimeoutMS = d.Realtime.DialTimeoutMS
	}
	if c.Realtime.LiveFeedCap <= 0 {
		c.Realtime.LiveFeedCap = d.Realtime.LiveFeedCap
	}
	if c.History.PageSize <= 0 {
		c.History.PageSize = d.History.PageSize
	}
	if c.History.TopThreshold <= 0 {
		c.History.TopThreshold = d.History.TopThreshold
	}
	if c.History.DebounceMS <= 0 {
		c.History.DebounceMS = d.History.DebounceMS
	}
	if c.QR.RefreshMS <= 0 {
		c.QR.RefreshMS = d.QR.RefreshMS
	}
}

// ReconnectDelay returns the base reconnect delay as a duration.
func (r Realtime) ReconnectDelay() time.Duration {
	return time.Duration(r.ReconnectDelayMS) * time.Millisecond
}

// DialTimeout returns the dial timeout as a duration.
func (r Realtime) DialTimeout() time.Duration {
	return time.Duration(r.DialTimeoutMS) * time.Millisecond
}

// Debounce returns the scroll debounce interval as a duration.
func (h History) Debounce() time.Duration {
	return time.Duration(h.DebounceMS) * time.Millisecond
}

// Refresh returns the QR refresh interval as a duration.
func (q QR) Refresh() time.Duration {
	return time.Duration(q.RefreshMS) * time.Millisecond
}
