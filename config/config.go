package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xeptore/drtvd/cache"
	"github.com/xeptore/drtvd/ratelimit"
)

const (
	DefaultAPIBaseURL  = "https://isl.dr-massive.com/api"
	DefaultSiteBaseURL = "https://www.dr.dk/drtv"
)

type Telegram struct {
	TargetPeerID string `json:"target_peer_id" yaml:"target_peer_id"`
	SessionFile  string `json:"session_file"   yaml:"session_file"`
}

type Config struct {
	DownloadDir  string        `json:"download_dir"   yaml:"download_dir"`
	TokenFile    string        `json:"token_file"     yaml:"token_file"`
	FFmpegPath   string        `json:"ffmpeg_path"    yaml:"ffmpeg_path"`
	Concurrency  int           `json:"concurrency"    yaml:"concurrency"`
	APIBaseURL   string        `json:"api_base_url"   yaml:"api_base_url"`
	SiteBaseURL  string        `json:"site_base_url"  yaml:"site_base_url"`
	HTTPTimeout  time.Duration `json:"http_timeout"   yaml:"http_timeout"`
	ShowCacheTTL time.Duration `json:"show_cache_ttl" yaml:"show_cache_ttl"`
	Telegram     *Telegram     `json:"telegram"       yaml:"telegram"`
}

func Default() *Config {
	return &Config{
		DownloadDir:  ".",
		TokenFile:    "token.json",
		FFmpegPath:   "ffmpeg",
		Concurrency:  ratelimit.EpisodeDownloadConcurrency,
		APIBaseURL:   DefaultAPIBaseURL,
		SiteBaseURL:  DefaultSiteBaseURL,
		HTTPTimeout:  30 * time.Second,
		ShowCacheTTL: cache.DefaultShowsTTL,
		Telegram:     nil,
	}
}

func (cfg *Config) validate() error {
	if cfg.DownloadDir == "" {
		return errors.New("download dir is empty")
	}

	if cfg.TokenFile == "" {
		return errors.New("token file is empty")
	}

	if cfg.FFmpegPath == "" {
		return errors.New("ffmpeg path is empty")
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	if err := validateBaseURL(cfg.APIBaseURL); nil != err {
		return fmt.Errorf("invalid api base url: %v", err)
	}

	if err := validateBaseURL(cfg.SiteBaseURL); nil != err {
		return fmt.Errorf("invalid site base url: %v", err)
	}

	if cfg.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}

	if cfg.ShowCacheTTL < 0 {
		return errors.New("show cache ttl must not be negative")
	}

	if tg := cfg.Telegram; nil != tg {
		if tg.TargetPeerID == "" {
			return errors.New("telegram target peer ID is empty")
		}
		if tg.SessionFile == "" {
			tg.SessionFile = "session.json"
		}
	}

	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(s)
	if nil != err {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}

func FromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		return nil, fmt.Errorf("failed to read config file %q: %v", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config file %q: %v", filePath, err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return cfg, nil
}

func FromString(data string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(data), cfg); nil != err {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	if err := cfg.validate(); nil != err {
		return nil, fmt.Errorf("validation failed: %v", err)
	}

	return cfg, nil
}
