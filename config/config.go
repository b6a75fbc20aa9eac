// Package config loads the zoodubbo TOML configuration.
//
// Every key is optional; Load starts from Default and only overrides what the
// file defines. Durations are Go duration strings ("2s", "150ms").
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/534591395/zoodubbo/logging"
	"github.com/BurntSushi/toml"
)

type Config struct {
	Client   ClientConfig
	Registry RegistryConfig
	Log      logging.Config
	Provider ProviderConfig
}

type ClientConfig struct {
	DubboVersion   string
	Serialization  string
	MaxBodyLength  uint32
	Timeout        time.Duration
	EnforceTimeout bool
	DialTimeout    time.Duration
	ReadBufferSize int
	Balancer       string
	BalancerKey    string
	RateLimit      float64 // Calls per second; zero disables limiting
	RateBurst      int
	Reconnect      ReconnectConfig
}

type ReconnectConfig struct {
	Delay       time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int // Zero retries until the call's context ends
}

type RegistryConfig struct {
	Endpoints   []string
	Root        string
	DialTimeout time.Duration
	CacheTTL    time.Duration
}

type ProviderConfig struct {
	Listen      string
	Advertise   string
	TTL         int64 // Registry lease, seconds
	MetricsAddr string
}

func Default() Config {
	return Config{
		Client: ClientConfig{
			DubboVersion:   "2.5.3",
			Serialization:  "hessian2",
			MaxBodyLength:  819200,
			Timeout:        60 * time.Second,
			EnforceTimeout: true,
			DialTimeout:    5 * time.Second,
			ReadBufferSize: 4096,
			Balancer:       "roundrobin",
			Reconnect: ReconnectConfig{
				Delay:      2 * time.Second,
				Multiplier: 1,
			},
		},
		Registry: RegistryConfig{
			Endpoints:   []string{"127.0.0.1:2379"},
			Root:        "/dubbo",
			DialTimeout: 5 * time.Second,
			CacheTTL:    10 * time.Minute,
		},
		Log: logging.DefaultConfig(),
		Provider: ProviderConfig{
			Listen: "127.0.0.1:20880",
			TTL:    10,
		},
	}
}

type fileConfig struct {
	Client struct {
		DubboVersion   string  `toml:"dubbo_version"`
		Serialization  string  `toml:"serialization"`
		MaxBodyLength  int64   `toml:"max_body_length"`
		Timeout        string  `toml:"timeout"`
		EnforceTimeout bool    `toml:"enforce_timeout"`
		DialTimeout    string  `toml:"dial_timeout"`
		ReadBuffer     int     `toml:"read_buffer"`
		Balancer       string  `toml:"balancer"`
		BalancerKey    string  `toml:"balancer_key"`
		RateLimit      float64 `toml:"rate_limit"`
		RateBurst      int     `toml:"rate_burst"`
		Reconnect      struct {
			Delay       string  `toml:"delay"`
			Multiplier  float64 `toml:"multiplier"`
			MaxDelay    string  `toml:"max_delay"`
			MaxAttempts int     `toml:"max_attempts"`
		} `toml:"reconnect"`
	} `toml:"client"`
	Registry struct {
		Endpoints   []string `toml:"endpoints"`
		Root        string   `toml:"root"`
		DialTimeout string   `toml:"dial_timeout"`
		CacheTTL    string   `toml:"cache_ttl"`
	} `toml:"registry"`
	Log struct {
		Level      string `toml:"level"`
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"log"`
	Provider struct {
		Listen      string `toml:"listen"`
		Advertise   string `toml:"advertise"`
		TTL         int64  `toml:"ttl"`
		MetricsAddr string `toml:"metrics_addr"`
	} `toml:"provider"`
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return apply(Default(), raw, meta)
}

// Parse is Load for in-memory TOML.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return apply(Default(), raw, meta)
}

func apply(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}

	durations := []struct {
		key []string
		src string
		dst *time.Duration
	}{
		{[]string{"client", "timeout"}, raw.Client.Timeout, &cfg.Client.Timeout},
		{[]string{"client", "dial_timeout"}, raw.Client.DialTimeout, &cfg.Client.DialTimeout},
		{[]string{"client", "reconnect", "delay"}, raw.Client.Reconnect.Delay, &cfg.Client.Reconnect.Delay},
		{[]string{"client", "reconnect", "max_delay"}, raw.Client.Reconnect.MaxDelay, &cfg.Client.Reconnect.MaxDelay},
		{[]string{"registry", "dial_timeout"}, raw.Registry.DialTimeout, &cfg.Registry.DialTimeout},
		{[]string{"registry", "cache_ttl"}, raw.Registry.CacheTTL, &cfg.Registry.CacheTTL},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key...) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.src))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", strings.Join(d.key, "."), err)
		}
		*d.dst = v
	}

	if meta.IsDefined("client", "dubbo_version") {
		cfg.Client.DubboVersion = strings.TrimSpace(raw.Client.DubboVersion)
	}
	if meta.IsDefined("client", "serialization") {
		cfg.Client.Serialization = strings.TrimSpace(raw.Client.Serialization)
	}
	if meta.IsDefined("client", "max_body_length") {
		if raw.Client.MaxBodyLength <= 0 || raw.Client.MaxBodyLength > 1<<32-1 {
			return Config{}, fmt.Errorf("config: client.max_body_length out of range: %d", raw.Client.MaxBodyLength)
		}
		cfg.Client.MaxBodyLength = uint32(raw.Client.MaxBodyLength)
	}
	if meta.IsDefined("client", "enforce_timeout") {
		cfg.Client.EnforceTimeout = raw.Client.EnforceTimeout
	}
	if meta.IsDefined("client", "read_buffer") {
		cfg.Client.ReadBufferSize = raw.Client.ReadBuffer
	}
	if meta.IsDefined("client", "balancer") {
		cfg.Client.Balancer = strings.TrimSpace(raw.Client.Balancer)
	}
	if meta.IsDefined("client", "balancer_key") {
		cfg.Client.BalancerKey = raw.Client.BalancerKey
	}
	if meta.IsDefined("client", "rate_limit") {
		cfg.Client.RateLimit = raw.Client.RateLimit
	}
	if meta.IsDefined("client", "rate_burst") {
		cfg.Client.RateBurst = raw.Client.RateBurst
	}
	if meta.IsDefined("client", "reconnect", "multiplier") {
		cfg.Client.Reconnect.Multiplier = raw.Client.Reconnect.Multiplier
	}
	if meta.IsDefined("client", "reconnect", "max_attempts") {
		cfg.Client.Reconnect.MaxAttempts = raw.Client.Reconnect.MaxAttempts
	}

	if meta.IsDefined("registry", "endpoints") {
		cfg.Registry.Endpoints = normalizeList(raw.Registry.Endpoints)
	}
	if meta.IsDefined("registry", "root") {
		cfg.Registry.Root = strings.TrimSpace(raw.Registry.Root)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "file") {
		cfg.Log.File = strings.TrimSpace(raw.Log.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		cfg.Log.MaxBackups = raw.Log.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		cfg.Log.MaxAgeDays = raw.Log.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		cfg.Log.Compress = raw.Log.Compress
	}

	if meta.IsDefined("provider", "listen") {
		cfg.Provider.Listen = strings.TrimSpace(raw.Provider.Listen)
	}
	if meta.IsDefined("provider", "advertise") {
		cfg.Provider.Advertise = strings.TrimSpace(raw.Provider.Advertise)
	}
	if meta.IsDefined("provider", "ttl") {
		cfg.Provider.TTL = raw.Provider.TTL
	}
	if meta.IsDefined("provider", "metrics_addr") {
		cfg.Provider.MetricsAddr = strings.TrimSpace(raw.Provider.MetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Client.DubboVersion == "" {
		errs = append(errs, errors.New("client.dubbo_version is empty"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout is negative"))
	}
	if c.Client.ReadBufferSize < 0 {
		errs = append(errs, errors.New("client.read_buffer is negative"))
	}
	if c.Client.RateLimit < 0 || (c.Client.RateLimit > 0 && c.Client.RateBurst <= 0) {
		errs = append(errs, errors.New("client.rate_limit needs a positive rate_burst"))
	}
	if c.Client.Reconnect.Delay < 0 {
		errs = append(errs, errors.New("client.reconnect.delay is negative"))
	}
	if c.Client.Reconnect.Multiplier != 0 && c.Client.Reconnect.Multiplier < 1 {
		errs = append(errs, errors.New("client.reconnect.multiplier must be >= 1"))
	}
	if c.Client.Reconnect.MaxAttempts < 0 {
		errs = append(errs, errors.New("client.reconnect.max_attempts is negative"))
	}
	if len(c.Registry.Endpoints) == 0 {
		errs = append(errs, errors.New("registry.endpoints is empty"))
	}
	if !strings.HasPrefix(c.Registry.Root, "/") {
		errs = append(errs, fmt.Errorf("registry.root %q must start with /", c.Registry.Root))
	}
	if c.Provider.TTL <= 0 {
		errs = append(errs, errors.New("provider.ttl must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
