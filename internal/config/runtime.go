package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DraftsConfig holds the tunable runtime behavior of the draft facade:
// the read-retry policy and the list timeout. It can be changed without
// a restart via the watched folio.yml file.
type DraftsConfig struct {
	Retry       RetryConfig   `mapstructure:"retry"`
	ListTimeout time.Duration `mapstructure:"listTimeout"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	BaseDelay   time.Duration `mapstructure:"baseDelay"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

func DefaultDraftsConfig() DraftsConfig {
	return DraftsConfig{
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   250 * time.Millisecond,
			Multiplier:  2,
		},
		ListTimeout: 15 * time.Second,
	}
}

// DraftsConfigHolder serves the current DraftsConfig and hot-reloads it.
type DraftsConfigHolder struct {
	current atomic.Value // holds DraftsConfig
}

// NewStaticDraftsConfigHolder wraps a fixed config, for tests.
func NewStaticDraftsConfigHolder(cfg DraftsConfig) *DraftsConfigHolder {
	holder := &DraftsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDraftsConfigHolder() (*DraftsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("folio")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/folio")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultDraftsConfig()
		v.SetDefault("drafts.retry.maxAttempts", defaults.Retry.MaxAttempts)
		v.SetDefault("drafts.retry.baseDelay", defaults.Retry.BaseDelay)
		v.SetDefault("drafts.retry.multiplier", defaults.Retry.Multiplier)
		v.SetDefault("drafts.listTimeout", defaults.ListTimeout)
	}

	var cfg DraftsConfig
	if err := v.UnmarshalKey("drafts", &cfg); err != nil {
		return nil, err
	}
	if err := validateDraftsConfig(cfg); err != nil {
		return nil, err
	}

	holder := &DraftsConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DraftsConfig
		if err := v.UnmarshalKey("drafts", &updated); err != nil {
			log.Printf("[drafts-config] reload failed: %v", err)
			return
		}
		if err := validateDraftsConfig(updated); err != nil {
			log.Printf("[drafts-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[drafts-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *DraftsConfigHolder) Get() DraftsConfig {
	return h.current.Load().(DraftsConfig)
}

func validateDraftsConfig(cfg DraftsConfig) error {
	if cfg.Retry.MaxAttempts <= 0 {
		return errors.New("drafts.retry.maxAttempts must be positive")
	}
	if cfg.Retry.Multiplier < 1 {
		return errors.New("drafts.retry.multiplier must be >= 1")
	}
	if cfg.ListTimeout <= 0 {
		return errors.New("drafts.listTimeout must be positive")
	}
	return nil
}
