package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/jaywantadh/PrioStream/pkg/logging"
)

// ServerConfig holds the settings the file server needs at startup.
type ServerConfig struct {
	ThreadCount int    `mapstructure:"thread_count"`
	IP          string `mapstructure:"ip"`
	Port        int    `mapstructure:"port"`
	InputDir    string `mapstructure:"input_dir"`
}

// Addr is the listen address built from IP and Port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// ClientConfig holds the settings of the downloading client.
type ClientConfig struct {
	OutputDir    string        `mapstructure:"output_dir"`
	ControlFile  string        `mapstructure:"control_file"`
	ServerAddr   string        `mapstructure:"server_addr"`
	LedgerPath   string        `mapstructure:"ledger_path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	return v
}

func readConfig(v *viper.Viper) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logging.Log.Debug("⚠️ No config file found, using defaults and environment")
			return
		}
		logging.Log.Warnf("⚠️ Could not read config file, using defaults: %v", err)
	}
}

// LoadServerConfig reads config.yaml from path, overlaid by the THREAD_COUNT, IP,
// PORT and INPUT_DIR environment variables.
func LoadServerConfig(path string) (*ServerConfig, error) {
	v := newViper(path)

	v.SetDefault("thread_count", runtime.NumCPU())
	v.SetDefault("ip", "127.0.0.1")
	v.SetDefault("port", 3000)
	v.SetDefault("input_dir", "input")

	readConfig(v)

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode server config: %w", err)
	}
	if cfg.ThreadCount < 1 {
		logging.Log.Warnf("⚠️ thread_count %d is not usable, falling back to %d", cfg.ThreadCount, runtime.NumCPU())
		cfg.ThreadCount = runtime.NumCPU()
	}
	return &cfg, nil
}

// LoadClientConfig reads config.yaml from path, overlaid by OUTPUT_DIR, CONTROL_FILE,
// SERVER_ADDR, LEDGER_PATH and POLL_INTERVAL.
func LoadClientConfig(path string) (*ClientConfig, error) {
	v := newViper(path)

	v.SetDefault("output_dir", "output")
	v.SetDefault("control_file", "input.txt")
	v.SetDefault("server_addr", "")
	v.SetDefault("ledger_path", ".priostream/ledger")
	v.SetDefault("poll_interval", 2*time.Second)

	readConfig(v)

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode client config: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &cfg, nil
}
