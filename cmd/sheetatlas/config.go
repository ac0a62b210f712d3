package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// config holds the resolved CLI configuration.
// Precedence: flags > env (SHEETATLAS_*) > config file > defaults.
type config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	SampleSize          int     `mapstructure:"sample_size"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	MergeStrategy       string  `mapstructure:"merge_strategy"`
	ChaosThreshold      float64 `mapstructure:"chaos_threshold"`
	MergeWarnCells      int     `mapstructure:"merge_warn_cells"`

	MaxHeaderScan int    `mapstructure:"max_header_scan"`
	HeaderRows    int    `mapstructure:"header_rows"`
	Rules         string `mapstructure:"rules"`

	NoDates     bool `mapstructure:"no_dates"`
	NoCurrency  bool `mapstructure:"no_currency"`
	NoBooleans  bool `mapstructure:"no_booleans"`
	NoTextClean bool `mapstructure:"no_text_clean"`
}

// loadConfig loads configuration from file, env, and defaults.
func loadConfig(cfgFile string) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETATLAS")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("sample_size", 100)
	v.SetDefault("confidence_threshold", 0.7)
	v.SetDefault("merge_strategy", "auto")
	v.SetDefault("chaos_threshold", 0.2)
	v.SetDefault("merge_warn_cells", 6)
	v.SetDefault("max_header_scan", 10)
	v.SetDefault("header_rows", -1)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sheetatlas")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
