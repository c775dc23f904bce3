package config

type Config struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	LogLevel     string `mapstructure:"log_level"`
	LogFile      string `mapstructure:"log_file"`
	HistoryLimit int    `mapstructure:"history_limit"`
}
