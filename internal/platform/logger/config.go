package logger

import (
	"os"
	"strings"
)

type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
	File   string // optional log file, stdout only when empty
}

func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		File:   getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func (c *LoggerConfig) ShouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
	}
	return levels[strings.ToLower(level)] >= levels[strings.ToLower(c.Level)]
}
