package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DHT_BACKEND.
const (
	BackendPeriph = "periph"
	BackendRPIO   = "rpio"
	BackendSim    = "sim"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	Backend string
	// Pin is a periph pin name (GPIO18) or a BCM number for rpio.
	Pin string

	SuccessInterval time.Duration
	FailureInterval time.Duration
	BitThreshold    int
	BitTick         time.Duration

	// CPU pins transactions to one core; -1 disables pinning.
	CPU     int
	PauseGC bool

	ReportDelay     time.Duration
	ReportInterval  time.Duration
	DeviceStationID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("DHT_BACKEND")))
	if backend == "" {
		backend = BackendPeriph
	}
	switch backend {
	case BackendPeriph, BackendRPIO, BackendSim:
	default:
		return Config{}, fmt.Errorf("invalid DHT_BACKEND %q (allowed: periph, rpio, sim)", backend)
	}

	pin := strings.TrimSpace(os.Getenv("DHT_PIN"))
	if pin == "" {
		pin = "GPIO18"
	}
	if backend == BackendRPIO {
		if _, err := parseBCM(pin); err != nil {
			return Config{}, err
		}
	}

	successInterval, err := positiveDuration("DHT_SUCCESS_INTERVAL", "15s")
	if err != nil {
		return Config{}, err
	}
	failureInterval, err := positiveDuration("DHT_FAILURE_INTERVAL", "3s")
	if err != nil {
		return Config{}, err
	}

	thresholdStr := strings.TrimSpace(os.Getenv("DHT_BIT_THRESHOLD"))
	if thresholdStr == "" {
		thresholdStr = "3"
	}
	threshold, err := strconv.Atoi(thresholdStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DHT_BIT_THRESHOLD %q: %w", thresholdStr, err)
	}
	if threshold < 0 {
		return Config{}, fmt.Errorf("DHT_BIT_THRESHOLD must not be negative, got %d", threshold)
	}

	bitTick, err := positiveDuration("DHT_BIT_TICK", "10us")
	if err != nil {
		return Config{}, err
	}
	if bitTick%time.Microsecond != 0 {
		return Config{}, fmt.Errorf("DHT_BIT_TICK must be a whole number of microseconds, got %v", bitTick)
	}

	cpuStr := strings.TrimSpace(os.Getenv("DHT_CPU"))
	if cpuStr == "" {
		cpuStr = "-1"
	}
	cpu, err := strconv.Atoi(cpuStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DHT_CPU %q: %w", cpuStr, err)
	}

	pauseGCStr := strings.TrimSpace(os.Getenv("DHT_PAUSE_GC"))
	if pauseGCStr == "" {
		pauseGCStr = "true"
	}
	pauseGC, err := strconv.ParseBool(pauseGCStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DHT_PAUSE_GC %q: %w", pauseGCStr, err)
	}

	reportDelayStr := strings.TrimSpace(os.Getenv("REPORT_DELAY"))
	if reportDelayStr == "" {
		reportDelayStr = "30s"
	}
	reportDelay, err := time.ParseDuration(reportDelayStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_DELAY %q: %w", reportDelayStr, err)
	}
	if reportDelay < 0 {
		return Config{}, fmt.Errorf("REPORT_DELAY must not be negative, got %v", reportDelay)
	}

	reportInterval, err := positiveDuration("REPORT_INTERVAL", "15s")
	if err != nil {
		return Config{}, err
	}

	deviceStationID := strings.TrimSpace(os.Getenv("DEVICE_STATION_ID"))
	if deviceStationID == "" {
		deviceStationID = "home"
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		Backend:         backend,
		Pin:             pin,
		SuccessInterval: successInterval,
		FailureInterval: failureInterval,
		BitThreshold:    threshold,
		BitTick:         bitTick,
		CPU:             cpu,
		PauseGC:         pauseGC,
		ReportDelay:     reportDelay,
		ReportInterval:  reportInterval,
		DeviceStationID: deviceStationID,
	}, nil
}

// BCM returns Pin as a Broadcom GPIO number.
func (c Config) BCM() (int, error) {
	return parseBCM(c.Pin)
}

func parseBCM(pin string) (int, error) {
	s := strings.TrimPrefix(strings.ToUpper(pin), "GPIO")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid DHT_PIN %q for rpio (want a BCM number): %w", pin, err)
	}
	if n < 0 || n > 53 {
		return 0, fmt.Errorf("DHT_PIN %d out of range 0-53", n)
	}
	return n, nil
}

func positiveDuration(key, def string) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
