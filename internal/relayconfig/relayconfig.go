// Package relayconfig resolves the ambient configuration a relay needs to
// run: liveness timing, logging, and the WebRTC UDP port range. Values come
// from environment variables with flag overrides, following the same
// precedence (flag > env > default) as the rest of the fleet's services.
package relayconfig

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envVarCheckInterval        = "ICE_ADAPTER_CHECK_INTERVAL"
	envVarPongTimeout          = "ICE_ADAPTER_PONG_TIMEOUT"
	envVarMissedPingsToRestart = "ICE_ADAPTER_MISSED_PINGS_TO_RESTART"
	envVarLogFormat            = "ICE_ADAPTER_LOG_FORMAT"
	envVarLogLevel             = "ICE_ADAPTER_LOG_LEVEL"
	envVarWebRTCUDPPortMin     = "ICE_ADAPTER_WEBRTC_UDP_PORT_MIN"
	envVarWebRTCUDPPortMax     = "ICE_ADAPTER_WEBRTC_UDP_PORT_MAX"
)

const (
	// DefaultCheckInterval is the offerer liveness tick period.
	DefaultCheckInterval = 10 * time.Second
	// DefaultPongTimeout is the max staleness a received PONG may have,
	// relative to the last sent PING, before an ICE restart is forced.
	DefaultPongTimeout = 15 * time.Second
	// DefaultMissedPingsToRestart is the number of unanswered pings, counted
	// since the last connect, that forces an ICE restart.
	DefaultMissedPingsToRestart = 2
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the resolved ambient configuration for running one or more
// relays in a process.
type Config struct {
	CheckInterval        time.Duration
	PongTimeout          time.Duration
	MissedPingsToRestart int

	LogFormat LogFormat
	LogLevel  slog.Level

	// WebRTCUDPPortMin/Max bound the ephemeral UDP port range ICE agents use.
	// Zero means unset (let pion pick an OS-assigned port).
	WebRTCUDPPortMin uint16
	WebRTCUDPPortMax uint16
}

// Load resolves Config from the process environment and the given args
// (typically os.Args[1:]), with flags taking precedence over environment
// variables and environment variables taking precedence over defaults.
func Load(args []string) (Config, error) {
	return load(os.LookupEnv, args)
}

func load(lookup func(string) (string, bool), args []string) (Config, error) {
	checkInterval := DefaultCheckInterval
	if raw, ok := lookup(envVarCheckInterval); ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", envVarCheckInterval, raw, err)
		}
		checkInterval = d
	}

	pongTimeout := DefaultPongTimeout
	if raw, ok := lookup(envVarPongTimeout); ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", envVarPongTimeout, raw, err)
		}
		pongTimeout = d
	}

	missedPingsToRestart := DefaultMissedPingsToRestart
	if raw, ok := lookup(envVarMissedPingsToRestart); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", envVarMissedPingsToRestart, raw, err)
		}
		missedPingsToRestart = n
	}

	logFormatStr := envOrDefault(lookup, envVarLogFormat, string(LogFormatText))
	logLevelStr := envOrDefault(lookup, envVarLogLevel, "info")

	webrtcUDPPortMin, err := envUintOrDefault(lookup, envVarWebRTCUDPPortMin, 0)
	if err != nil {
		return Config{}, err
	}
	webrtcUDPPortMax, err := envUintOrDefault(lookup, envVarWebRTCUDPPortMax, 0)
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("ice-adapter", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.DurationVar(&checkInterval, "check-interval", checkInterval, "Offerer liveness check interval (env "+envVarCheckInterval+")")
	fs.DurationVar(&pongTimeout, "pong-timeout", pongTimeout, "Max staleness of a received pong before an ICE restart (env "+envVarPongTimeout+")")
	fs.IntVar(&missedPingsToRestart, "missed-pings-to-restart", missedPingsToRestart, "Unanswered pings since the last connect before an ICE restart (env "+envVarMissedPingsToRestart+")")
	fs.StringVar(&logFormatStr, "log-format", logFormatStr, "Log format: text or json (env "+envVarLogFormat+")")
	fs.StringVar(&logLevelStr, "log-level", logLevelStr, "Log level: debug, info, warn, error (env "+envVarLogLevel+")")
	fs.UintVar(&webrtcUDPPortMin, "webrtc-udp-port-min", webrtcUDPPortMin, "Min UDP port for ICE candidates, 0 = unset (env "+envVarWebRTCUDPPortMin+")")
	fs.UintVar(&webrtcUDPPortMax, "webrtc-udp-port-max", webrtcUDPPortMax, "Max UDP port for ICE candidates, 0 = unset (env "+envVarWebRTCUDPPortMax+")")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	logFormat, err := parseLogFormat(logFormatStr)
	if err != nil {
		return Config{}, err
	}
	logLevel, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	portMin, err := parsePortUint(webrtcUDPPortMin)
	if err != nil {
		return Config{}, fmt.Errorf("invalid webrtc-udp-port-min: %w", err)
	}
	portMax, err := parsePortUint(webrtcUDPPortMax)
	if err != nil {
		return Config{}, fmt.Errorf("invalid webrtc-udp-port-max: %w", err)
	}
	if portMin != 0 && portMax != 0 && portMin > portMax {
		return Config{}, fmt.Errorf("webrtc-udp-port-min (%d) must be <= webrtc-udp-port-max (%d)", portMin, portMax)
	}

	if missedPingsToRestart < 1 {
		return Config{}, fmt.Errorf("missed-pings-to-restart must be >= 1, got %d", missedPingsToRestart)
	}

	return Config{
		CheckInterval:        checkInterval,
		PongTimeout:          pongTimeout,
		MissedPingsToRestart: missedPingsToRestart,
		LogFormat:            logFormat,
		LogLevel:             logLevel,
		WebRTCUDPPortMin:     portMin,
		WebRTCUDPPortMax:     portMax,
	}, nil
}

// NewLogger builds the slog.Logger matching cfg's format and level.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	switch cfg.LogFormat {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func envOrDefault(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

func envUintOrDefault(lookup func(string) (string, bool), key string, fallback uint) (uint, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return uint(n), nil
}

func parsePortUint(v uint) (uint16, error) {
	if v > 65535 {
		return 0, fmt.Errorf("port %d out of range", v)
	}
	return uint16(v), nil
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q (expected text or json)", raw)
	}
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", raw)
	}
}
