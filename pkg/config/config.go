// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	envListenAddr          = "PROXY_LISTEN_ADDR"
	envObjectStoreHost     = "PROXY_OBJECT_STORE_HOST"
	envObjectStorePort     = "PROXY_OBJECT_STORE_PORT"
	envObjectStoreSSL      = "PROXY_OBJECT_STORE_SSL_ENABLED"
	envSecret              = "PROXY_SECRET"
	envLogLevel            = "PROXY_LOG_LEVEL"
	envEnvironment         = "PROXY_ENVIRONMENT"
	envDebugSession        = "PROXY_DEBUG_SESSION"
	envAllowedMethods      = "PROXY_ALLOWED_METHODS"
	envRequestTimeout      = "PROXY_REQUEST_TIMEOUT"
	envServerReadTimeout   = "PROXY_SERVER_READ_TIMEOUT"
	envServerWriteTimeout  = "PROXY_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout   = "PROXY_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown    = "PROXY_GRACEFUL_SHUTDOWN"
	envMetricsListenAddr   = "PROXY_METRICS_LISTEN_ADDR"
	defaultListenAddr      = ":8000"
	defaultObjectStoreHost = "minio"
	defaultObjectStorePort = 9000
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultRequestTimeout  = 30 * time.Second
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultGracefulTimeout = 10 * time.Second
	defaultMetricsAddr     = ":9090"
)

// defaultAllowedMethods mirrors the seven methods the source proxy allows
// through by default before the 405 gate applies.
var defaultAllowedMethods = []string{
	"GET", "PUT", "DELETE", "POST", "OPTIONS", "HEAD", "PATCH",
}

// Config captures runtime settings for the proxy, loaded from the PROXY_
// environment namespace.
type Config struct {
	ListenAddr              string
	ObjectStoreHost         string
	ObjectStorePort         int
	ObjectStoreSSLEnabled   bool
	Secret                  string
	LogLevel                string
	Environment             string
	DebugSession            bool
	AllowedMethods          map[string]struct{}
	RequestTimeout          time.Duration
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
	MetricsListenAddr       string
}

// Load reads configuration from environment variables and validates required
// values. SECRET has no default; it is the single process-wide crypto
// secret every derived object key descends from.
func Load(getenv func(string) string) (Config, error) {
	secret := strings.TrimSpace(getenv(envSecret))
	if secret == "" {
		return Config{}, errors.New("PROXY_SECRET is required")
	}

	port, err := getInt(getenv, envObjectStorePort, defaultObjectStorePort)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:              getString(getenv, envListenAddr, defaultListenAddr),
		ObjectStoreHost:         getString(getenv, envObjectStoreHost, defaultObjectStoreHost),
		ObjectStorePort:         port,
		ObjectStoreSSLEnabled:   getBool(getenv, envObjectStoreSSL, true),
		Secret:                  secret,
		LogLevel:                strings.ToLower(getString(getenv, envLogLevel, defaultLogLevel)),
		Environment:             getString(getenv, envEnvironment, defaultEnvironment),
		DebugSession:            getBool(getenv, envDebugSession, false),
		AllowedMethods:          getMethodSet(getenv, envAllowedMethods, defaultAllowedMethods),
		RequestTimeout:          getDuration(getenv, envRequestTimeout, defaultRequestTimeout),
		ServerReadTimeout:       getDuration(getenv, envServerReadTimeout, defaultReadTimeout),
		ServerWriteTimeout:      getDuration(getenv, envServerWriteTimeout, defaultWriteTimeout),
		ServerIdleTimeout:       getDuration(getenv, envServerIdleTimeout, defaultIdleTimeout),
		GracefulShutdownTimeout: getDuration(getenv, envGracefulShutdown, defaultGracefulTimeout),
		MetricsListenAddr:       getString(getenv, envMetricsListenAddr, defaultMetricsAddr),
	}

	return cfg, nil
}

func getString(getenv func(string) string, key, fallback string) string {
	if val := strings.TrimSpace(getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(getenv func(string) string, key string, fallback bool) bool {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(getenv func(string) string, key string, fallback int) (int, error) {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return parsed, nil
}

func getDuration(getenv func(string) string, key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getMethodSet(getenv func(string) string, key string, fallback []string) map[string]struct{} {
	raw := strings.TrimSpace(getenv(key))
	methods := fallback
	if raw != "" {
		methods = strings.Split(raw, ",")
	}
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		set[m] = struct{}{}
	}
	return set
}
