package internal

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr         string
	AMQPURL      string
	Sanitize     bool
	OpenBrowser  bool
	BrowserDelay time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

func ConfigFromEnv() Config {
	return Config{
		Addr:         env("ASK_ADDR", "127.0.0.1:5000"),
		AMQPURL:      env("AMQP_URL", ""),
		Sanitize:     envBool("SANITIZE_HTML", true),
		OpenBrowser:  envBool("OPEN_BROWSER", false),
		BrowserDelay: time.Second,
		WriteTimeout: time.Duration(envInt("WRITE_TIMEOUT_SECONDS", 90)) * time.Second,
		MaxBodyBytes: int64(envInt("MAX_BODY_BYTES", 1<<20)),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, _ := strconv.Atoi(v)
		if n > 0 {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
