package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/xmum-booking/internal/booking"
)

// Config is the run configuration, assembled once at startup and passed by
// value into the runner. Everything has a working default; env vars override.
type Config struct {
	BaseURL     string
	UserAgent   string
	HTTPTimeout time.Duration

	LoginAttempts   int
	LoginRetryDelay time.Duration
	BookingPause    time.Duration // after a booking attempt
	DatePause       time.Duration // after each processed date

	Windows booking.Windows

	// CAPTCHA recognition endpoint (OpenAI-compatible chat completions).
	CaptchaBaseURL string
	CaptchaModel   string
}

func FromEnv() (Config, error) {
	cfg := Config{
		BaseURL:   envDefault("XMUM_BASE_URL", "https://eservices.xmu.edu.my"),
		UserAgent: envDefault("XMUM_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),

		LoginAttempts:   3,
		LoginRetryDelay: 2 * time.Second,
		BookingPause:    2 * time.Second,
		DatePause:       1 * time.Second,

		CaptchaBaseURL: envDefault("XMUM_CAPTCHA_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		CaptchaModel:   envDefault("XMUM_CAPTCHA_MODEL", "gemini-flash-latest"),
	}

	timeoutSec, err := strconv.Atoi(envDefault("XMUM_HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSec < 1 {
		return Config{}, fmt.Errorf("invalid XMUM_HTTP_TIMEOUT_SECONDS")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSec) * time.Second

	w := booking.DefaultWindows()
	w.WeekdayStart = envDefault("XMUM_WEEKDAY_START", w.WeekdayStart)
	w.WeekdayEnd = envDefault("XMUM_WEEKDAY_END", w.WeekdayEnd)
	w.WeekendStart = envDefault("XMUM_WEEKEND_START", w.WeekendStart)
	w.WeekendEnd = envDefault("XMUM_WEEKEND_END", w.WeekendEnd)
	cfg.Windows = w

	return cfg, nil
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}
