package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// SMTP
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	// Private media
	PrivateMediaRoot string
	MaxUploadBytes   int64
	MediaServeMode   string // "direct" or "accel"
	AccelPrefix      string // X-Accel-Redirect location prefix in accel mode

	// Background jobs
	ProcessRole      string // "web", "worker" or "all"; only worker/all run the scheduler
	ReaperInterval   time.Duration
	NotifierInterval time.Duration
	ProfileInterval  time.Duration
	OrphanGrace      time.Duration

	// Mail dispatch pool
	MailWorkers       int
	MailQueueCapacity int

	// Admin
	AdminEmails string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "trove_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		SMTPHost:  getEnv("SMTP_HOST", ""),
		SMTPPort:  parseInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUser:  getEnv("SMTP_USER", ""),
		SMTPPass:  getEnv("SMTP_PASS", ""),
		FromEmail: getEnv("FROM_EMAIL", ""),

		PrivateMediaRoot: getEnv("PRIVATE_MEDIA_ROOT", "private_media"),
		MaxUploadBytes:   parseInt64(getEnv("MAX_UPLOAD_BYTES", "52428800"), 52428800),
		MediaServeMode:   getEnv("MEDIA_SERVE_MODE", "direct"),
		AccelPrefix:      getEnv("ACCEL_PREFIX", "/internal_protected"),

		ProcessRole:      getEnv("PROCESS_ROLE", "all"),
		ReaperInterval:   parseDuration(getEnv("REAPER_INTERVAL", "6h")),
		NotifierInterval: parseDuration(getEnv("NOTIFIER_INTERVAL", "30m")),
		ProfileInterval:  parseDuration(getEnv("PROFILE_SWEEP_INTERVAL", "24h")),
		OrphanGrace:      parseDuration(getEnv("ORPHAN_GRACE", "24h")),

		MailWorkers:       parseInt(getEnv("MAIL_WORKERS", "4"), 4),
		MailQueueCapacity: parseInt(getEnv("MAIL_QUEUE_CAPACITY", "256"), 256),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// RunScheduler reports whether this process instance should own the
// background scheduler loop. Keeps supervised reloads and multi-replica
// web deployments from running a second loop.
func (c *Config) RunScheduler() bool {
	return c.ProcessRole == "worker" || c.ProcessRole == "all"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func parseInt64(s string, fallback int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
