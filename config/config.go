package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Settings is the process configuration read from .env and the environment.
type Settings struct {
	Port         string
	DBDriver     string
	DBDSN        string
	LogLevel     string
	AppEnv       string
	FallbackTick time.Duration
	PresetsFile  string
	ExportDir    string
	UseGCS       bool
	GCSBucket    string
	BatchMode    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// BatchModeAuto uses whatever batch capability the store offers.
	BatchModeAuto   = "auto"
	// BatchModeSingle sends bulk actions through the single-field queue.
	BatchModeSingle = "single"

	defaultFallbackTick = 16 * time.Millisecond
)

// Load reads .env (if present) and then the process environment.
func Load() (Settings, error) {
	// A missing .env is fine; system environment variables still apply.
	_ = godotenv.Load()

	s := Settings{
		Port:         getenv("PORT", "8080"),
		DBDriver:     strings.ToLower(getenv("DB_DRIVER", DriverPostgres)),
		DBDSN:        os.Getenv("DB_DSN"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		AppEnv:       getenv("APP_ENV", "production"),
		FallbackTick: defaultFallbackTick,
		PresetsFile:  os.Getenv("RCD_PRESETS_FILE"),
		ExportDir:    getenv("EXPORT_DIR", "./exports"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		BatchMode:    strings.ToLower(getenv("BATCH_MODE", BatchModeAuto)),
	}
	if s.BatchMode != BatchModeAuto && s.BatchMode != BatchModeSingle {
		return Settings{}, fmt.Errorf("unsupported BATCH_MODE %q", s.BatchMode)
	}

	if v := os.Getenv("FALLBACK_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid FALLBACK_TICK %q: %w", v, err)
		}
		s.FallbackTick = d
	}

	if v := os.Getenv("USE_GCS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid USE_GCS %q: %w", v, err)
		}
		s.UseGCS = b
	}
	if s.UseGCS && s.GCSBucket == "" {
		return Settings{}, fmt.Errorf("GCS_BUCKET is required when USE_GCS is set")
	}

	switch s.DBDriver {
	case DriverPostgres:
		if s.DBDSN == "" {
			return Settings{}, fmt.Errorf("DB_DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if s.DBDSN == "" {
			s.DBDSN = "eicr.db"
		}
	default:
		return Settings{}, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
	return s, nil
}

// Connect opens the database, runs migrations and sets DB.
func Connect(s Settings, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(s.DBDSN)
	default:
		dialector = postgres.Open(s.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database ready", zap.String("driver", s.DBDriver))
	DB = db
	return db, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
