package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	SourceCSV = "csv"
	SourceGCS = "gcs"
)

// Settings holds the pipeline and scheduler options. Values come from the
// environment (after .env) and, when ETL_CONFIG names a YAML file, from that file.
type Settings struct {
	RawSource         string `mapstructure:"raw_source" validate:"oneof=csv gcs"`
	RawDataDir        string `mapstructure:"raw_data_dir" validate:"required_if=RawSource csv"`
	GenerateIfMissing bool   `mapstructure:"generate_if_missing"`
	GCSBucket         string `mapstructure:"gcs_bucket" validate:"required_if=RawSource gcs"`
	GCSPrefix         string `mapstructure:"gcs_prefix"`

	ProcessedDataDir string `mapstructure:"processed_data_dir"`
	SnapshotXLSX     bool   `mapstructure:"snapshot_xlsx"`

	LoadBatchSize int `mapstructure:"load_batch_size" validate:"min=1,max=10000"`

	FullRunAt           string        `mapstructure:"full_run_at" validate:"required,clock"`
	IncrementalInterval time.Duration `mapstructure:"incremental_interval" validate:"min=1s"`
	PollInterval        time.Duration `mapstructure:"poll_interval" validate:"min=1s"`
	ScheduleTimezone    string        `mapstructure:"schedule_timezone" validate:"required,timezone"`
	RunLockTTL          time.Duration `mapstructure:"run_lock_ttl" validate:"min=1s"`

	OpsAddr string `mapstructure:"ops_addr"`
}

var settingsDefaults = map[string]any{
	"raw_source":           SourceCSV,
	"raw_data_dir":         "data/raw",
	"generate_if_missing":  false,
	"gcs_bucket":           "",
	"gcs_prefix":           "",
	"processed_data_dir":   "data/processed",
	"snapshot_xlsx":        false,
	"load_batch_size":      500,
	"full_run_at":          "02:00",
	"incremental_interval": "1h",
	"poll_interval":        "60s",
	"schedule_timezone":    "UTC",
	"run_lock_ttl":         "2h",
	"ops_addr":             "",
}

// LoadSettings reads and validates Settings.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	for k, def := range settingsDefaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("ETL_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, err := ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

func ValidateSettings(s *Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", v)
	}
	return t.Hour(), t.Minute(), nil
}

// Location resolves ScheduleTimezone.
func (s *Settings) Location() (*time.Location, error) {
	return time.LoadLocation(s.ScheduleTimezone)
}
