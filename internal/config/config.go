package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"oaiagents/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. OAI_LAYOUT_NAME.
const EnvPrefix = "OAI_"

// BaseFPS is the game speed at slowmo rate 1.
const BaseFPS = 30

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Args is the runtime configuration shared by the CLI, the session driver and
// the checkpoint store.
type Args struct {
	BaseDir    string  `yaml:"base_dir"`
	DataPath   string  `yaml:"data_path" validate:"required"`
	LayoutName string  `yaml:"layout_name" validate:"required"`
	EncodingFn string  `yaml:"encoding_fn" validate:"required"`
	Horizon    int     `yaml:"horizon" validate:"gt=0"`
	Device     string  `yaml:"device" validate:"required"`
	SlowmoRate float64 `yaml:"slowmo_rate" validate:"gt=0"`
	Store      string  `yaml:"store" validate:"oneof=file memory sqlite badger"`
	DBPath     string  `yaml:"db_path"`
	LogLevel   string  `yaml:"log_level" validate:"oneof=debug info warn error"`
	ExpName    string  `yaml:"exp_name"`
	Seed       int64   `yaml:"seed"`
}

func Default() Args {
	return Args{
		BaseDir:    ".",
		DataPath:   "data",
		LayoutName: "forced_coordination",
		EncodingFn: "flat",
		Horizon:    1200,
		Device:     "cpu",
		SlowmoRate: 1,
		Store:      "file",
		LogLevel:   "info",
		ExpName:    "default_exp",
		Seed:       1,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Args, error) {
	args := Default()
	if path == "" {
		return args, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Args{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &args); err != nil {
		return Args{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return args, nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are skipped; existing variables are not overwritten.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from OAI_* variables found through lookup.
func (a *Args) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("BASE_DIR", &a.BaseDir)
	str("DATA_PATH", &a.DataPath)
	str("LAYOUT_NAME", &a.LayoutName)
	str("ENCODING_FN", &a.EncodingFn)
	str("DEVICE", &a.Device)
	str("STORE", &a.Store)
	str("DB_PATH", &a.DBPath)
	str("LOG_LEVEL", &a.LogLevel)
	str("EXP_NAME", &a.ExpName)

	if v, ok := lookup(EnvPrefix + "HORIZON"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHORIZON: %w", EnvPrefix, err)
		}
		a.Horizon = n
	}
	if v, ok := lookup(EnvPrefix + "SLOWMO_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSLOWMO_RATE: %w", EnvPrefix, err)
		}
		a.SlowmoRate = f
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		a.Seed = n
	}
	return nil
}

func (a Args) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// FPS is the replay and collection pace, 30 divided by the slowmo rate.
func (a Args) FPS() int {
	if a.SlowmoRate <= 0 {
		return BaseFPS
	}
	fps := int(float64(BaseFPS) / a.SlowmoRate)
	if fps < 1 {
		return 1
	}
	return fps
}

// DataDir resolves DataPath against BaseDir.
func (a Args) DataDir() string {
	if filepath.IsAbs(a.DataPath) || a.BaseDir == "" {
		return a.DataPath
	}
	return filepath.Join(a.BaseDir, a.DataPath)
}

// StorePath is the location handed to storage.NewStore for the configured
// backend.
func (a Args) StorePath() string {
	switch a.Store {
	case "sqlite":
		if a.DBPath != "" {
			return a.DBPath
		}
		return filepath.Join(a.DataDir(), "trials.db")
	case "badger":
		if a.DBPath != "" {
			return a.DBPath
		}
		return filepath.Join(a.DataDir(), "trials.badger")
	default:
		return a.DataDir()
	}
}

// Runtime is the snapshot persisted with agent checkpoints.
func (a Args) Runtime() model.RuntimeArgs {
	return model.RuntimeArgs{
		Device:     a.Device,
		LayoutName: a.LayoutName,
		EncodingFn: a.EncodingFn,
		Horizon:    a.Horizon,
		DataDir:    a.DataDir(),
		ExpName:    a.ExpName,
		Seed:       a.Seed,
	}
}

func (a Args) Level() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
