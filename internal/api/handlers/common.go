package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-arbitrage/internal/api/models"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/model"

	"github.com/gin-gonic/gin"
)

// Dirs locates the files handlers may read.
type Dirs struct {
	Data      string // price history files (DATA_DIR)
	Batteries string // battery presets (BATTERY_DIR)
}

// ResolveDir returns the env override or <wd>/examples/<sub>, as an absolute path.
func ResolveDir(env, sub string) string {
	dir := os.Getenv(env)
	if dir == "" {
		// Try to resolve relative to working directory first
		if wd, err := os.Getwd(); err == nil {
			dir = filepath.Join(wd, "examples", sub)
		} else {
			dir = filepath.Join(".", "examples", sub)
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

var dataExtensions = []string{".csv", ".json"}

// loadRecords resolves a data source into chronologically ordered records.
func loadRecords(ds models.DataSourceConfig, dataDir string) ([]model.PriceRecord, error) {
	switch ds.Type {
	case "inline":
		if len(ds.Records) == 0 {
			return nil, errors.New("inline data source has no records")
		}
		records := append([]model.PriceRecord(nil), ds.Records...)
		data.SortChronological(records)
		return records, nil
	case "dataset":
		path, err := datasetPath(dataDir, ds.Dataset)
		if err != nil {
			return nil, err
		}
		return data.Load(path)
	default:
		return nil, fmt.Errorf("unsupported data source type: %s", ds.Type)
	}
}

// datasetPath maps a dataset id onto a file in dir. Ids never leave dir.
func datasetPath(dir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid dataset id %q", id)
	}
	for _, ext := range dataExtensions {
		p := filepath.Join(dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("dataset %q not found", id)
}

// batteryPath maps a preset id (file name without extension) onto a file in dir.
func batteryPath(dir, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid battery file %q", id)
	}
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		p := filepath.Join(dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("battery file %q not found", id)
}

// resolveBattery merges request overrides onto a preset, or onto the default battery.
func resolveBattery(batteryDir, file string, override config.BatteryConfig) (config.BatteryConfig, error) {
	base := config.Default().Battery
	if file != "" {
		path, err := batteryPath(batteryDir, file)
		if err != nil {
			return config.BatteryConfig{}, err
		}
		base, err = config.LoadBatteryFile(path)
		if err != nil {
			return config.BatteryConfig{}, err
		}
	}
	return config.MergeBattery(base, override), nil
}

// buildConfig overlays a request config on the defaults and validates it.
func buildConfig(req models.BacktestConfig, batteryDir string) (*config.Config, error) {
	cfg := config.Default()
	if err := applyOverrides(&cfg, req, batteryDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyOverrides(cfg *config.Config, req models.BacktestConfig, batteryDir string) error {
	if req.BatteryFile != "" {
		battery, err := resolveBattery(batteryDir, req.BatteryFile, req.Battery)
		if err != nil {
			return err
		}
		cfg.BatteryFile = req.BatteryFile
		cfg.Battery = battery
	} else {
		cfg.Battery = config.MergeBattery(cfg.Battery, req.Battery)
	}
	if req.Strategy.Name != "" {
		cfg.Strategy = req.Strategy
	}
	// copy before decoding so callers' slices are never written through
	cfg.Reward.PeakHours = append([]int(nil), cfg.Reward.PeakHours...)
	if err := decodeSection(req.Reward, &cfg.Reward); err != nil {
		return fmt.Errorf("reward: %w", err)
	}
	if err := decodeSection(req.Observation, &cfg.Observation); err != nil {
		return fmt.Errorf("observation: %w", err)
	}
	if err := decodeSection(req.Simulator, &cfg.Simulator); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	if req.HistoryTicks > 0 {
		cfg.HistoryTicks = req.HistoryTicks
	}
	return nil
}

func decodeSection(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
