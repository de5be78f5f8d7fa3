package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"battery-arbitrage/internal/analysis"
	"battery-arbitrage/internal/backtest"
	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/logger"
	"battery-arbitrage/internal/model"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	case "profile":
		cmdProfile(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --data examples/data/sample.csv --config examples/configs/moving_average.yaml --out results/ledger.csv")
	fmt.Println("  cli compare --data examples/data/sample.csv --configs a.yaml,b.toml")
	fmt.Println("  cli rank --data examples/data --battery examples/batteries/home.yaml")
	fmt.Println("  cli profile --data examples/data/sample.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest outputs CSV with action=CHARGING/IDLE/DISCHARGING per 5-minute tick")
	fmt.Println("  - rank scores each series by its perfect-foresight arbitrage profit")
	fmt.Println("  - LOG_LEVEL and LOG_PRETTY may be set in the environment or a .env file")
}

func newLogger() zerolog.Logger {
	return logger.New(logger.Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Pretty: os.Getenv("LOG_PRETTY") != "false",
	})
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	dataPath := fs.String("data", "examples/data/sample.csv", "Path to a CSV or JSON price history")
	cfgPath := fs.String("config", "", "Path to YAML or TOML config")
	outPath := fs.String("out", "results/ledger.csv", "Output CSV path")
	n := fs.Int("n", 0, "Optional: stop after N ticks (0=all)")
	_ = fs.Parse(args)

	log := newLogger()
	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	records, err := data.Load(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load data")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	engine := backtest.New(log)
	engine.MaxTicks = *n
	res, err := engine.RunConfig(context.Background(), cfg, records)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest")
	}

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}
	if err := backtest.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
		log.Fatal().Err(err).Msg("write ledger")
	}

	fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), *outPath)
	fmt.Printf("Total profit=$%.4f Total reward=%.4f Final SOC=%.3f kWh (%s)\n",
		res.TotalProfit, res.TotalReward, res.FinalSOCKWh, res.EndReason)
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	dataPath := fs.String("data", "examples/data/sample.csv", "Path to a CSV or JSON price history")
	cfgPaths := fs.String("configs", "", "Comma-separated YAML/TOML configs, one per variation")
	limit := fs.Int("parallel", 0, "Max concurrent runs (0=GOMAXPROCS)")
	_ = fs.Parse(args)

	log := newLogger()
	paths := splitPaths(*cfgPaths)
	if len(paths) == 0 {
		fmt.Println("--configs is required")
		os.Exit(2)
	}

	records, err := data.Load(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load data")
	}

	variations := make([]backtest.Variation, 0, len(paths))
	for _, p := range paths {
		cfg, err := config.Load(p)
		if err != nil {
			log.Fatal().Err(err).Str("config", p).Msg("load config")
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		variations = append(variations, backtest.Variation{Name: name, Config: cfg})
	}

	results, err := backtest.New(log).Sweep(context.Background(), records, variations, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("compare")
	}

	fmt.Printf("%-24s %-16s %-8s %-12s %-12s %-10s\n", "variation", "strategy", "ticks", "profit$", "reward", "final_soc")
	for _, r := range results {
		fmt.Printf("%-24s %-16s %-8d %-12.4f %-12.4f %-10.3f\n",
			r.Name, r.Strategy, r.Ticks, r.TotalProfit, r.TotalReward, r.FinalSOCKWh)
	}
	if best := backtest.Best(results); best != nil {
		fmt.Printf("best: %s\n", best.Name)
	}
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	dataPaths := fs.String("data", "examples/data", "Comma-separated CSV/JSON paths or a directory")
	batteryPath := fs.String("battery", "", "Optional battery file (YAML or TOML)")
	_ = fs.Parse(args)

	log := newLogger()
	battery := loadBattery(log, *batteryPath)

	series := map[string][]model.PriceRecord{}
	for _, p := range splitPaths(*dataPaths) {
		info, err := os.Stat(p)
		if err != nil {
			log.Fatal().Err(err).Msg("stat data path")
		}
		files := []string{p}
		if info.IsDir() {
			files = nil
			entries, err := os.ReadDir(p)
			if err != nil {
				log.Fatal().Err(err).Msg("read data dir")
			}
			for _, e := range entries {
				ext := strings.ToLower(filepath.Ext(e.Name()))
				if e.IsDir() || (ext != ".csv" && ext != ".json") {
					continue
				}
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		for _, f := range files {
			records, err := data.Load(f)
			if err != nil {
				log.Fatal().Err(err).Msg("load data")
			}
			series[strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))] = records
		}
	}

	ranked := analysis.RankByOracleProfit(series, battery.Spec())
	fmt.Printf("%-4s %-24s %-8s %-10s %-14s %-12s\n", "rank", "dataset", "count", "p95-p05", "min/max", "oracle$")
	for i, r := range ranked {
		fmt.Printf(
			"%-4d %-24s %-8d %-10.2f %-6.1f/%-7.1f %-12.4f\n",
			i+1,
			r.Name,
			r.Count,
			r.SpreadP95P05,
			r.Min,
			r.Max,
			r.OracleProfit,
		)
	}
}

func cmdProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	dataPath := fs.String("data", "examples/data/sample.csv", "Path to a CSV or JSON price history")
	batteryPath := fs.String("battery", "", "Optional battery file (YAML or TOML)")
	_ = fs.Parse(args)

	log := newLogger()
	battery := loadBattery(log, *batteryPath).Spec()

	records, err := data.Load(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load data")
	}

	out := struct {
		Profile     analysis.PriceProfile `json:"profile"`
		Calibration *analysis.Calibration `json:"calibration,omitempty"`
	}{Profile: analysis.ComputePriceProfile(records, nil, &battery)}
	if cal, ok := analysis.Calibrate(records); ok {
		out.Calibration = &cal
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("encode profile")
	}
}

func loadBattery(log zerolog.Logger, path string) config.BatteryConfig {
	battery := config.Default().Battery
	if path == "" {
		return battery
	}
	loaded, err := config.LoadBatteryFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("load battery")
	}
	battery = config.MergeBattery(battery, loaded)
	if err := battery.Spec().Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid battery")
	}
	return battery
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
