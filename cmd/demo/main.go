package main

import (
	"flag"
	"fmt"
	"os"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/logger"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/simulator"
)

// Demo:
// - Load a price/PV history
// - Wrap the battery simulator in the episode adapter
// - Drive it with a fixed action vector for a few ticks, the way a learned
//   actor would, and print observation and reward per step
func main() {
	dataPath := flag.String("data", "examples/data/sample.csv", "Path to a CSV or JSON price history")
	cfgPath := flag.String("config", "", "Path to YAML or TOML config (optional)")
	n := flag.Int("n", 12, "Number of ticks to simulate")
	solar := flag.Float64("solar", 0.5, "Solar-to-battery component of the action vector [-1, 1]")
	charge := flag.Float64("charge", 0.2, "Charge component of the action vector [-1, 1]")
	flag.Parse()

	log := logger.New(logger.Config{Level: os.Getenv("LOG_LEVEL"), Pretty: true})

	records, err := data.Load(*dataPath)
	if err != nil {
		panic(err)
	}
	if len(records) == 0 {
		panic("no records in " + *dataPath)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = *loaded
	}

	sim, err := simulator.New(records, cfg.Battery.Spec(), cfg.Simulator)
	if err != nil {
		panic(err)
	}
	rf, err := cfg.BuildReward()
	if err != nil {
		panic(err)
	}
	ep, err := episode.New(sim, rf, cfg.Observation, log)
	if err != nil {
		panic(err)
	}

	obs, err := ep.Reset()
	if err != nil {
		panic(err)
	}
	fmt.Printf("battery=%s capacity=%.1fkWh rate=%.1fkW reward=%s\n",
		cfg.Battery.Name, cfg.Battery.CapacityKWh, cfg.Battery.MaxChargeRateKW, rf.Name())
	fmt.Printf("reset obs=%v\n", obs)

	v := model.ActionVector{*solar, *charge}
	total := 0.0
	for i := 0; i < *n; i++ {
		step := ep.Step(v)
		if step.Done() {
			fmt.Printf("tick %3d done reason=%s\n", i, step.Reason)
			break
		}
		total += step.Reward
		_, in := ep.State()
		fmt.Printf("tick %3d action=%+v soc=%.3fkWh profit=%.5f reward=%.4f obs=%.3f\n",
			i, step.Action, in.BatterySOCKWh, in.TotalProfit, step.Reward, step.Observation)
	}

	h := ep.History()
	fmt.Printf("steps=%d total_reward=%.4f\n", len(h.Prices), total)
}
