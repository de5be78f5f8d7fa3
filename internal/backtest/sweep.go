package backtest

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/data"
	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/model"
	"battery-arbitrage/internal/simulator"

	"golang.org/x/sync/errgroup"
)

// RunConfig wires a fresh simulator, reward, adapter and strategy from cfg
// and runs one episode over records. The first cfg.HistoryTicks records seed
// the strategy and are not replayed. records is only read.
func (e *Engine) RunConfig(ctx context.Context, cfg *config.Config, records []model.PriceRecord) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	history, live := data.SplitHistory(records, cfg.HistoryTicks)
	if len(live) == 0 {
		return nil, fmt.Errorf("no records left to replay after %d history ticks", cfg.HistoryTicks)
	}

	sim, err := simulator.New(live, cfg.Battery.Spec(), cfg.Simulator)
	if err != nil {
		return nil, err
	}
	rf, err := cfg.BuildReward()
	if err != nil {
		return nil, err
	}
	ep, err := episode.New(sim, rf, cfg.Observation, e.log)
	if err != nil {
		return nil, err
	}
	strat, err := cfg.BuildStrategy(e.log)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, ep, strat, history)
}

// Variation is one named configuration in a sweep.
type Variation struct {
	Name   string
	Config *config.Config
}

// Sweep runs every variation over the same records concurrently, at most
// limit at a time (0 means GOMAXPROCS). Results keep the order of variations.
// The first failure cancels the rest.
func (e *Engine) Sweep(ctx context.Context, records []model.PriceRecord, variations []Variation, limit int) ([]*Result, error) {
	if len(variations) == 0 {
		return nil, errors.New("no variations")
	}
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(variations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, v := range variations {
		i, v := i, v
		g.Go(func() error {
			res, err := e.RunConfig(gctx, v.Config, records)
			if err != nil {
				return fmt.Errorf("variation %q: %w", v.Name, err)
			}
			res.Name = v.Name
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.log.Info().Int("variations", len(variations)).Int("records", len(records)).Msg("sweep finished")
	return results, nil
}

// Best returns the result with the highest total profit.
func Best(results []*Result) *Result {
	var best *Result
	for _, r := range results {
		if r != nil && (best == nil || r.TotalProfit > best.TotalProfit) {
			best = r
		}
	}
	return best
}
