package backtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"battery-arbitrage/internal/config"
	"battery-arbitrage/internal/episode"
	"battery-arbitrage/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(prices ...float64) []model.PriceRecord {
	start := time.Date(2023, 4, 15, 12, 0, 0, 0, time.UTC)
	out := make([]model.PriceRecord, len(prices))
	for i, p := range prices {
		out[i] = model.PriceRecord{Timestamp: start.Add(time.Duration(i) * model.TickDuration), Price: p, PVPowerKW: 3}
	}
	return out
}

func movingAverageConfig(window int) *config.Config {
	c := config.Default()
	c.Strategy.Params = map[string]any{"window_size": window}
	c.HistoryTicks = window
	return &c
}

func TestRunConfigMovingAverage(t *testing.T) {
	e := New(zerolog.Nop())
	res, err := e.RunConfig(context.Background(), movingAverageConfig(3), testRecords(10, 12, 11, -2, 50, 5))
	require.NoError(t, err)

	require.Len(t, res.Ledger, 3)
	assert.Equal(t, 3, res.Ticks)
	assert.Equal(t, "moving_average", res.Strategy)
	assert.Equal(t, episode.ReasonEndOfData, res.EndReason)

	first := res.Ledger[0]
	assert.Equal(t, -2.0, first.Price)
	assert.Equal(t, "negative_price", first.Regime)
	assert.Equal(t, model.ActionCharging, first.Action)
	assert.InDelta(t, 5.0, first.ChargeKW, 1e-9)
	assert.InDelta(t, 3.0, first.SolarToBatteryKW, 1e-9)
	assert.InDelta(t, 7.5, first.SOCStartKWh, 1e-9)
	assert.InDelta(t, 7.5+8.0/12, first.SOCEndKWh, 1e-9)
	assert.False(t, first.Terminal)

	second := res.Ledger[1]
	assert.Equal(t, "sell", second.Regime)
	assert.Equal(t, model.ActionDischarging, second.Action)
	assert.InDelta(t, -5.0, second.ChargeKW, 1e-9)

	last := res.Ledger[2]
	assert.Equal(t, "buy", last.Regime)
	assert.True(t, last.Terminal)
	assert.Zero(t, last.Reward)

	assert.Equal(t, map[string]int{"negative_price": 1, "sell": 1, "buy": 1}, res.RegimeCounts)
	assert.InDelta(t, res.Ledger[1].CumReward, res.TotalReward, 1e-9)
	assert.Equal(t, last.TotalProfit, res.TotalProfit)
}

func TestRunConfigWithoutHistoryStaysIdle(t *testing.T) {
	c := movingAverageConfig(50)
	c.HistoryTicks = 0
	res, err := New(zerolog.Nop()).RunConfig(context.Background(), c, testRecords(10, 12, 11, -2, 50, 5))
	require.NoError(t, err)

	for _, row := range res.Ledger {
		assert.Equal(t, model.ActionIdle, row.Action)
		assert.Equal(t, "warming_up", row.Regime)
	}
}

func TestRunConfigNoLiveRecords(t *testing.T) {
	_, err := New(zerolog.Nop()).RunConfig(context.Background(), movingAverageConfig(3), testRecords(1, 2, 3))
	assert.Error(t, err)
}

func TestRunMaxTicks(t *testing.T) {
	c := config.Default()
	c.Strategy.Name = "idle"
	e := New(zerolog.Nop())
	e.MaxTicks = 2
	res, err := e.RunConfig(context.Background(), &c, testRecords(1, 2, 3, 4, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Ticks)
	assert.Equal(t, ReasonMaxTicks, res.EndReason)
	assert.Empty(t, res.RegimeCounts)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(zerolog.Nop()).RunConfig(ctx, movingAverageConfig(3), testRecords(10, 12, 11, -2, 50, 5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweep(t *testing.T) {
	records := testRecords(10, 12, 11, -2, 50, 5, 80, 1, 3)
	idle := config.Default()
	idle.Strategy.Name = "idle"
	idle.HistoryTicks = 3

	variations := []Variation{
		{Name: "ma", Config: movingAverageConfig(3)},
		{Name: "idle", Config: &idle},
	}
	results, err := New(zerolog.Nop()).Sweep(context.Background(), records, variations, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ma", results[0].Name)
	assert.Equal(t, "moving_average", results[0].Strategy)
	assert.Equal(t, "idle", results[1].Name)
	assert.Equal(t, results[0].Ticks, results[1].Ticks)

	assert.NotNil(t, Best(results))
	assert.Nil(t, Best(nil))
}

func TestSweepFailsFast(t *testing.T) {
	bad := movingAverageConfig(3)
	bad.HistoryTicks = 100
	_, err := New(zerolog.Nop()).Sweep(context.Background(), testRecords(1, 2, 3, 4), []Variation{
		{Name: "ok", Config: movingAverageConfig(3)},
		{Name: "bad", Config: bad},
	}, 0)
	assert.ErrorContains(t, err, `"bad"`)

	_, err = New(zerolog.Nop()).Sweep(context.Background(), nil, nil, 0)
	assert.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	res, err := New(zerolog.Nop()).RunConfig(context.Background(), movingAverageConfig(3), testRecords(10, 12, 11, -2, 50, 5))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, res.Ledger))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "index", rows[0][0])
	assert.Equal(t, "negative_price", rows[1][5])
	assert.Equal(t, "CHARGING", rows[1][6])
	assert.Equal(t, "true", rows[3][15])
}

func TestResultCache(t *testing.T) {
	c := NewResultCache(context.Background(), time.Minute, 0)
	now := time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	r := &Result{Strategy: "idle"}
	id := c.Put(r)
	assert.Equal(t, id, r.ID)

	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = c.Get("not-a-uuid")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
	c.Prune()
	assert.Equal(t, 0, c.Len())

	c.Put(&Result{})
	c.Clear()
	assert.Equal(t, 0, c.Len())

	var nilCache *ResultCache
	_, ok = nilCache.Get(id)
	assert.False(t, ok)
}
