package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedger(f, ledger)
}

func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"timestamp",
		"hour",
		"price",
		"pv_power_kw",
		"regime",
		"action",
		"charge_kw",
		"solar_to_battery_kw",
		"soc_start_kwh",
		"soc_end_kwh",
		"profit_delta",
		"total_profit",
		"reward",
		"cum_reward",
		"terminal",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			strconv.Itoa(r.Hour),
			fmtFloat(r.Price),
			fmtFloat(r.PVPowerKW),
			r.Regime,
			string(r.Action),
			fmtFloat(r.ChargeKW),
			fmtFloat(r.SolarToBatteryKW),
			fmtFloat(r.SOCStartKWh),
			fmtFloat(r.SOCEndKWh),
			fmtFloat(r.ProfitDelta),
			fmtFloat(r.TotalProfit),
			fmtFloat(r.Reward),
			fmtFloat(r.CumReward),
			strconv.FormatBool(r.Terminal),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
