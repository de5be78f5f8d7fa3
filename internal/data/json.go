package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"battery-arbitrage/internal/model"
)

func LoadJSON(path string) ([]model.PriceRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var series model.PriceSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, err
	}
	return series.Data, nil
}

// Load picks the loader by file extension and returns records in
// chronological order.
func Load(path string) ([]model.PriceRecord, error) {
	var (
		records []model.PriceRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = LoadCSV(path)
	case ".json":
		records, err = LoadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported data file %q (want .csv or .json)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	SortChronological(records)
	return records, nil
}

// SortChronological orders records by timestamp, keeping file order for ties.
func SortChronological(records []model.PriceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// SplitHistory separates the first n records, used to seed price windows,
// from the remainder that is replayed live.
func SplitHistory(records []model.PriceRecord, n int) (history, live []model.PriceRecord) {
	if n <= 0 {
		return nil, records
	}
	if n >= len(records) {
		return records, nil
	}
	return records[:n], records[n:]
}
