package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"battery-arbitrage/internal/model"
)

// Columns required in a price/PV history CSV. Other columns are ignored.
var requiredColumns = []string{"timestamp", "price", "demand", "pv_power"}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func LoadCSV(path string) ([]model.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses timestamp, price, demand, pv_power rows. Rows with a missing
// value in any of those columns are dropped.
func ReadCSV(r io.Reader) ([]model.PriceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, err
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv missing column %q", col)
		}
	}

	var out []model.PriceRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cells := make(map[string]string, len(requiredColumns))
		complete := true
		for _, col := range requiredColumns {
			i := idx[col]
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				complete = false
				break
			}
			cells[col] = strings.TrimSpace(row[i])
		}
		if !complete {
			continue
		}

		rec, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(cells map[string]string) (model.PriceRecord, error) {
	ts, err := ParseTimestamp(cells["timestamp"])
	if err != nil {
		return model.PriceRecord{}, err
	}
	price, err := strconv.ParseFloat(cells["price"], 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("price: %w", err)
	}
	demand, err := strconv.ParseFloat(cells["demand"], 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("demand: %w", err)
	}
	pv, err := strconv.ParseFloat(cells["pv_power"], 64)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("pv_power: %w", err)
	}
	return model.PriceRecord{Timestamp: ts, Price: price, DemandKW: demand, PVPowerKW: pv}, nil
}

// ParseTimestamp accepts RFC3339 and the common space-separated layouts.
// Timestamps without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
