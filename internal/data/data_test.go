package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"battery-arbitrage/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,price,demand,pv_power,extra
2023-04-15 00:05:00,41.5,1.2,0.0,x
2023-04-15 00:10:00,,1.1,0.0,x
2023-04-15 00:15:00,-3.25,1.0,0.5,
2023-04-15T00:20:00Z,12,0.9,1.5,x
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3, "row with missing price is dropped")

	assert.Equal(t, time.Date(2023, 4, 15, 0, 5, 0, 0, time.UTC), records[0].Timestamp)
	assert.Equal(t, 41.5, records[0].Price)
	assert.Equal(t, 1.2, records[0].DemandKW)
	assert.Equal(t, -3.25, records[1].Price)
	assert.Equal(t, 0.5, records[1].PVPowerKW)
	assert.Equal(t, 20, records[2].Timestamp.Minute())
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,price,demand\n2023-04-15 00:05:00,1,2\n"))
	assert.ErrorContains(t, err, "pv_power")
}

func TestReadCSVBadValue(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("timestamp,price,demand,pv_power\n2023-04-15 00:05:00,abc,2,0\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	records, err := Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	jsonPath := filepath.Join(dir, "prices.json")
	body := `{"data":[
		{"timestamp":"2023-04-15T00:10:00Z","price":2,"demand":1,"pv_power":0},
		{"timestamp":"2023-04-15T00:05:00Z","price":1,"demand":1,"pv_power":0}
	]}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(body), 0o644))
	records, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, model.Prices(records))

	_, err = Load(filepath.Join(dir, "prices.parquet"))
	assert.Error(t, err)
}

func TestSplitHistory(t *testing.T) {
	records := []model.PriceRecord{{Price: 1}, {Price: 2}, {Price: 3}}

	h, l := SplitHistory(records, 2)
	assert.Equal(t, []float64{1, 2}, model.Prices(h))
	assert.Equal(t, []float64{3}, model.Prices(l))

	h, l = SplitHistory(records, 0)
	assert.Empty(t, h)
	assert.Len(t, l, 3)

	h, l = SplitHistory(records, 10)
	assert.Len(t, h, 3)
	assert.Empty(t, l)
}
