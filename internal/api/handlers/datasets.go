package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"battery-arbitrage/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DatasetHandler lists the price history files under DATA_DIR
type DatasetHandler struct {
	dir string
	log zerolog.Logger
}

func NewDatasetHandler(dir string, log zerolog.Logger) *DatasetHandler {
	return &DatasetHandler{dir: dir, log: log.With().Str("handler", "datasets").Logger()}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets := []models.DatasetInfo{}

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.log.Warn().Err(err).Str("dir", h.dir).Msg("cannot read data directory")
		c.JSON(http.StatusOK, gin.H{"datasets": datasets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		datasets = append(datasets, models.DatasetInfo{
			ID:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			File:   entry.Name(),
			Format: strings.TrimPrefix(ext, "."),
		})
	}
	sort.Slice(datasets, func(i, j int) bool { return datasets[i].ID < datasets[j].ID })

	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}
