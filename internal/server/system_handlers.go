package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/config"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/database"
)

// SystemHandlers serves health and system information endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	cfg       *config.Config
	db        *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, cfg *config.Config, db *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		cfg:       cfg,
		db:        db,
		startedAt: time.Now(),
	}
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if h.db != nil {
		if err := h.db.Conn().Ping(); err != nil {
			h.log.Error().Err(err).Msg("database ping failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

// HandleSystemInfo handles GET /api/system/info
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := h.systemStats()

	info := map[string]interface{}{
		"go_version":  runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"cpu_percent": cpuAvg,
		"ram_percent": ramPercent,
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
		"data_dir":    h.cfg.DataDir,
		"data_dir_mb": h.dirSizeMB(h.cfg.DataDir),
		"engine_url":  h.cfg.EngineURL,
		"dev_mode":    h.cfg.DevMode,
	}
	if h.db != nil {
		info["database"] = h.db.Name()
	}

	h.writeJSON(w, http.StatusOK, info)
}

// systemStats returns CPU and RAM usage percentages. A 100ms CPU sample keeps
// the endpoint responsive.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read cpu usage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read memory statistics")
		return cpuPercent[0], 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) dirSizeMB(dir string) float64 {
	var total int64
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return float64(total) / (1024 * 1024)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}
