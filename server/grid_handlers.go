package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/w3hc/xszc/version"
)

// HandleGrid serves the full authoritative grid snapshot.
func (s *Server) HandleGrid(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	max, err := s.reader.Max(r.Context())
	if err != nil {
		s.logger.Errorw("Grid size read failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read grid", err.Error())
		return
	}
	pixels, err := s.reader.AllPixels(r.Context())
	if err != nil {
		s.logger.Errorw("Grid pixels read failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read grid", err.Error())
		return
	}

	// encoding/json marshals []uint8 as a base64 string; the wire format is
	// a numeric matrix, so widen each row before encoding.
	rows := make([][]int, len(pixels))
	for i, row := range pixels {
		cells := make([]int, len(row))
		for j, c := range row {
			cells[j] = int(c)
		}
		rows[i] = cells
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"max":    max,
		"pixels": rows,
	})
}

// HandleCooldown serves per-address cooldown state and placement stats.
// Route: GET /api/cooldown/{address}
func (s *Server) HandleCooldown(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	addr := strings.TrimPrefix(r.URL.Path, "/api/cooldown/")
	if addr == "" || !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "Invalid address")
		return
	}
	author := common.HexToAddress(addr)

	canSet, err := s.reader.CanSetPixel(r.Context(), author)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read cooldown", err.Error())
		return
	}
	remaining, err := s.reader.RemainingCooldown(r.Context(), author)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read cooldown", err.Error())
		return
	}
	lastTime, err := s.reader.LastPixelTime(r.Context(), author)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read cooldown", err.Error())
		return
	}
	period, err := s.reader.CooldownPeriod(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read cooldown", err.Error())
		return
	}
	count, err := s.reader.PixelCount(r.Context(), author)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read cooldown", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":          author.Hex(),
		"canSetPixel":      canSet,
		"remainingSeconds": remaining,
		"lastPixelTime":    lastTime,
		"cooldownPeriod":   period,
		"pixelCount":       count,
	})
}

// HandleExpansion serves the grid-expansion threshold state.
func (s *Server) HandleExpansion(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	shouldExpand, err := s.reader.ShouldExpandGrid(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read expansion state", err.Error())
		return
	}
	max, err := s.reader.Max(r.Context())
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to read expansion state", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shouldExpand": shouldExpand,
		"max":          max,
	})
}

// HandleHealth serves liveness, version and uptime.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get(),
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"relayer": s.writer != nil,
	})
}
