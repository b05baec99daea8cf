package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker reports whether the override sources loaded cleanly
type HealthChecker struct {
	mu       sync.RWMutex
	mode     string
	source   string
	lastLoad time.Time
	loaded   bool
	errors   []string
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Source    string    `json:"source,omitempty"`
	LastLoad  time.Time `json:"last_load"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

func NewHealthChecker(mode, source string) *HealthChecker {
	return &HealthChecker{
		mode:   mode,
		source: source,
		errors: make([]string, 0),
	}
}

// RecordLoad stores the outcome of the latest load
func (h *HealthChecker) RecordLoad(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastLoad = time.Now()
	h.loaded = err == nil
	h.errors = h.errors[:0]
	if err != nil {
		h.errors = append(h.errors, err.Error())
	}
}

// Status returns the current health snapshot
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	switch {
	case len(h.errors) > 0:
		status = "unhealthy"
	case !h.loaded:
		status = "degraded"
	}
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Mode:      h.mode,
		Source:    h.source,
		LastLoad:  h.lastLoad,
		Uptime:    time.Since(startTime).String(),
		Errors:    append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	switch health.Status {
	case "unhealthy":
		w.WriteHeader(http.StatusInternalServerError)
	case "degraded":
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
