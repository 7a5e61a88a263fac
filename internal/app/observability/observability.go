package observability

import (
	"database/sql"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/abdufattohfattoyev/test-bot-web/internal/app/apiresp"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

// Collector keeps in-process request counters and answers the health and
// status endpoints.
type Collector struct {
	db *sql.DB

	mu           sync.RWMutex
	requestStats map[key]stat
	startedAt    time.Time
}

func NewCollector(db *sql.DB) *Collector {
	return &Collector{
		db:           db,
		requestStats: make(map[key]stat),
		startedAt:    time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		k := key{Method: r.Method, Path: r.URL.Path, Status: rec.status}

		c.mu.Lock()
		s := c.requestStats[k]
		total := s.LatencyMS*float64(s.Count) + elapsed
		s.Count++
		s.LatencyMS = total / float64(s.Count)
		c.requestStats[k] = s
		c.mu.Unlock()
	})
}

// Health answers the liveness probe.
func (c *Collector) Health(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "API ishlayapti!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"method":    r.Method,
		"url":       r.URL.String(),
	})
}

type routeStat struct {
	Method       string  `json:"method"`
	Path         string  `json:"path"`
	Status       int     `json:"status"`
	Count        int64   `json:"count"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Status reports uptime, database reachability and per-route counters.
func (c *Collector) Status(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := c.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	c.mu.RLock()
	routes := make([]routeStat, 0, len(c.requestStats))
	for k, s := range c.requestStats {
		routes = append(routes, routeStat{
			Method:       k.Method,
			Path:         k.Path,
			Status:       k.Status,
			Count:        s.Count,
			AvgLatencyMS: s.LatencyMS,
		})
	}
	uptime := time.Since(c.startedAt)
	c.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"database_ok":    dbOK,
		"uptime_seconds": int64(uptime.Seconds()),
		"requests":       routes,
	})
}
