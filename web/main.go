// Package web serves the observer surface: a status page, a server-sent
// event stream of tick snapshots and run reports, and Prometheus metrics.
// It is read-only; all operator input goes through the console.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"scrm.ca/trolley/brake"
	"scrm.ca/trolley/sim"
)

//go:embed index.html
var templates embed.FS

// Server exposes /, /events (SSE streams "snapshot" and "report"), and
// /metrics.
type Server struct {
	driver *sim.Driver
	sse    *sse.Server
	sm     *http.ServeMux
	t      *template.Template

	mu     sync.Mutex
	latest sim.Snapshot
	report string
}

func NewServer(driver *sim.Driver) *Server {
	s := &Server{
		driver: driver,
		sse:    sse.New(),
		sm:     http.NewServeMux(),
	}
	s.t = template.Must(template.New("index").Funcs(sprig.FuncMap()).Funcs(template.FuncMap{
		"angle": brake.AngleOf,
	}).ParseFS(templates, "*.html"))
	s.sse.CreateStream("snapshot")
	s.sse.CreateStream("report")
	s.sm.HandleFunc("/", s.handleIndex)
	s.sm.Handle("/events", s.sse)
	s.sm.Handle("/metrics", promhttp.Handler())
	go s.forward()
	return s
}

// forward shovels driver events into the SSE streams: every tick's
// snapshot on "snapshot", run reports (warnings, fatals, completions,
// resets) on "report".
func (s *Server) forward() {
	ch := make(chan sim.Event, 8)
	s.driver.Events().Subscribe("web", ch)
	defer s.driver.Events().Unsubscribe(ch)
	for e := range ch {
		switch e := e.(type) {
		case sim.TickEvent:
			s.mu.Lock()
			s.latest = e.Snapshot
			s.mu.Unlock()
			data, err := json.Marshal(e.Snapshot)
			if err != nil {
				zap.S().Errorf("web: marshal snapshot: %s", err)
				continue
			}
			s.sse.TryPublish("snapshot", &sse.Event{Data: data})
		default:
			s.mu.Lock()
			s.report = e.String()
			s.mu.Unlock()
			s.sse.TryPublish("report", &sse.Event{Data: []byte(e.String())})
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.latest
	report := s.report
	s.mu.Unlock()
	err := s.t.ExecuteTemplate(w, "index", map[string]interface{}{
		"snap":   snap,
		"report": report,
		"now":    time.Now().Format("15:04:05"),
	})
	if err != nil {
		zap.S().Errorf("web: render index: %s", err)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.sm.ServeHTTP(w, r)
}
