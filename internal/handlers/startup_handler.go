package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
)

// Startup steps reported on the progress page
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepTemplates  = "Loading templates"
	StepServices   = "Initializing services"
)

// StartupStep is one initialization step
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus serves a progress page until the application handler is
// installed with Serve, then hands every request to it.
type StartupStatus struct {
	mu      sync.RWMutex
	handler http.Handler
	current string
	steps   []StartupStep
}

// NewStartupStatus tracks the given steps in order
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the step shown as in progress
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == step {
			s.steps[i].Completed = true
			break
		}
	}
}

// Serve installs the application handler and marks the server ready
func (s *StartupStatus) Serve(h http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
	s.current = "Server ready"
	for i := range s.steps {
		s.steps[i].Completed = true
	}
}

// IsReady returns whether the application handler is installed
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler != nil
}

type startupSnapshot struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

func (s *StartupStatus) snapshot() startupSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := startupSnapshot{
		Ready:   s.handler != nil,
		Current: s.current,
		Steps:   append([]StartupStep(nil), s.steps...),
	}
	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		snap.Progress = completed * 100 / len(s.steps)
	}
	if snap.Ready {
		snap.Progress = 100
	}
	return snap
}

// ServeHTTP answers /healthz itself and everything else with either the
// application or the progress page.
func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/healthz" {
		s.Health(w, r)
		return
	}

	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h != nil {
		h.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "2")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = startupPage.Execute(w, s.snapshot())
}

// Health reports readiness as JSON, 503 until the server is ready
func (s *StartupStatus) Health(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	w.Header().Set("Content-Type", "application/json")
	if !snap.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(snap)
}

var startupPage = template.Must(template.New("startup").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta http-equiv="refresh" content="2">
	<title>F1 Fantasy - Starting Up</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; background: #15151e; min-height: 100vh; display: flex; align-items: center; justify-content: center; margin: 0; }
		.container { background: white; border-radius: 12px; padding: 40px; max-width: 460px; width: 100%; }
		h1 { text-align: center; margin: 0 0 20px; }
		.progress-bar { height: 12px; background: #e0e0e0; border-radius: 6px; overflow: hidden; margin-bottom: 12px; }
		.progress-fill { height: 100%; background: #e10600; }
		.progress-text { text-align: center; color: #e10600; font-weight: 600; margin-bottom: 20px; }
		.steps { list-style: none; padding: 0; }
		.step { padding: 8px 0; border-bottom: 1px solid #f0f0f0; color: #999; }
		.step.completed { color: #10b981; }
		.current-status { text-align: center; font-style: italic; margin-top: 20px; }
	</style>
</head>
<body>
	<div class="container">
		<h1>F1 Fantasy</h1>
		<div class="progress-bar"><div class="progress-fill" style="width: {{.Progress}}%"></div></div>
		<div class="progress-text">{{.Progress}}% Complete</div>
		<ul class="steps">
			{{range .Steps}}<li class="step {{if .Completed}}completed{{end}}">{{if .Completed}}&#10003;{{else}}&#9675;{{end}} {{.Name}}</li>
			{{end}}
		</ul>
		<div class="current-status">{{.Current}}</div>
	</div>
</body>
</html>`))
