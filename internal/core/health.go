package core

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// healthCheckTimeout bounds one /health request across all probes.
const healthCheckTimeout = 2 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthProbe checks one dependency of the API, such as the weather schedule.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth serves GET /health. Probes run concurrently; any failure,
// panic or missed deadline turns the response into a 503.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: statusHealthy, Version: s.version()}
	status := http.StatusOK

	if len(s.HealthProbes) > 0 {
		resp.Components = runProbes(ctx, s.HealthProbes)
		for _, c := range resp.Components {
			if c.Status != statusHealthy {
				resp.Status = statusUnhealthy
				status = http.StatusServiceUnavailable
				break
			}
		}
	}

	JSON(w, r, status, resp)
}

type probeResult struct {
	index   int
	err     error
	latency time.Duration
}

// runProbes collects results until every probe answers or ctx ends. Probes
// still running at that point are reported as timed out.
func runProbes(ctx context.Context, probes []HealthProbe) map[string]componentStatus {
	results := make(chan probeResult, len(probes))
	for i, p := range probes {
		go func(i int, p HealthProbe) {
			start := time.Now()
			err := checkProbe(ctx, p)
			results <- probeResult{index: i, err: err, latency: time.Since(start)}
		}(i, p)
	}

	components := make(map[string]componentStatus, len(probes))
	for _, p := range probes {
		components[p.Name()] = componentStatus{Status: statusUnhealthy, Message: "health check timed out"}
	}

	for pending := len(probes); pending > 0; pending-- {
		select {
		case res := <-results:
			c := componentStatus{Status: statusHealthy, LatencyMS: res.latency.Milliseconds()}
			if res.err != nil {
				c.Status = statusUnhealthy
				c.Message = res.err.Error()
			}
			components[probes[res.index].Name()] = c
		case <-ctx.Done():
			return components
		}
	}
	return components
}

func checkProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}

func (s *Server) version() string {
	if s.Config == nil {
		return ""
	}
	return s.Config.Build.Version
}
