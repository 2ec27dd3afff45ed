package app

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Session    string            `json:"session"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Session:    s.app.ID(),
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.Index == nil {
		status.Status = "degraded"
		status.Components["token_index"] = "missing"
	} else {
		status.Components["token_index"] = fmt.Sprintf("ok (%d documents)", s.app.Index.Len())
	}

	if s.app.Symbols != nil {
		status.Components["symbol_store"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["symbol_store"] = "missing"
	}

	if path, err := exec.LookPath(s.app.Config.Backend.ExePath); err != nil {
		status.Status = "degraded"
		status.Components["backend"] = fmt.Sprintf("not found: %s", s.app.Config.Backend.ExePath)
	} else {
		status.Components["backend"] = "ok (" + path + ")"
	}

	status.Components["heap_mb"] = fmt.Sprintf("%d", heapAllocMB())
	return status
}

func heapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}
