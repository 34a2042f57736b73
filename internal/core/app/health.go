package app

import (
	"context"
	"fmt"
	"time"

	"scopelens/internal/core/ports"
	"scopelens/internal/shared/util"
)

const (
	// warnHeapMB marks the service degraded once the heap grows past it.
	warnHeapMB = 1024
	stuckParse = 30 * time.Second
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	analyzer := s.app.Analyzer()
	if analyzer == nil {
		status.Status = "down"
		status.Components["analyzer"] = "missing"
		return status
	}
	status.Components["analyzer"] = fmt.Sprintf("ok (loader %s)", analyzer.Loader())

	if analyzer.parser != nil {
		status.Components["parser"] = fmt.Sprintf("ok (%d leased)", analyzer.parser.Leased())
		if age := analyzer.parser.OldestLease(); age > stuckParse {
			status.Status = "degraded"
			status.Components["parser"] = fmt.Sprintf("stuck (lease held %s)", age.Round(time.Second))
		}
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	if n := analyzer.Ambient().Len(); n > 0 {
		status.Components["ambient"] = fmt.Sprintf("ok (%d names)", n)
	} else {
		status.Status = "degraded"
		status.Components["ambient"] = "empty"
	}

	heap := util.GetHeapAllocMB()
	status.Components["heap"] = fmt.Sprintf("%d MB", heap)
	if heap > warnHeapMB {
		status.Status = "degraded"
	}

	if err := ctx.Err(); err != nil {
		status.Status = "degraded"
		status.Components["context"] = err.Error()
	}
	return status
}
