package app

import (
	"context"

	"scopelens/internal/core/errors"
	"scopelens/internal/core/ports"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (*ports.Result, error) {
	analyzer, err := s.app.Analyzer().WithLoader(req.Loader)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "analyze")
	}
	res, err := analyzer.Parse(ctx, req.Source)
	if err != nil {
		if req.Path != "" {
			err = errors.AddContext(err, errors.CtxPath, req.Path)
		}
		return nil, err
	}
	return res, nil
}

func (s *analysisService) Health(ctx context.Context) ports.HealthStatus {
	return NewHealthService(s.app).Check(ctx)
}
