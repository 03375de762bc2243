package usecase

import (
	"context"
	"log/slog"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

// HealthService aggregates liveness across the three backing systems.
// A probe failure degrades the report; it never errors the check.
type HealthService struct {
	Ledger  LedgerClient
	Content ContentStore
	Blobs   BlobStore
	Logger  *slog.Logger
}

func (s *HealthService) Check(ctx context.Context) *domain.HealthReport {
	report := &domain.HealthReport{OK: true}

	if s.Ledger != nil {
		report.Ledger = s.Ledger.HealthCheck(ctx)
		for _, up := range report.Ledger {
			if !up {
				report.OK = false
			}
		}
	}

	if s.Content != nil {
		info, err := s.Content.Info(ctx)
		if err != nil {
			s.logger().Warn("cluster health probe failed", "err", err)
			report.OK = false
		} else {
			report.Cluster = info
		}
	}

	if s.Blobs != nil {
		stats, err := s.Blobs.Stats()
		if err != nil {
			s.logger().Warn("blob store stats failed", "err", err)
			report.OK = false
		} else {
			report.Storage = stats
		}
	}

	return report
}

func (s *HealthService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
