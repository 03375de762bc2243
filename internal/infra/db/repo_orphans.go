package db

import (
	"context"
	"errors"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"

	"gorm.io/gorm"
)

// OrphanRepository is the append-only journal of partial-failure
// artifacts awaiting out-of-band reconciliation.
type OrphanRepository struct {
	db *gorm.DB
}

func NewOrphanRepository(db *gorm.DB) *OrphanRepository {
	return &OrphanRepository{db: db}
}

func (r *OrphanRepository) Append(ctx context.Context, orphan domain.OrphanedArtifact) error {
	if orphan.Kind == "" {
		return errors.New("kind is required")
	}
	if orphan.Reference == "" {
		return errors.New("reference is required")
	}
	if orphan.Operation == "" {
		return errors.New("operation is required")
	}
	if r.db == nil {
		return errDBUnavailable
	}
	id, err := newUUID()
	if err != nil {
		return err
	}
	model := OrphanedArtifactModel{
		ID:            id,
		Kind:          orphan.Kind,
		Reference:     orphan.Reference,
		Operation:     orphan.Operation,
		CertificateID: orphan.CertificateID,
		Reason:        orphan.Reason,
		CreatedAt:     time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *OrphanRepository) ListUnresolved(ctx context.Context) ([]domain.OrphanedArtifact, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []OrphanedArtifactModel
	if err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.OrphanedArtifact, 0, len(models))
	for _, model := range models {
		out = append(out, domain.OrphanedArtifact{
			Kind:          model.Kind,
			Reference:     model.Reference,
			Operation:     model.Operation,
			CertificateID: model.CertificateID,
			Reason:        model.Reason,
			CreatedAt:     model.CreatedAt,
		})
	}
	return out, nil
}

var _ domain.OrphanRepository = (*OrphanRepository)(nil)
