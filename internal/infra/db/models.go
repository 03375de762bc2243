package db

import "time"

type OrphanedArtifactModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Kind          string `gorm:"index;not null"`
	Reference     string `gorm:"index;not null"`
	Operation     string `gorm:"not null"`
	CertificateID string `gorm:"index"`
	Reason        string
	Resolved      bool      `gorm:"index;not null;default:false"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (OrphanedArtifactModel) TableName() string {
	return "orphaned_artifacts"
}
