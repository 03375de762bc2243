package domain

import (
	"context"
	"time"
)

const (
	OrphanKindContent = "content"
	OrphanKindBlob    = "blob"
)

// OrphanedArtifact is one partial-failure leftover: a content address
// pinned in the cluster with no matching ledger record, or a local
// blob detached from a now-absent record. Entries are reconciled out
// of band, never by the request path.
type OrphanedArtifact struct {
	Kind          string
	Reference     string
	Operation     string
	CertificateID string
	Reason        string
	CreatedAt     time.Time
}

type OrphanRepository interface {
	Append(ctx context.Context, orphan OrphanedArtifact) error
	ListUnresolved(ctx context.Context) ([]OrphanedArtifact, error)
}
