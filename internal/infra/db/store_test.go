package db

import (
	"context"
	"testing"

	"github.com/nas11ai/tugas-akhir-sub000/internal/config"
	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

func TestNewStoreWithoutDSNRunsNoDBMode(t *testing.T) {
	store, err := NewStore(config.Config{}, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.DB != nil {
		t.Errorf("DB = %v, want nil in no-db mode", store.DB)
	}
}

func TestOrphanRepositoryNilDB(t *testing.T) {
	repo := NewOrphanRepository(nil)
	ctx := context.Background()

	err := repo.Append(ctx, domain.OrphanedArtifact{
		Kind:      domain.OrphanKindContent,
		Reference: "QmX",
		Operation: "create certificate",
	})
	if err == nil {
		t.Errorf("Append on nil db succeeded")
	}
	if _, err := repo.ListUnresolved(ctx); err == nil {
		t.Errorf("ListUnresolved on nil db succeeded")
	}
}

func TestOrphanRepositoryValidation(t *testing.T) {
	repo := NewOrphanRepository(nil)
	ctx := context.Background()

	cases := []domain.OrphanedArtifact{
		{Reference: "QmX", Operation: "op"},
		{Kind: domain.OrphanKindBlob, Operation: "op"},
		{Kind: domain.OrphanKindBlob, Reference: "a.png"},
	}
	for _, orphan := range cases {
		if err := repo.Append(ctx, orphan); err == nil {
			t.Errorf("Append(%+v) succeeded, want validation error", orphan)
		}
	}
}
