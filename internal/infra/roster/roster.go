// Package roster resolves holders by NIM against a static reference
// file. It is an external collaborator: nothing here reads or writes
// ledger state, and entries may disagree with issued certificates.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

type FileRoster struct {
	entries map[string]domain.RosterEntry
}

func LoadFile(path string) (*FileRoster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var entries []domain.RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	index := make(map[string]domain.RosterEntry, len(entries))
	for _, entry := range entries {
		if entry.NIM == "" {
			continue
		}
		index[entry.NIM] = entry
	}
	return &FileRoster{entries: index}, nil
}

func (r *FileRoster) FindByNIM(ctx context.Context, nim string) (*domain.RosterEntry, error) {
	entry, ok := r.entries[nim]
	if !ok {
		return nil, fmt.Errorf("%w: nim %s", domain.ErrNotFound, nim)
	}
	return &entry, nil
}

var _ domain.RosterSource = (*FileRoster)(nil)
