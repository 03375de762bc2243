package ipfscluster

import (
	"context"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
	"github.com/nas11ai/tugas-akhir-sub000/internal/usecase"
)

// ContentAdapter narrows Client to the surface the orchestrator needs.
type ContentAdapter struct {
	Client *Client
}

func (a *ContentAdapter) Add(ctx context.Context, data []byte, filename string) (*usecase.ContentPlacement, error) {
	result, err := a.Client.Add(ctx, data, AddOptions{
		Filename: filename,
		Local:    true,
	})
	if err != nil {
		return nil, err
	}
	return &usecase.ContentPlacement{Address: result.ContentAddress, URL: result.URL}, nil
}

func (a *ContentAdapter) Pin(ctx context.Context, addr string) bool {
	return a.Client.Pin(ctx, addr)
}

func (a *ContentAdapter) Unpin(ctx context.Context, addr string) bool {
	return a.Client.Unpin(ctx, addr)
}

func (a *ContentAdapter) GatewayURL(addr string) string {
	return a.Client.GatewayURL(addr)
}

func (a *ContentAdapter) Info(ctx context.Context) (*domain.ClusterInfo, error) {
	return a.Client.Info(ctx)
}

var _ usecase.ContentStore = (*ContentAdapter)(nil)
