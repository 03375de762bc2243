package usecase

import (
	"context"
	"encoding/json"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

// LedgerClient is the chaincode surface of the access-token broker.
type LedgerClient interface {
	Invoke(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error)
	Query(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error)
	HealthCheck(ctx context.Context) map[string]bool
}

// AdminTokenSource supplies the cached per-organization admin token
// for calls that arrive without a caller token.
type AdminTokenSource interface {
	AdminToken(ctx context.Context, org string) (string, error)
}

// ContentPlacement is the result of placing bytes in the cluster.
type ContentPlacement struct {
	Address string
	URL     string
}

// ContentStore is the storage-cluster surface the orchestrator needs.
// Pin and Unpin are best-effort booleans by contract: a false return
// never aborts an operation on its own.
type ContentStore interface {
	Add(ctx context.Context, data []byte, filename string) (*ContentPlacement, error)
	Pin(ctx context.Context, addr string) bool
	Unpin(ctx context.Context, addr string) bool
	GatewayURL(addr string) string
	Info(ctx context.Context) (*domain.ClusterInfo, error)
}

// BlobStore is the local image store surface. Save returns the
// generated handle; the uploaded filename is advisory only.
type BlobStore interface {
	SavePhoto(data []byte, filename string) (string, error)
	SaveSignature(data []byte, filename string) (string, error)
	GetPhoto(ref string) ([]byte, error)
	GetSignature(ref string) ([]byte, error)
	DeletePhoto(ref string) bool
	DeleteSignature(ref string) bool
	PhotoExists(ref string) bool
	SignatureExists(ref string) bool
	Stats() (*domain.StorageStats, error)
}

type CertificateRenderer interface {
	Render(cert domain.Certificate, photo, signature []byte) ([]byte, error)
}

type AccessAuthorizer interface {
	Authorize(ctx context.Context, req domain.AccessRequest) (bool, error)
}
