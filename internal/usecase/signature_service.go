package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

const (
	methodCreateSignature     = "CreateSignature"
	methodUpdateSignature     = "UpdateSignature"
	methodDeleteSignature     = "DeleteSignature"
	methodSetActiveSignature  = "SetActiveSignature"
	methodDeactivateSignature = "DeactivateSignature"
	methodGetActiveSignature  = "GetActiveSignature"
	methodGetSignature        = "GetSignature"
	methodGetAllSignatures    = "GetAllSignatures"
)

// SignatureService manages authority signature records on the ledger
// and their images in the local blob store. Activation is exclusive:
// the chaincode flips the previously active record inside the same
// SetActiveSignature transaction, so the service never issues a
// read-deactivate-activate sequence of its own.
type SignatureService struct {
	Ledger LedgerClient
	Admin  AdminTokenSource
	Blobs  BlobStore
	Access AccessAuthorizer

	Channel   string
	Chaincode string
	Logger    *slog.Logger
	Clock     func() time.Time
	NewID     func() string
}

type CreateSignatureRequest struct {
	Organization string
	Token        string
	Signature    domain.Signature
	Image        []byte
	ImageName    string
}

type UpdateSignatureRequest struct {
	Organization string
	Token        string
	ID           string
	Fields       domain.Signature
	Image        []byte
	ImageName    string
}

// Create registers a signature record. The image is optional: callers
// may instead name an already-stored blob via ContentReference.
func (s *SignatureService) Create(ctx context.Context, req CreateSignatureRequest) (*domain.Signature, error) {
	if err := s.authorize(ctx, req.Organization, "create"); err != nil {
		return nil, err
	}
	token, err := s.resolveToken(ctx, req.Organization, req.Token)
	if err != nil {
		return nil, err
	}
	sig := req.Signature
	if len(req.Image) > 0 {
		name, err := s.Blobs.SaveSignature(req.Image, req.ImageName)
		if err != nil {
			return nil, err
		}
		sig.ContentReference = name
	}
	if sig.ContentReference == "" {
		return nil, fmt.Errorf("%w: signature image or content reference is required", domain.ErrValidation)
	}

	now := s.now().UTC().Format(time.RFC3339)
	sig.ID = s.newID()
	sig.Owner = req.Organization
	sig.CreatedAt = now
	sig.UpdatedAt = now

	if err := s.invokeRecord(ctx, req.Organization, token, methodCreateSignature, sig); err != nil {
		if len(req.Image) > 0 && !s.Blobs.DeleteSignature(sig.ContentReference) {
			s.logger().Warn("signature blob cleanup failed", "ref", sig.ContentReference)
		}
		return nil, err
	}
	return &sig, nil
}

func (s *SignatureService) Update(ctx context.Context, req UpdateSignatureRequest) (*domain.Signature, error) {
	if err := s.authorize(ctx, req.Organization, "update"); err != nil {
		return nil, err
	}
	token, err := s.resolveToken(ctx, req.Organization, req.Token)
	if err != nil {
		return nil, err
	}
	existing, err := s.signatureByID(ctx, req.Organization, token, req.ID)
	if err != nil {
		return nil, err
	}
	merged := *existing
	if req.Fields.ContentReference != "" {
		merged.ContentReference = req.Fields.ContentReference
	}
	if len(req.Image) > 0 {
		if existing.ContentReference != "" && !s.Blobs.DeleteSignature(existing.ContentReference) {
			s.logger().Warn("stale signature blob delete failed", "ref", existing.ContentReference)
		}
		name, err := s.Blobs.SaveSignature(req.Image, req.ImageName)
		if err != nil {
			return nil, err
		}
		merged.ContentReference = name
	}
	merged.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.invokeRecord(ctx, req.Organization, token, methodUpdateSignature, merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Delete removes the ledger record; the blob removal afterwards is
// best-effort and never fails the call.
func (s *SignatureService) Delete(ctx context.Context, org, token, id string) error {
	if err := s.authorize(ctx, org, "delete"); err != nil {
		return err
	}
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return err
	}
	existing, err := s.signatureByID(ctx, org, token, id)
	if err != nil {
		s.logger().Warn("fetch before delete failed, skipping blob cleanup", "id", id, "err", err)
	}
	if _, err := s.Ledger.Invoke(ctx, org, token, s.Channel, s.Chaincode, methodDeleteSignature, []string{id}); err != nil {
		return err
	}
	if existing != nil && existing.ContentReference != "" && !s.Blobs.DeleteSignature(existing.ContentReference) {
		s.logger().Warn("signature blob delete failed", "ref", existing.ContentReference)
	}
	return nil
}

// SetActive makes id the single active signature. Exclusivity is
// enforced by the chaincode transaction, not by client-side reads.
func (s *SignatureService) SetActive(ctx context.Context, org, token, id string) error {
	if err := s.authorize(ctx, org, "update"); err != nil {
		return err
	}
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return err
	}
	_, err = s.Ledger.Invoke(ctx, org, token, s.Channel, s.Chaincode, methodSetActiveSignature, []string{id})
	return err
}

func (s *SignatureService) Deactivate(ctx context.Context, org, token, id string) error {
	if err := s.authorize(ctx, org, "update"); err != nil {
		return err
	}
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return err
	}
	_, err = s.Ledger.Invoke(ctx, org, token, s.Channel, s.Chaincode, methodDeactivateSignature, []string{id})
	return err
}

func (s *SignatureService) Get(ctx context.Context, org, token, id string) (*domain.Signature, error) {
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return nil, err
	}
	return s.signatureByID(ctx, org, token, id)
}

func (s *SignatureService) GetActive(ctx context.Context, org, token string) (*domain.Signature, error) {
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetActiveSignature, nil)
	if err != nil {
		return nil, err
	}
	var sig domain.Signature
	if len(resp) == 0 || json.Unmarshal(resp, &sig) != nil || sig.ID == "" {
		return nil, fmt.Errorf("%w: no active signature", domain.ErrNotFound)
	}
	return &sig, nil
}

func (s *SignatureService) GetAll(ctx context.Context, org, token string) ([]domain.Signature, error) {
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetAllSignatures, nil)
	if err != nil {
		return nil, err
	}
	var sigs []domain.Signature
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &sigs); err != nil {
			return nil, fmt.Errorf("%w: decode signatures: %v", domain.ErrLedger, err)
		}
	}
	return sigs, nil
}

func (s *SignatureService) signatureByID(ctx context.Context, org, token, id string) (*domain.Signature, error) {
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetSignature, []string{id})
	if err != nil {
		return nil, fmt.Errorf("%w: signature %s: %v", domain.ErrNotFound, id, err)
	}
	var sig domain.Signature
	if len(resp) == 0 || json.Unmarshal(resp, &sig) != nil || sig.ID == "" {
		return nil, fmt.Errorf("%w: signature %s", domain.ErrNotFound, id)
	}
	return &sig, nil
}

func (s *SignatureService) invokeRecord(ctx context.Context, org, token, method string, sig domain.Signature) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", domain.ErrLedger, err)
	}
	_, err = s.Ledger.Invoke(ctx, org, token, s.Channel, s.Chaincode, method, []string{string(payload)})
	return err
}

func (s *SignatureService) authorize(ctx context.Context, org, operation string) error {
	if s.Access == nil {
		return nil
	}
	allowed, err := s.Access.Authorize(ctx, domain.AccessRequest{
		Organization: org,
		Resource:     domain.ResourceSignature,
		Operation:    operation,
	})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: organization %q may not %s signatures", domain.ErrAccessDenied, org, operation)
	}
	return nil
}

func (s *SignatureService) resolveToken(ctx context.Context, org, token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if s.Admin == nil {
		return "", domain.ErrAdminTokenUnavailable
	}
	return s.Admin.AdminToken(ctx, org)
}

func (s *SignatureService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *SignatureService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *SignatureService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return newEntityID(domain.SignatureIDPrefix)
}
