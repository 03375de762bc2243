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
	methodCreateCertificate = "CreateIjazah"
	methodUpdateCertificate = "UpdateIjazah"
	methodDeleteCertificate = "DeleteIjazah"
	methodReadCertificate   = "ReadIjazah"
	methodGetAllCertificate = "GetAllIjazah"
)

// CertificateService orchestrates certificate lifecycle operations
// across the ledger, the storage cluster, and the local blob store.
// The three stores share no transaction boundary: each saga step
// commits independently and rollback is the declared, best-effort
// compensation on the step itself.
type CertificateService struct {
	Ledger   LedgerClient
	Admin    AdminTokenSource
	Content  ContentStore
	Blobs    BlobStore
	Renderer CertificateRenderer
	Access   AccessAuthorizer
	Orphans  domain.OrphanRepository
	Roster   domain.RosterSource

	Channel   string
	Chaincode string
	Logger    *slog.Logger
	Clock     func() time.Time
	NewID     func() string
}

type CreateCertificateRequest struct {
	Organization  string
	Token         string
	Certificate   domain.Certificate
	Photo         []byte
	PhotoFilename string
}

type UpdateCertificateRequest struct {
	Organization  string
	Token         string
	ID            string
	Fields        domain.Certificate
	Photo         []byte
	PhotoFilename string
}

type DeleteCertificateRequest struct {
	Organization string
	Token        string
	ID           string
}

// Create issues a certificate: photo to the blob store, rendered PDF
// to the cluster (add + pin), record to the ledger. Validation happens
// before any side effect; a pin failure is logged only; a ledger
// failure after the pin surfaces as a PartialFailure carrying the
// orphaned content address.
func (s *CertificateService) Create(ctx context.Context, req CreateCertificateRequest) (*domain.CertificateRecord, error) {
	if err := s.authorize(ctx, req.Organization, domain.ResourceCertificate, "create"); err != nil {
		return nil, err
	}
	if len(req.Photo) == 0 {
		return nil, fmt.Errorf("%w: photo is required", domain.ErrValidation)
	}
	token, err := s.resolveToken(ctx, req.Organization, req.Token)
	if err != nil {
		return nil, err
	}
	active, err := s.activeSignature(ctx, req.Organization, token)
	if err != nil {
		return nil, err
	}
	sigBytes, err := s.Blobs.GetSignature(active.ContentReference)
	if err != nil {
		return nil, fmt.Errorf("%w: signature image %s: %v", domain.ErrGeneration, active.ContentReference, err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	cert := req.Certificate
	cert.ID = s.newID()
	cert.SignatureID = active.ID
	cert.Status = domain.CertificateStatusActive
	cert.CreatedAt = now
	cert.UpdatedAt = now

	var (
		photoName string
		pdfBytes  []byte
		placement *ContentPlacement
	)
	steps := []SagaStep{
		{
			Name: "save photo",
			Run: func(ctx context.Context) error {
				name, err := s.Blobs.SavePhoto(req.Photo, req.PhotoFilename)
				if err != nil {
					return err
				}
				photoName = name
				cert.PhotoReference = name
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if !s.Blobs.DeletePhoto(photoName) {
					s.journalOrphan(ctx, domain.OrphanKindBlob, photoName, "create certificate", cert.ID, "compensation delete failed")
				}
				return nil
			},
		},
		{
			Name: "render pdf",
			Run: func(ctx context.Context) error {
				photoBytes, err := s.Blobs.GetPhoto(photoName)
				if err != nil {
					return fmt.Errorf("%w: photo %s: %v", domain.ErrGeneration, photoName, err)
				}
				out, err := s.Renderer.Render(cert, photoBytes, sigBytes)
				if err != nil {
					return err
				}
				pdfBytes = out
				return nil
			},
		},
		{
			Name: "upload and pin",
			Run: func(ctx context.Context) error {
				placed, err := s.Content.Add(ctx, pdfBytes, cert.ID+".pdf")
				if err != nil {
					return err
				}
				placement = placed
				cert.ContentAddress = placed.Address
				if !s.Content.Pin(ctx, placed.Address) {
					s.logger().Warn("pin failed, continuing", "contentAddress", placed.Address)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				// Pinned content is never auto-unpinned; the journal
				// hands it to the out-of-band reconciler instead.
				s.journalOrphan(ctx, domain.OrphanKindContent, placement.Address, "create certificate", cert.ID, "no ledger record")
				return nil
			},
		},
		{
			Name: "ledger create",
			Run: func(ctx context.Context) error {
				return s.invokeRecord(ctx, req.Organization, token, methodCreateCertificate, cert)
			},
		},
	}
	if step, err := RunSaga(ctx, s.Logger, "create certificate", steps); err != nil {
		if step == "ledger create" && placement != nil {
			return nil, &domain.PartialFailure{
				Op:                     "create certificate",
				OrphanedContentAddress: placement.Address,
				Err:                    err,
			}
		}
		return nil, err
	}
	record := s.enrich(cert)
	return &record, nil
}

// Update regenerates the PDF from merged fields and replaces the
// cluster artifact. Old-blob deletion and old-address unpinning are
// best-effort on every path; only the ledger call can fail the
// operation once validation has passed.
func (s *CertificateService) Update(ctx context.Context, req UpdateCertificateRequest) (*domain.CertificateRecord, error) {
	if err := s.authorize(ctx, req.Organization, domain.ResourceCertificate, "update"); err != nil {
		return nil, err
	}
	token, err := s.resolveToken(ctx, req.Organization, req.Token)
	if err != nil {
		return nil, err
	}
	existing, err := s.certificateByID(ctx, req.Organization, token, req.ID)
	if err != nil {
		return nil, err
	}
	merged := mergeCertificate(*existing, req.Fields)
	merged.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	sigBytes := s.signatureImage(ctx, req.Organization, token, merged.SignatureID)

	var (
		newPhotoName string
		pdfBytes     []byte
		placement    *ContentPlacement
	)
	steps := []SagaStep{
		{
			Name: "replace photo",
			Run: func(ctx context.Context) error {
				if len(req.Photo) == 0 {
					return nil
				}
				if existing.PhotoReference != "" && !s.Blobs.DeletePhoto(existing.PhotoReference) {
					s.journalOrphan(ctx, domain.OrphanKindBlob, existing.PhotoReference, "update certificate", merged.ID, "stale photo delete failed")
				}
				name, err := s.Blobs.SavePhoto(req.Photo, req.PhotoFilename)
				if err != nil {
					return err
				}
				newPhotoName = name
				merged.PhotoReference = name
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if newPhotoName != "" && !s.Blobs.DeletePhoto(newPhotoName) {
					s.journalOrphan(ctx, domain.OrphanKindBlob, newPhotoName, "update certificate", merged.ID, "compensation delete failed")
				}
				return nil
			},
		},
		{
			Name: "render pdf",
			Run: func(ctx context.Context) error {
				photoBytes, err := s.Blobs.GetPhoto(merged.PhotoReference)
				if err != nil {
					return fmt.Errorf("%w: photo %s: %v", domain.ErrGeneration, merged.PhotoReference, err)
				}
				out, err := s.Renderer.Render(merged, photoBytes, sigBytes)
				if err != nil {
					return err
				}
				pdfBytes = out
				return nil
			},
		},
		{
			Name: "unpin previous",
			Run: func(ctx context.Context) error {
				if existing.ContentAddress != "" && !s.Content.Unpin(ctx, existing.ContentAddress) {
					s.journalOrphan(ctx, domain.OrphanKindContent, existing.ContentAddress, "update certificate", merged.ID, "stale content unpin failed")
				}
				return nil
			},
		},
		{
			Name: "upload and pin",
			Run: func(ctx context.Context) error {
				placed, err := s.Content.Add(ctx, pdfBytes, merged.ID+".pdf")
				if err != nil {
					return err
				}
				placement = placed
				merged.ContentAddress = placed.Address
				if !s.Content.Pin(ctx, placed.Address) {
					s.logger().Warn("pin failed, continuing", "contentAddress", placed.Address)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				s.journalOrphan(ctx, domain.OrphanKindContent, placement.Address, "update certificate", merged.ID, "no ledger record")
				return nil
			},
		},
		{
			Name: "ledger update",
			Run: func(ctx context.Context) error {
				return s.invokeRecord(ctx, req.Organization, token, methodUpdateCertificate, merged)
			},
		},
	}
	if step, err := RunSaga(ctx, s.Logger, "update certificate", steps); err != nil {
		if step == "ledger update" && placement != nil {
			return nil, &domain.PartialFailure{
				Op:                     "update certificate",
				OrphanedContentAddress: placement.Address,
				Err:                    err,
			}
		}
		return nil, err
	}
	record := s.enrich(merged)
	return &record, nil
}

// Delete revokes a certificate. Cleanup of the cluster artifact and
// the local photo is opportunistic; success is defined solely by the
// ledger call.
func (s *CertificateService) Delete(ctx context.Context, req DeleteCertificateRequest) error {
	if err := s.authorize(ctx, req.Organization, domain.ResourceCertificate, "delete"); err != nil {
		return err
	}
	token, err := s.resolveToken(ctx, req.Organization, req.Token)
	if err != nil {
		return err
	}
	existing, err := s.certificateByID(ctx, req.Organization, token, req.ID)
	if err != nil {
		s.logger().Warn("fetch before delete failed, skipping cleanup", "id", req.ID, "err", err)
	}
	if existing != nil {
		if existing.ContentAddress != "" && !s.Content.Unpin(ctx, existing.ContentAddress) {
			s.journalOrphan(ctx, domain.OrphanKindContent, existing.ContentAddress, "delete certificate", req.ID, "unpin failed")
		}
		if existing.PhotoReference != "" && !s.Blobs.DeletePhoto(existing.PhotoReference) {
			s.journalOrphan(ctx, domain.OrphanKindBlob, existing.PhotoReference, "delete certificate", req.ID, "photo delete failed")
		}
	}
	_, err = s.Ledger.Invoke(ctx, req.Organization, token, s.Channel, s.Chaincode, methodDeleteCertificate, []string{req.ID})
	return err
}

func (s *CertificateService) Get(ctx context.Context, org, token, id string) (*domain.CertificateRecord, error) {
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return nil, err
	}
	cert, err := s.certificateByID(ctx, org, token, id)
	if err != nil {
		return nil, err
	}
	record := s.enrich(*cert)
	return &record, nil
}

func (s *CertificateService) GetAll(ctx context.Context, org, token string) ([]domain.CertificateRecord, error) {
	token, err := s.resolveToken(ctx, org, token)
	if err != nil {
		return nil, err
	}
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetAllCertificate, nil)
	if err != nil {
		return nil, err
	}
	var certs []domain.Certificate
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &certs); err != nil {
			return nil, fmt.Errorf("%w: decode certificates: %v", domain.ErrLedger, err)
		}
	}
	records := make([]domain.CertificateRecord, 0, len(certs))
	for _, cert := range certs {
		records = append(records, s.enrich(cert))
	}
	return records, nil
}

// FindByNIM resolves against the static reference roster, not the
// ledger.
func (s *CertificateService) FindByNIM(ctx context.Context, nim string) (*domain.RosterEntry, error) {
	if s.Roster == nil {
		return nil, fmt.Errorf("%w: roster not configured", domain.ErrNotFound)
	}
	return s.Roster.FindByNIM(ctx, nim)
}

func (s *CertificateService) certificateByID(ctx context.Context, org, token, id string) (*domain.Certificate, error) {
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodReadCertificate, []string{id})
	if err != nil {
		return nil, fmt.Errorf("%w: certificate %s: %v", domain.ErrNotFound, id, err)
	}
	var cert domain.Certificate
	if len(resp) == 0 || json.Unmarshal(resp, &cert) != nil || cert.ID == "" {
		return nil, fmt.Errorf("%w: certificate %s", domain.ErrNotFound, id)
	}
	return &cert, nil
}

func (s *CertificateService) activeSignature(ctx context.Context, org, token string) (*domain.Signature, error) {
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetActiveSignature, nil)
	if err != nil {
		return nil, err
	}
	var sig domain.Signature
	if len(resp) == 0 || json.Unmarshal(resp, &sig) != nil || sig.ID == "" {
		return nil, fmt.Errorf("%w: no active signature", domain.ErrValidation)
	}
	return &sig, nil
}

// signatureImage loads the signature image for re-rendering during an
// update. Any lookup or blob failure degrades to an unsigned render;
// only the create path treats a missing signature image as fatal.
func (s *CertificateService) signatureImage(ctx context.Context, org, token, signatureID string) []byte {
	if signatureID == "" {
		return nil
	}
	resp, err := s.Ledger.Query(ctx, org, token, s.Channel, s.Chaincode, methodGetSignature, []string{signatureID})
	if err != nil {
		s.logger().Warn("signature lookup failed, rendering unsigned", "signatureID", signatureID, "err", err)
		return nil
	}
	var sig domain.Signature
	if len(resp) == 0 || json.Unmarshal(resp, &sig) != nil || sig.ContentReference == "" {
		return nil
	}
	data, err := s.Blobs.GetSignature(sig.ContentReference)
	if err != nil {
		s.logger().Warn("signature image missing, rendering unsigned", "ref", sig.ContentReference, "err", err)
		return nil
	}
	return data
}

func (s *CertificateService) invokeRecord(ctx context.Context, org, token, method string, cert domain.Certificate) error {
	payload, err := json.Marshal(cert)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", domain.ErrLedger, err)
	}
	_, err = s.Ledger.Invoke(ctx, org, token, s.Channel, s.Chaincode, method, []string{string(payload)})
	return err
}

func (s *CertificateService) enrich(cert domain.Certificate) domain.CertificateRecord {
	record := domain.CertificateRecord{Certificate: cert}
	if cert.ContentAddress != "" {
		record.CertificateURL = s.Content.GatewayURL(cert.ContentAddress)
	}
	if cert.PhotoReference != "" {
		record.PhotoURL = "/api/files/photos/" + cert.PhotoReference
	}
	return record
}

func (s *CertificateService) authorize(ctx context.Context, org, resource, operation string) error {
	if s.Access == nil {
		return nil
	}
	allowed, err := s.Access.Authorize(ctx, domain.AccessRequest{
		Organization: org,
		Resource:     resource,
		Operation:    operation,
	})
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: organization %q may not %s %s", domain.ErrAccessDenied, org, operation, resource)
	}
	return nil
}

func (s *CertificateService) resolveToken(ctx context.Context, org, token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if s.Admin == nil {
		return "", domain.ErrAdminTokenUnavailable
	}
	return s.Admin.AdminToken(ctx, org)
}

// journalOrphan records a partial-failure artifact for out-of-band
// reconciliation. It never fails the calling operation.
func (s *CertificateService) journalOrphan(ctx context.Context, kind, ref, op, certID, reason string) {
	s.logger().Warn("orphaned artifact", "kind", kind, "ref", ref, "op", op, "certificateID", certID, "reason", reason)
	if s.Orphans == nil {
		return
	}
	err := s.Orphans.Append(ctx, domain.OrphanedArtifact{
		Kind:          kind,
		Reference:     ref,
		Operation:     op,
		CertificateID: certID,
		Reason:        reason,
	})
	if err != nil {
		s.logger().Warn("orphan journal append failed", "ref", ref, "err", err)
	}
}

func (s *CertificateService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *CertificateService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *CertificateService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return newEntityID(domain.CertificateIDPrefix)
}

func mergeCertificate(existing, incoming domain.Certificate) domain.Certificate {
	merged := existing
	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.NIM != "" {
		merged.NIM = incoming.NIM
	}
	if incoming.StudyProgram != "" {
		merged.StudyProgram = incoming.StudyProgram
	}
	if incoming.Faculty != "" {
		merged.Faculty = incoming.Faculty
	}
	if incoming.CertificateNumber != "" {
		merged.CertificateNumber = incoming.CertificateNumber
	}
	if incoming.GraduationDate != "" {
		merged.GraduationDate = incoming.GraduationDate
	}
	if incoming.SignatureID != "" {
		merged.SignatureID = incoming.SignatureID
	}
	if incoming.Status != "" {
		merged.Status = incoming.Status
	}
	return merged
}
