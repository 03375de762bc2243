package domain

import "context"

const (
	CertificateStatusActive   = "active"
	CertificateStatusInactive = "inactive"
)

const (
	CertificateIDPrefix = "ijazah_"
	SignatureIDPrefix   = "signature_"
)

// Certificate is the ledger-anchored record of one issued academic
// certificate. The ledger copy is canonical; the rendered PDF in the
// storage cluster and the photo in the local blob store are derived,
// regenerable artifacts keyed by ContentAddress and PhotoReference.
type Certificate struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	NIM               string `json:"nim"`
	StudyProgram      string `json:"studyProgram"`
	Faculty           string `json:"faculty"`
	CertificateNumber string `json:"certificateNumber"`
	GraduationDate    string `json:"graduationDate"`

	ContentAddress string `json:"contentAddress"`
	SignatureID    string `json:"signatureID"`
	PhotoReference string `json:"photoReference"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// CertificateRecord is a Certificate enriched with the derived
// read-side URLs callers use to fetch the artifacts.
type CertificateRecord struct {
	Certificate
	CertificateURL string `json:"certificateURL,omitempty"`
	PhotoURL       string `json:"photoURL,omitempty"`
}

// Signature is the ledger record of one signing-authority signature
// image. At most one signature is active at a time; the chaincode
// enforces the transition atomically.
type Signature struct {
	ID               string `json:"id"`
	ContentReference string `json:"contentReference"`
	IsActive         bool   `json:"isActive"`
	Owner            string `json:"owner"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type RosterEntry struct {
	NIM          string `json:"nim"`
	Name         string `json:"name"`
	StudyProgram string `json:"studyProgram"`
	Faculty      string `json:"faculty"`
}

// RosterSource resolves holders by NIM against a static reference
// roster. It is an external collaborator, deliberately disconnected
// from ledger state.
type RosterSource interface {
	FindByNIM(ctx context.Context, nim string) (*RosterEntry, error)
}
