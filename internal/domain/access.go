package domain

const (
	ResourceCertificate = "certificate"
	ResourceSignature   = "signature"
)

// AccessRequest is the authorization question the orchestrator asks
// before any write: may this organization perform this operation on
// this resource kind.
type AccessRequest struct {
	Organization string `json:"organization"`
	Resource     string `json:"resource"`
	Operation    string `json:"operation"`
}
