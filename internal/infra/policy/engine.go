// Package policy evaluates write authorization with an embedded rego
// policy: certificate writes belong to the issuing organization,
// signature writes to the signing organization.
package policy

import (
	"context"
	"errors"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"

	"github.com/open-policy-agent/opa/rego"
)

const authzModule = `package ijazah.authz

default allow = false

allow {
	input.resource == "certificate"
	input.organization == input.issuer_org
}

allow {
	input.resource == "signature"
	input.organization == input.signer_org
}
`

const authzQuery = "data.ijazah.authz.allow"

type Engine struct {
	query     rego.PreparedEvalQuery
	issuerOrg string
	signerOrg string
}

func NewEngine(ctx context.Context, issuerOrg, signerOrg string) (*Engine, error) {
	if issuerOrg == "" || signerOrg == "" {
		return nil, errors.New("issuer and signer organizations are required")
	}
	prepared, err := rego.New(
		rego.Query(authzQuery),
		rego.Module("authz.rego", authzModule),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared, issuerOrg: issuerOrg, signerOrg: signerOrg}, nil
}

func (e *Engine) Authorize(ctx context.Context, req domain.AccessRequest) (bool, error) {
	if e == nil {
		return false, errors.New("policy engine is nil")
	}
	input := map[string]any{
		"organization": req.Organization,
		"resource":     req.Resource,
		"operation":    req.Operation,
		"issuer_org":   e.issuerOrg,
		"signer_org":   e.signerOrg,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, errors.New("unexpected policy result type")
	}
	return allowed, nil
}
