package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

// statefulLedger models the chaincode's signature state machine:
// SetActiveSignature flips the previous holder inside one transaction.
type statefulLedger struct {
	sigs    map[string]domain.Signature
	invokes []ledgerCall
}

func newStatefulLedger() *statefulLedger {
	return &statefulLedger{sigs: map[string]domain.Signature{}}
}

func (f *statefulLedger) Invoke(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error) {
	f.invokes = append(f.invokes, ledgerCall{Method: method, Args: args})
	switch method {
	case methodCreateSignature, methodUpdateSignature:
		var sig domain.Signature
		if err := json.Unmarshal([]byte(args[0]), &sig); err != nil {
			return nil, err
		}
		f.sigs[sig.ID] = sig
	case methodDeleteSignature:
		delete(f.sigs, args[0])
	case methodSetActiveSignature:
		target, ok := f.sigs[args[0]]
		if !ok {
			return nil, fmt.Errorf("%w: signature %s", domain.ErrLedger, args[0])
		}
		for id, sig := range f.sigs {
			sig.IsActive = false
			f.sigs[id] = sig
		}
		target.IsActive = true
		f.sigs[target.ID] = target
	case methodDeactivateSignature:
		target, ok := f.sigs[args[0]]
		if !ok {
			return nil, fmt.Errorf("%w: signature %s", domain.ErrLedger, args[0])
		}
		target.IsActive = false
		f.sigs[target.ID] = target
	}
	return nil, nil
}

func (f *statefulLedger) Query(ctx context.Context, org, token, channel, chaincode, method string, args []string) (json.RawMessage, error) {
	switch method {
	case methodGetSignature:
		sig, ok := f.sigs[args[0]]
		if !ok {
			return nil, nil
		}
		return json.Marshal(sig)
	case methodGetActiveSignature:
		for _, sig := range f.sigs {
			if sig.IsActive {
				return json.Marshal(sig)
			}
		}
		return nil, nil
	case methodGetAllSignatures:
		all := make([]domain.Signature, 0, len(f.sigs))
		for _, sig := range f.sigs {
			all = append(all, sig)
		}
		return json.Marshal(all)
	}
	return nil, nil
}

func (f *statefulLedger) HealthCheck(ctx context.Context) map[string]bool {
	return map[string]bool{"rektor": true}
}

func newSignatureService(ledger LedgerClient, blobs *fakeBlobs) *SignatureService {
	return &SignatureService{
		Ledger:    ledger,
		Admin:     &fakeAdmin{token: "admin-token"},
		Blobs:     blobs,
		Access:    &fakeAccess{allow: true},
		Channel:   "ijazah-channel",
		Chaincode: "ijazah-contract",
		Clock:     func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func TestCreateSignatureWithImage(t *testing.T) {
	ledger := newStatefulLedger()
	blobs := newFakeBlobs()
	svc := newSignatureService(ledger, blobs)

	sig, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("image-bytes"),
		ImageName:    "rektor.png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(sig.ID, domain.SignatureIDPrefix) {
		t.Errorf("ID = %q, want %q prefix", sig.ID, domain.SignatureIDPrefix)
	}
	if sig.Owner != "rektor" {
		t.Errorf("Owner = %q", sig.Owner)
	}
	if !blobs.SignatureExists(sig.ContentReference) {
		t.Errorf("image not stored at %q", sig.ContentReference)
	}
	if _, ok := ledger.sigs[sig.ID]; !ok {
		t.Errorf("record not on ledger")
	}
}

func TestCreateSignatureRequiresImageOrReference(t *testing.T) {
	svc := newSignatureService(newStatefulLedger(), newFakeBlobs())

	_, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateSignatureLedgerFailureCleansBlob(t *testing.T) {
	ledger := newFakeLedger()
	ledger.errs[methodCreateSignature] = fmt.Errorf("%w: gateway 500", domain.ErrLedger)
	blobs := newFakeBlobs()
	svc := newSignatureService(ledger, blobs)

	_, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("image-bytes"),
	})
	if !errors.Is(err, domain.ErrLedger) {
		t.Fatalf("err = %v, want ErrLedger", err)
	}
	if len(blobs.sigs) != 0 {
		t.Errorf("blob not cleaned after ledger failure: %v", blobs.sigs)
	}
}

func TestSetActiveSignatureIsExclusive(t *testing.T) {
	ledger := newStatefulLedger()
	blobs := newFakeBlobs()
	svc := newSignatureService(ledger, blobs)

	first, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("first"),
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("second"),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := svc.SetActive(context.Background(), "rektor", "caller-token", first.ID); err != nil {
		t.Fatalf("SetActive first: %v", err)
	}
	if err := svc.SetActive(context.Background(), "rektor", "caller-token", second.ID); err != nil {
		t.Fatalf("SetActive second: %v", err)
	}

	all, err := svc.GetAll(context.Background(), "rektor", "caller-token")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	activeCount := 0
	for _, sig := range all {
		if sig.IsActive {
			activeCount++
			if sig.ID != second.ID {
				t.Errorf("active = %q, want %q", sig.ID, second.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Errorf("activeCount = %d, want 1", activeCount)
	}

	active, err := svc.GetActive(context.Background(), "rektor", "caller-token")
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("GetActive = %q, want %q", active.ID, second.ID)
	}
}

func TestDeactivateSignature(t *testing.T) {
	ledger := newStatefulLedger()
	svc := newSignatureService(ledger, newFakeBlobs())

	sig, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("img"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SetActive(context.Background(), "rektor", "caller-token", sig.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := svc.Deactivate(context.Background(), "rektor", "caller-token", sig.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.GetActive(context.Background(), "rektor", "caller-token"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after deactivation", err)
	}
}

func TestDeleteSignatureRemovesBlob(t *testing.T) {
	ledger := newStatefulLedger()
	blobs := newFakeBlobs()
	svc := newSignatureService(ledger, blobs)

	sig, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("img"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), "rektor", "caller-token", sig.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := ledger.sigs[sig.ID]; ok {
		t.Errorf("record still on ledger")
	}
	if len(blobs.sigs) != 0 {
		t.Errorf("blob not removed: %v", blobs.sigs)
	}
}

func TestSignatureUpdateReplacesImage(t *testing.T) {
	ledger := newStatefulLedger()
	blobs := newFakeBlobs()
	svc := newSignatureService(ledger, blobs)

	sig, err := svc.Create(context.Background(), CreateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		Image:        []byte("old"),
		ImageName:    "old.png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), UpdateSignatureRequest{
		Organization: "rektor",
		Token:        "caller-token",
		ID:           sig.ID,
		Image:        []byte("new"),
		ImageName:    "new.png",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ContentReference == sig.ContentReference {
		t.Errorf("ContentReference = %q, want a new handle", updated.ContentReference)
	}
	if !blobs.SignatureExists(updated.ContentReference) {
		t.Errorf("new image not stored at %q", updated.ContentReference)
	}
	if blobs.SignatureExists(sig.ContentReference) {
		t.Errorf("stale image still stored")
	}
}
