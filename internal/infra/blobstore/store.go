// Package blobstore is the durable local holding area for uploaded
// photo and signature images. It is not content-addressed; bare
// filenames are the persisted handles.
package blobstore

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"

	"github.com/disintegration/imaging"
)

// Canonical dimensions every stored image is normalized to.
const (
	photoWidth      = 496
	photoHeight     = 659
	signatureWidth  = 667
	signatureHeight = 276
)

const (
	photosDir     = "photos"
	signaturesDir = "signatures"
)

type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

func New(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{photosDir, signaturesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create uploads dir: %w", err)
		}
	}
	return &Store{root: root, logger: logger, now: time.Now}, nil
}

// SavePhoto normalizes the image to the canonical photo dimensions and
// PNG codec and writes it under the photos directory. The returned
// filename is the caller's persisted handle; handles are always
// generated, never derived from the uploaded name, so distinct uploads
// sharing an original filename get distinct blobs.
func (s *Store) SavePhoto(data []byte, _ string) (string, error) {
	return s.save(photosDir, "photo", data, photoWidth, photoHeight)
}

func (s *Store) SaveSignature(data []byte, _ string) (string, error) {
	return s.save(signaturesDir, "signature", data, signatureWidth, signatureHeight)
}

func (s *Store) save(dir, prefix string, data []byte, width, height int) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrValidation)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %v", domain.ErrValidation, err)
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	name := s.generateFilename(prefix)
	if err := os.WriteFile(filepath.Join(s.root, dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// generateFilename builds {prefix}_{timestampMillis}.png. The
// extension is fixed because every image is re-encoded as PNG. Two
// saves sharing a millisecond collide; callers live with that,
// matching the documented scheme.
func (s *Store) generateFilename(prefix string) string {
	return fmt.Sprintf("%s_%d.png", prefix, s.now().UnixMilli())
}

// GetPhoto reads a photo by bare filename or absolute path.
func (s *Store) GetPhoto(ref string) ([]byte, error) {
	return s.get(photosDir, ref)
}

func (s *Store) GetSignature(ref string) ([]byte, error) {
	return s.get(signaturesDir, ref)
}

func (s *Store) get(dir, ref string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(dir, ref))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeletePhoto removes the blob, returning false instead of an error on
// failure. Missing files count as deleted.
func (s *Store) DeletePhoto(ref string) bool {
	return s.delete(photosDir, ref)
}

func (s *Store) DeleteSignature(ref string) bool {
	return s.delete(signaturesDir, ref)
}

func (s *Store) delete(dir, ref string) bool {
	err := os.Remove(s.resolve(dir, ref))
	if err != nil && !os.IsNotExist(err) {
		s.logger.Warn("blob delete failed", "ref", ref, "err", err)
		return false
	}
	return true
}

func (s *Store) PhotoExists(ref string) bool {
	return s.exists(photosDir, ref)
}

func (s *Store) SignatureExists(ref string) bool {
	return s.exists(signaturesDir, ref)
}

func (s *Store) exists(dir, ref string) bool {
	info, err := os.Stat(s.resolve(dir, ref))
	return err == nil && !info.IsDir()
}

func (s *Store) resolve(dir, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(s.root, dir, filepath.Base(ref))
}

func (s *Store) Stats() (*domain.StorageStats, error) {
	photos, err := bucketStats(filepath.Join(s.root, photosDir))
	if err != nil {
		return nil, err
	}
	signatures, err := bucketStats(filepath.Join(s.root, signaturesDir))
	if err != nil {
		return nil, err
	}
	return &domain.StorageStats{Photos: photos, Signatures: signatures}, nil
}

func bucketStats(dir string) (domain.StorageBucketStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.StorageBucketStats{}, err
	}
	stats := domain.StorageBucketStats{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Count++
		stats.TotalSize += info.Size()
	}
	return stats, nil
}
