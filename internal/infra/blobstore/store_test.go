package blobstore

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestSavePhotoNormalizesDimensions(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time { return time.UnixMilli(1717236000123) }

	name, err := store.SavePhoto(testPNG(t, 100, 100), "budi.jpg")
	if err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if name != "photo_1717236000123.png" {
		t.Errorf("name = %q, want generated handle", name)
	}

	data, err := store.GetPhoto(name)
	if err != nil {
		t.Fatalf("GetPhoto: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored image is not PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 496 || bounds.Dy() != 659 {
		t.Errorf("dimensions = %dx%d, want 496x659", bounds.Dx(), bounds.Dy())
	}
}

func TestSaveSignatureNormalizesDimensions(t *testing.T) {
	store := newTestStore(t)

	name, err := store.SaveSignature(testPNG(t, 1000, 400), "")
	if err != nil {
		t.Fatalf("SaveSignature: %v", err)
	}
	data, err := store.GetSignature(name)
	if err != nil {
		t.Fatalf("GetSignature: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 667 || img.Bounds().Dy() != 276 {
		t.Errorf("dimensions = %dx%d, want 667x276", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestGeneratedFilenamePattern(t *testing.T) {
	store := newTestStore(t)
	store.now = func() time.Time { return time.UnixMilli(1717236000123) }

	name, err := store.SavePhoto(testPNG(t, 10, 10), "")
	if err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if name != "photo_1717236000123.png" {
		t.Errorf("name = %q", name)
	}
	if !regexp.MustCompile(`^photo_\d+\.png$`).MatchString(name) {
		t.Errorf("name %q does not match pattern", name)
	}
}

func TestUploadedNameNeverBecomesHandle(t *testing.T) {
	store := newTestStore(t)
	millis := int64(1717236000123)
	store.now = func() time.Time {
		millis++
		return time.UnixMilli(millis)
	}

	first, err := store.SavePhoto(testPNG(t, 10, 10), "photo.jpg")
	if err != nil {
		t.Fatalf("first SavePhoto: %v", err)
	}
	second, err := store.SavePhoto(testPNG(t, 20, 20), "photo.jpg")
	if err != nil {
		t.Fatalf("second SavePhoto: %v", err)
	}
	pattern := regexp.MustCompile(`^photo_\d+\.png$`)
	for _, name := range []string{first, second} {
		if !pattern.MatchString(name) {
			t.Errorf("handle %q does not match generated pattern", name)
		}
	}
	if first == second {
		t.Fatalf("both uploads got handle %q", first)
	}
	firstBytes, err := store.GetPhoto(first)
	if err != nil {
		t.Fatalf("GetPhoto first: %v", err)
	}
	secondBytes, err := store.GetPhoto(second)
	if err != nil {
		t.Fatalf("GetPhoto second: %v", err)
	}
	if bytes.Equal(firstBytes, secondBytes) {
		t.Errorf("second upload replaced the first blob")
	}
	if !store.DeletePhoto(first) {
		t.Fatalf("DeletePhoto first = false")
	}
	if !store.PhotoExists(second) {
		t.Errorf("deleting one upload removed the other")
	}
}

func TestSaveRejectsEmptyAndUndecodable(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.SavePhoto(nil, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty: err = %v, want ErrValidation", err)
	}
	if _, err := store.SavePhoto([]byte("not an image"), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("garbage: err = %v, want ErrValidation", err)
	}
}

func TestGetPhotoMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetPhoto("nope.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePhoto(t *testing.T) {
	store := newTestStore(t)
	name, err := store.SavePhoto(testPNG(t, 10, 10), "p.png")
	if err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if !store.PhotoExists(name) {
		t.Fatalf("photo missing after save")
	}
	if !store.DeletePhoto(name) {
		t.Errorf("DeletePhoto = false")
	}
	if store.PhotoExists(name) {
		t.Errorf("photo still exists")
	}
	// Missing files count as deleted.
	if !store.DeletePhoto(name) {
		t.Errorf("second DeletePhoto = false, want true")
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	millis := int64(1717236000123)
	store.now = func() time.Time {
		millis++
		return time.UnixMilli(millis)
	}
	if _, err := store.SavePhoto(testPNG(t, 10, 10), "a.png"); err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if _, err := store.SavePhoto(testPNG(t, 10, 10), "b.png"); err != nil {
		t.Fatalf("SavePhoto: %v", err)
	}
	if _, err := store.SaveSignature(testPNG(t, 10, 10), "s.png"); err != nil {
		t.Fatalf("SaveSignature: %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Photos.Count != 2 || stats.Signatures.Count != 1 {
		t.Errorf("counts = %d/%d", stats.Photos.Count, stats.Signatures.Count)
	}
	if stats.Photos.TotalSize == 0 {
		t.Errorf("TotalSize = 0")
	}
}
