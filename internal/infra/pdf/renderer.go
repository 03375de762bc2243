// Package pdf renders the printable certificate artifact. Only the
// render contract matters here: holder fields, the photo, and the
// active signature image merged into one A4 landscape document.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"

	"github.com/go-pdf/fpdf"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render merges holder data with the photo and signature images. Both
// images arrive PNG-normalized from the blob store.
func (r *Renderer) Render(cert domain.Certificate, photo, signature []byte) ([]byte, error) {
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo bytes are required", domain.ErrGeneration)
	}
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetTitle("Ijazah "+cert.NIM, false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 26)
	doc.CellFormat(0, 16, "IJAZAH", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, "Nomor: "+cert.CertificateNumber, "", 1, "C", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, cert.Name, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, "NIM "+cert.NIM, "", 1, "C", false, 0, "")
	doc.CellFormat(0, 8, cert.StudyProgram+", "+cert.Faculty, "", 1, "C", false, 0, "")
	doc.CellFormat(0, 8, "Lulus "+cert.GraduationDate, "", 1, "C", false, 0, "")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("holder-photo", opts, bytes.NewReader(photo))
	doc.ImageOptions("holder-photo", 20, 60, 37.2, 49.4, false, opts, 0, "")

	if len(signature) > 0 {
		doc.RegisterImageOptionsReader("authority-signature", opts, bytes.NewReader(signature))
		doc.ImageOptions("authority-signature", 210, 140, 50, 20.7, false, opts, 0, "")
		doc.SetXY(200, 162)
		doc.SetFont("Helvetica", "I", 10)
		doc.CellFormat(70, 6, "Pejabat Penandatangan", "", 1, "C", false, 0, "")
	}

	if doc.Err() {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, doc.Error())
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return buf.Bytes(), nil
}
