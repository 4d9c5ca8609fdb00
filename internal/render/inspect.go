package render

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home
	api.DisableConfigDir()
}

// Report summarises a PDF artifact
type Report struct {
	Pages           int    `json:"pages"`
	Bytes           int64  `json:"bytes"`
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
}

// Inspect counts pages and validates the PDF structure with pdfcpu.
// A structurally invalid file yields a report with Valid=false, not an error;
// an error means the file could not be read as PDF at all.
func Inspect(rs io.ReadSeeker) (*Report, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	pages, err := api.PageCount(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	report := &Report{Pages: pages, Bytes: size, Valid: true}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	if err := api.Validate(rs, conf); err != nil {
		report.Valid = false
		report.ValidationError = err.Error()
	}
	return report, nil
}

// InspectBytes inspects an in-memory PDF
func InspectBytes(data []byte) (*Report, error) {
	return Inspect(bytes.NewReader(data))
}

// InspectFile inspects the PDF at path
func InspectFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Inspect(f)
}
