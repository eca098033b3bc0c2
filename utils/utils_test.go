package utils

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	tests := map[string]string{
		"Blood Test":           "blood-test",
		"  Échographie  Ré ":   "echographie-re",
		"X-Ray #2 (left arm)":  "x-ray-2-left-arm",
		"---":                  "",
		"Prescription_2024.01": "prescription-2024-01",
	}
	for in, want := range tests {
		assert.Equal(t, want, GenerateSlug(in), "input %q", in)
	}
}

func TestFileNameSlug(t *testing.T) {
	slug, ext := FileNameSlug("Blood Test (Mai).PDF")
	assert.Equal(t, "blood-test-mai", slug)
	assert.Equal(t, ".pdf", ext)

	slug, ext = FileNameSlug("###.png")
	assert.Equal(t, "document", slug)
	assert.Equal(t, ".png", ext)
}

func TestParseCoordinate(t *testing.T) {
	v, ok := ParseCoordinate("12.97", 90)
	assert.True(t, ok)
	assert.InDelta(t, 12.97, v, 1e-9)

	_, ok = ParseCoordinate("", 90)
	assert.False(t, ok)
	_, ok = ParseCoordinate("north", 90)
	assert.False(t, ok)
	_, ok = ParseCoordinate("91", 90)
	assert.False(t, ok)
	_, ok = ParseCoordinate("-180", 180)
	assert.True(t, ok)
}

var (
	pdfContent = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	pngContent = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"][0]
}

func newTestValidator() *FileValidator {
	return NewFileValidator(
		[]string{".pdf", ".PNG"},
		[]string{"application/pdf", "image/png"},
		1<<20,
	)
}

func TestFileValidator_Accepts(t *testing.T) {
	v := newTestValidator()

	mime, err := v.ValidateFile(fileHeader(t, "report.pdf", pdfContent))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	mime, err = v.ValidateFile(fileHeader(t, "scan.png", pngContent))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
}

func TestFileValidator_Rejects(t *testing.T) {
	v := newTestValidator()

	_, err := v.ValidateFile(fileHeader(t, "notes.txt", []byte("hello")))
	assert.ErrorContains(t, err, "extension")

	_, err = v.ValidateFile(fileHeader(t, "fake.pdf", []byte("just some text")))
	assert.ErrorContains(t, err, "file type")

	big := append(append([]byte{}, pdfContent...), bytes.Repeat([]byte("a"), 2<<20)...)
	_, err = v.ValidateFile(fileHeader(t, "big.pdf", big))
	assert.ErrorContains(t, err, "too large")
}
