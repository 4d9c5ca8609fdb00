package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-renderer/internal/model"
)

const validInvoice = `{
	"number": "FACT-2024-001",
	"issue_date": "2024-03-15",
	"due_date": "2024-04-14",
	"sale_date": "2024-03-15",
	"status": "paid",
	"penalties": "Taux légal",
	"lines": [{"description": "Conseil", "quantity": 2, "unit_price": "10"}],
	"emitter": {
		"name": "Atelier Dupont", "street": "12 rue des Lilas", "city": "Paris",
		"siret": "12345678900012", "ape": "6201Z", "vat_number": "FR12345678901",
		"email": "contact@dupont.fr", "phone": "01 23 45 67 89"
	},
	"client": {"name": "Jean Martin", "address": "1 avenue Foch"}
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCollectFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.json":     "{}",
		"b.JSON":     "{}",
		"notes.txt":  "x",
		"sub/c.json": "{}",
		"sub/d.pdf":  "%PDF",
	})

	files, err := collectFiles([]string{dir}, ".json")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = collectFiles([]string{filepath.Join(dir, "sub", "*")}, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sub", "d.pdf")}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.json")}, ".json")
	assert.Error(t, err)
}

func TestCollectFiles_Directories(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"invoices/a.json":      "{}",
		"invoices/2024/b.json": "{}",
		"invoices/readme.md":   "x",
		"out/facture-1.pdf":    "%PDF",
	})

	// A directory path globs to itself
	files, err := collectFiles([]string{filepath.Join(dir, "invoices") + string(filepath.Separator)}, ".json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "invoices", "a.json"),
		filepath.Join(dir, "invoices", "2024", "b.json"),
	}, files)

	files, err = collectFiles([]string{filepath.Join(dir, "*")}, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "out", "facture-1.pdf")}, files)
}

func TestReadRecord(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"inv-1.json":  validInvoice,
		"broken.json": "{",
	})

	inv, err := readRecord(filepath.Join(dir, "inv-1.json"))
	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ID)
	assert.Equal(t, "FACT-2024-001", inv.Number)

	_, err = readRecord(filepath.Join(dir, "broken.json"))
	assert.Error(t, err)
}

func TestValidateFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ok.json":      validInvoice,
		"bad.json":     `{"issue_date": "15/03/2024", "lines": [{"description": "x", "quantity": 0, "unit_price": "1"}]}`,
		"partial.json": `{"issue_date": "2024-03-15", "lines": [{"description": "x", "quantity": 1, "unit_price": "1"}]}`,
	})
	validator := model.NewValidator()

	ok := validateFile(validator, filepath.Join(dir, "ok.json"))
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Errors)
	assert.Len(t, ok.Warnings, 1) // logo placeholder

	bad := validateFile(validator, filepath.Join(dir, "bad.json"))
	assert.False(t, bad.Valid)
	assert.Len(t, bad.Errors, 2)

	partial := validateFile(validator, filepath.Join(dir, "partial.json"))
	assert.True(t, partial.Valid)
	assert.NotEmpty(t, partial.Warnings)

	strictValidation = true
	defer func() { strictValidation = false }()
	partial = validateFile(validator, filepath.Join(dir, "partial.json"))
	assert.False(t, partial.Valid)
}

func TestDescribeError(t *testing.T) {
	err := model.ValidationErrors{
		model.NewValidationError("id", nil, "required", "is required"),
		model.NewValidationError("lines[0].quantity", 0, "gt", "must be greater than 0"),
	}
	assert.Equal(t, "invalid invoice: id: is required; lines[0].quantity: must be greater than 0", describeError(err))
}
