package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mailpulse/pkg/contracts/domain"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRecords []domain.RawRecord
		wantErr     error
	}{
		{
			name:        "basic file",
			input:       "Email,Status\na@example.com,delivered\nb@example.com,bounced\n",
			wantHeaders: []string{"Email", "Status"},
			wantRecords: []domain.RawRecord{
				{"Email": "a@example.com", "Status": "delivered"},
				{"Email": "b@example.com", "Status": "bounced"},
			},
		},
		{
			name:        "short rows omit trailing columns",
			input:       "Email,Status,Campaign\na@example.com,delivered\n",
			wantHeaders: []string{"Email", "Status", "Campaign"},
			wantRecords: []domain.RawRecord{
				{"Email": "a@example.com", "Status": "delivered"},
			},
		},
		{
			name:        "quoted cells kept verbatim",
			input:       "Email,Subject\na@example.com,\"Hello, world\"\n",
			wantHeaders: []string{"Email", "Subject"},
			wantRecords: []domain.RawRecord{
				{"Email": "a@example.com", "Subject": "Hello, world"},
			},
		},
		{
			name:        "UTF-8 BOM stripped from first header",
			input:       "\xEF\xBB\xBFEmail,Status\na@example.com,delivered\n",
			wantHeaders: []string{"Email", "Status"},
			wantRecords: []domain.RawRecord{
				{"Email": "a@example.com", "Status": "delivered"},
			},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "header only",
			input:   "Email,Status\n",
			wantErr: ErrNoDataRows,
		},
		{
			name:    "blank header row",
			input:   ",,\na,b,c\n",
			wantErr: ErrNoHeaders,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseCSV(strings.NewReader(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeaders, result.Headers)
			assert.Equal(t, tt.wantRecords, result.Records)
		})
	}
}

func TestParseCSV_BlankHeaderColumnsNeverBecomeKeys(t *testing.T) {
	result, err := ParseCSV(strings.NewReader("Email,,Status\na@example.com,stray,delivered\n"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Status"}, result.Headers)
	require.Len(t, result.Records, 1)
	assert.Equal(t, domain.RawRecord{"Email": "a@example.com", "Status": "delivered"}, result.Records[0])
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseExcel(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Email", "Status", "Opened Time"},
		{"a@example.com", "delivered", "2024-03-05T10:00:00Z"},
		{"b@example.com", "bounced", nil},
	})

	result, err := ParseExcel(buf)

	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Status", "Opened Time"}, result.Headers)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "a@example.com", result.Records[0]["Email"])
	assert.Equal(t, "2024-03-05T10:00:00Z", result.Records[0]["Opened Time"])
	assert.Equal(t, "bounced", result.Records[1]["Status"])
	assert.NotContains(t, result.Records[1], "Opened Time")
}

func TestParseExcel_HeaderOnly(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{{"Email", "Status"}})

	_, err := ParseExcel(buf)

	require.ErrorIs(t, err, ErrNoDataRows)
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	csvResult, err := Parse(strings.NewReader("Email\na@example.com\n"), "export.CSV")
	require.NoError(t, err)
	assert.Len(t, csvResult.Records, 1)

	buf := buildWorkbook(t, [][]interface{}{
		{"Email"},
		{"a@example.com"},
	})
	xlsxResult, err := Parse(buf, "export.xlsx")
	require.NoError(t, err)
	assert.Len(t, xlsxResult.Records, 1)

	_, err = Parse(strings.NewReader("x"), "export.pdf")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "export.csv")
	writeFile(t, csvPath, "Email,Status\na@example.com,delivered\n")

	result, err := ParseFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "Status"}, result.Headers)

	xlsxPath := filepath.Join(dir, "export.xlsx")
	buf := buildWorkbook(t, [][]interface{}{
		{"Email"},
		{"a@example.com"},
	})
	writeFile(t, xlsxPath, buf.String())

	result, err = ParseFile(xlsxPath)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "a@example.com", result.Records[0]["Email"])

	_, err = ParseFile(filepath.Join(dir, "export.txt"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
