package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Date", "Title"},
		Rows: []map[string]string{
			{"Date": "2025-05-01", "Title": "Enrollment, second batch"},
			{"Date": "2025-05-02", "Title": strings.Repeat("Very long title ", 40)},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewPlainCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Title", lines[0])
	assert.Equal(t, `2025-05-01,"Enrollment, second batch"`, lines[1])
}

func TestCSVExporterWritesBOM(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, map[string]string{"Date": "2025-05-03", "Title": "Cariño"})

	out, err := NewPDFExporter().Render(data, "Announcements")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
