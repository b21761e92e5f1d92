package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func raggedDataset() Dataset {
	return Dataset{
		Title:   "PC meeting schedule",
		Headers: []string{"1", "3"},
		Rows: []map[string]string{
			{"1": "101", "3": "104"},
			{"1": "102"},
		},
	}
}

func TestCSVExporterPadsMissingCells(t *testing.T) {
	out, err := NewCSVExporter().Render(raggedDataset())
	require.NoError(t, err)
	assert.Equal(t, "1,3\n101,104\n102,\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewYAMLExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(raggedDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestYAMLExporterSkipsEmptyCells(t *testing.T) {
	out, err := NewYAMLExporter().Render(raggedDataset())
	require.NoError(t, err)

	var decoded struct {
		Title string              `yaml:"title"`
		Rows  []map[string]string `yaml:"rows"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "PC meeting schedule", decoded.Title)
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, map[string]string{"1": "101", "3": "104"}, decoded.Rows[0])
	assert.Equal(t, map[string]string{"1": "102"}, decoded.Rows[1])
}
