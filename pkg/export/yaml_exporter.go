package export

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLExporter renders a dataset as a YAML sequence of mappings, keeping header order.
type YAMLExporter struct{}

// NewYAMLExporter constructs a YAML exporter.
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{}
}

// Render encodes every row as a mapping. Empty cells are omitted so ragged
// schedule columns do not produce blank entries.
func (e *YAMLExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("yaml requires at least one header")
	}

	rows := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range data.Rows {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		for _, header := range data.Headers {
			value, ok := row[header]
			if !ok || value == "" {
				continue
			}
			entry.Content = append(entry.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: header},
				&yaml.Node{Kind: yaml.ScalarNode, Value: value},
			)
		}
		rows.Content = append(rows.Content, entry)
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	if data.Title != "" {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "title"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: data.Title},
		)
	}
	doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "rows"}, rows)

	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}
