package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tmpltool/internal/capability"
)

// Format is a metadata export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml/yml and toml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: json, yaml, toml)", s)
	}
}

// Document is the exported metadata. JSON, YAML and TOML encode the same
// document; the top-level table is required by TOML.
type Document struct {
	Capabilities []capability.Metadata `json:"capabilities" yaml:"capabilities" toml:"capabilities"`
}

// Document collects every capability's metadata exactly once, in
// registration order.
func (r *Registry) Document() Document {
	metas := r.Metadata()
	for i := range metas {
		if metas[i].Arguments == nil {
			metas[i].Arguments = []capability.Argument{}
		}
		if metas[i].Examples == nil {
			metas[i].Examples = []string{}
		}
	}
	return Document{Capabilities: metas}
}

// Export serializes the metadata document. It performs no I/O.
func (r *Registry) Export(format Format) ([]byte, error) {
	doc := r.Document()

	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil

	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil

	case FormatTOML:
		out, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
