package descriptor

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Encode renders the descriptor in the given format.
func Encode(d *ProjectDescriptor, format Format) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, eris.Wrap(err, "failed to encode descriptor as yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, eris.Wrap(err, "failed to encode descriptor as yaml")
		}
	default:
		enc := toml.NewEncoder(buf)
		enc.Indent = ""
		if err := enc.Encode(d); err != nil {
			return nil, eris.Wrap(err, "failed to encode descriptor as toml")
		}
	}
	return buf.Bytes(), nil
}
