package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlUnmarshal decodes a single YAML document, rejecting unknown top-level
// keys. An empty document leaves out untouched.
func yamlUnmarshal(b []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("yaml unmarshal: %w", err)
	}
	return nil
}

// decodeOnto decodes a profile section over dst when the section is present.
// Unknown keys inside the section are rejected like top-level ones.
func decodeOnto(n *yaml.Node, dst any) error {
	if n.Kind == 0 {
		return nil
	}
	b, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	return yamlUnmarshal(b, dst)
}
