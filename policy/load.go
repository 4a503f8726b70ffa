package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a policy YAML file.
//
// Example file:
//
//	mode: content_hash
//	dataset_scoped: true
//	fields:
//	  exclude: [ingested_at]
//	  filter: '!name.startsWith("tmp_")'
//	algorithm: sha256-v1
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

// Parse parses and validates policy YAML.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
