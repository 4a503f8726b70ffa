package policy

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy indicates a policy configuration the caller must fix
// before assignment can run.
var ErrInvalidPolicy = errors.New("invalid identity policy")

// Mode selects the identity scheme.
type Mode string

const (
	// Sequential assigns the caller-supplied sequence number as the
	// identifier. Requires a batch explicitly marked order-stable.
	Sequential Mode = "sequential"

	// ContentHash derives the identifier from the canonical bytes of a
	// configurable field subset.
	ContentHash Mode = "content_hash"

	// Composite pairs a record-unique long identifier (all fields, always
	// dataset-scoped) with an intentionally collidable short identifier
	// computed from a restricted field subset.
	Composite Mode = "composite"
)

// Policy configures identifier assignment for one call. Policies are plain
// immutable values; share them freely across goroutines.
type Policy struct {
	// Mode selects the identity scheme.
	Mode Mode `yaml:"mode"`

	// DatasetScoped injects the batch's dataset tag into canonical bytes.
	// Applies to content_hash mode; composite long identifiers are always
	// scoped regardless of this flag.
	DatasetScoped bool `yaml:"dataset_scoped,omitempty"`

	// RawNames hashes field names exactly as the source spelled them
	// instead of their cleaned form.
	RawNames bool `yaml:"raw_names,omitempty"`

	// Fields selects which fields feed the digest in content_hash mode.
	// The zero value selects all fields.
	Fields FieldSelection `yaml:"fields,omitempty"`

	// ShortFields names the fields, by cleaned name, that make up the
	// composite short identifier. Required in composite mode.
	ShortFields []string `yaml:"short_fields,omitempty"`

	// Algorithm is the digest algorithm version. Empty selects the engine
	// default. Ignored in sequential mode, which hashes nothing.
	Algorithm string `yaml:"algorithm,omitempty"`
}

// FieldSelection restricts which fields participate in content hashing.
// Include, Exclude, and Filter all match against cleaned field names.
type FieldSelection struct {
	// Include lists the only field names to hash. Empty means all fields.
	Include []string `yaml:"include,omitempty"`

	// Exclude lists field names dropped before hashing.
	Exclude []string `yaml:"exclude,omitempty"`

	// Filter is a CEL boolean expression evaluated per field with two
	// variables: name (cleaned field name) and kind (value kind string).
	// Fields for which it returns false are dropped.
	//
	// Example: `!name.startsWith("tmp_") && kind != "null"`
	Filter string `yaml:"filter,omitempty"`
}

// IsZero reports whether the selection keeps every field.
func (s FieldSelection) IsZero() bool {
	return len(s.Include) == 0 && len(s.Exclude) == 0 && s.Filter == ""
}

// Validate checks internal consistency. It does not compile the CEL filter;
// compilation errors surface from NewSelector.
func (p *Policy) Validate() error {
	switch p.Mode {
	case Sequential:
		if !p.Fields.IsZero() {
			return fmt.Errorf("%w: field selection has no effect in sequential mode", ErrInvalidPolicy)
		}
		if len(p.ShortFields) > 0 {
			return fmt.Errorf("%w: short_fields has no effect in sequential mode", ErrInvalidPolicy)
		}
		if p.Algorithm != "" {
			return fmt.Errorf("%w: algorithm has no effect in sequential mode", ErrInvalidPolicy)
		}

	case ContentHash:
		if len(p.Fields.Include) > 0 && len(p.Fields.Exclude) > 0 {
			return fmt.Errorf("%w: include and exclude are mutually exclusive", ErrInvalidPolicy)
		}
		if len(p.ShortFields) > 0 {
			return fmt.Errorf("%w: short_fields requires composite mode", ErrInvalidPolicy)
		}

	case Composite:
		if len(p.ShortFields) == 0 {
			return fmt.Errorf("%w: composite mode requires short_fields", ErrInvalidPolicy)
		}
		if !p.Fields.IsZero() {
			// Composite long identifiers always cover all fields; a field
			// selection here would be silently ignored.
			return fmt.Errorf("%w: field selection has no effect in composite mode", ErrInvalidPolicy)
		}

	case "":
		return fmt.Errorf("%w: mode is required", ErrInvalidPolicy)

	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidPolicy, p.Mode)
	}
	return nil
}
