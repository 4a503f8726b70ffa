package types

// PolicyKind names the identity policy that produced an assignment.
type PolicyKind string

const (
	// PolicySequential assigns the caller-supplied sequence number.
	PolicySequential PolicyKind = "sequential"

	// PolicyContentHash derives the identifier from canonical record bytes.
	PolicyContentHash PolicyKind = "content_hash"

	// PolicyComposite pairs a record-unique long identifier with an
	// intentionally collidable short identifier.
	PolicyComposite PolicyKind = "composite"
)

// Assignment is the identifier result for a single record.
type Assignment struct {
	// RecordIndex is the record's position in the input batch.
	RecordIndex int `json:"record_index"`

	// LongID is the identifier unique per physical record. Always set.
	LongID string `json:"long_id"`

	// ShortID is the logical-entity identifier, shared by records that
	// refer to the same entity or event. Set only in composite mode.
	ShortID string `json:"short_id,omitempty"`

	// Policy is the policy kind that produced this assignment.
	Policy PolicyKind `json:"policy"`

	// Algorithm is the digest algorithm version used. Empty for sequential
	// assignments, which hash nothing.
	Algorithm string `json:"algorithm,omitempty"`

	// CanonicalBytes is the length of the canonical input that was hashed
	// for LongID, kept for auditability. Zero for sequential assignments.
	CanonicalBytes int `json:"canonical_bytes,omitempty"`
}

// CollisionGroup lists the records that share one long identifier.
type CollisionGroup struct {
	// LongID is the shared identifier.
	LongID string `json:"long_id"`

	// RecordIndexes are the batch positions carrying LongID, ascending.
	RecordIndexes []int `json:"record_indexes"`
}

// CollisionReport describes duplicate long identifiers found within one
// batch. Duplicates are a warning, not an error: the same real-world record
// may legitimately appear twice, and dropping, merging, or flagging it is the
// calling pipeline's decision.
type CollisionReport struct {
	// Duplicates holds one group per long identifier that occurred more
	// than once, in order of first occurrence.
	Duplicates []CollisionGroup `json:"duplicates,omitempty"`
}

// HasDuplicates reports whether any long identifier occurred more than once.
func (r CollisionReport) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// Result is the complete outcome of one assignment call.
type Result struct {
	// RunID uniquely identifies this assignment call for audit correlation.
	RunID string `json:"run_id"`

	// Assignments holds one entry per input record, in batch order.
	Assignments []Assignment `json:"assignments"`

	// Collisions reports duplicate long identifiers within the batch.
	Collisions CollisionReport `json:"collisions"`
}
