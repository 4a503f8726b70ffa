package types

import "fmt"

// Field is one named, typed cell of a record.
//
// Name is kept exactly as it appeared in the source. Name cleaning happens at
// canonicalization time, so which form of the name participates in hashing is
// an explicit, inspectable configuration choice rather than an implicit
// mutation of the record.
type Field struct {
	// Name is the raw field name from the source, untouched.
	Name string `json:"name"`

	// Value is the field's typed value.
	Value Value `json:"-"`
}

// Record is one row of a batch: an ordered sequence of fields plus an
// optional caller-assigned sequence number.
//
// Field order within a record carries no identity meaning; canonicalization
// sorts fields deterministically, so permuting Fields never changes a
// content-hash identifier.
type Record struct {
	// Fields holds the record's cells in source order.
	Fields []Field `json:"fields"`

	// Sequence is the caller-supplied position of this record in the
	// caller's stable order. Only meaningful when the enclosing batch is
	// marked order-stable, and only consumed by sequential identity
	// policies.
	Sequence int64 `json:"sequence,omitempty"`
}

// Batch is an ordered sequence of records sharing one schema and one dataset
// tag. The engine consumes a batch exactly once and never mutates it.
type Batch struct {
	// DatasetTag identifies the source dataset or ingestion batch. Dataset
	// scoping injects it into canonical bytes so that structurally identical
	// records from different datasets get different identifiers.
	DatasetTag string `json:"dataset_tag"`

	// Records holds the batch rows in input order. Output assignments
	// preserve this order.
	Records []Record `json:"records"`

	// OrderStable declares that Records follows a deterministic,
	// caller-defined order and that each record's Sequence is meaningful.
	// Sequential identity policies refuse batches without this marker:
	// ordering must be explicit, never incidental.
	OrderStable bool `json:"order_stable"`
}

// Validate checks that the batch is structurally usable.
func (b *Batch) Validate() error {
	if len(b.Records) == 0 {
		return &ValidationError{Field: "Records", Message: "batch has no records"}
	}
	for i, rec := range b.Records {
		if len(rec.Fields) == 0 {
			return &ValidationError{
				Field:   "Records",
				Message: fmt.Sprintf("record %d has no fields", i),
			}
		}
	}
	return nil
}
