// Package policy defines identity policies: which identifier scheme a batch
// gets and which fields feed it.
//
// A Policy selects one of three modes. Sequential assigns the caller's own
// stable ordering as the identifier and refuses batches whose ordering is
// not explicitly declared. ContentHash derives identifiers from canonical
// record bytes, with optional dataset scoping and a configurable field
// subset. Composite pairs a record-unique long identifier with a short
// identifier over a restricted field set, for pipelines that need both a
// physical-record key and a logical-entity key.
//
// Field subsets can be explicit include/exclude lists or a CEL expression
// over the cleaned field name and value kind:
//
//	pol := policy.Policy{
//	    Mode:          policy.ContentHash,
//	    DatasetScoped: true,
//	    Fields: policy.FieldSelection{
//	        Filter: `!name.startsWith("tmp_") && kind != "null"`,
//	    },
//	}
//	if err := pol.Validate(); err != nil { ... }
//
// Policies can also be loaded from YAML files via Load or Parse.
package policy
