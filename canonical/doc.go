// Package canonical converts records into deterministic byte sequences for
// identifier hashing.
//
// Canonicalization is the part of identity assignment where correctness is
// won or lost: two readings of the same logical record must reduce to the
// same bytes no matter how the source encoded them. The package normalizes
//
//   - field names: cleaned (trimmed, case-folded) by default, with the raw
//     spelling available as an explicit opt-in (NameRaw);
//   - dates: one fixed-width ISO-8601 form in UTC, whatever zone or
//     precision the value was parsed with;
//   - numbers: one fixed-precision scientific form, immune to
//     platform-specific float formatting;
//   - categorical codes: resolved to their label text through a Dictionary,
//     never hashed as internal codes;
//   - null: a distinct kind tag, never conflated with the empty string.
//
// The byte layout is sorted and length-prefixed: an optional dataset-tag
// token, a field count, then per field a name token, a kind tag, and a
// payload token. Length-prefixing every variable token rules out
// concatenation ambiguity between distinct field sets.
//
// Typical use:
//
//	dict := canonical.NewDictionary()
//	dict.RegisterField("location", map[string]string{"1": "Paris"})
//
//	bytes, err := canonical.Encode(record.Fields, batch.DatasetTag, canonical.Config{
//	    DatasetScoped: true,
//	    Dictionary:    dict,
//	})
//
// Encode fails fast with ErrAmbiguousFieldName or ErrUnresolvableType; a
// mis-canonicalized record must halt the batch before it can poison the
// project-level identifier guarantee.
package canonical
