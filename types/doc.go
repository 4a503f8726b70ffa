// Package types provides the core data model for the record identity engine.
//
// This package defines the types exchanged across the engine's boundary:
// tabular batches on the way in, identifier assignments and collision reports
// on the way out. It holds no behavior beyond construction and validation;
// canonical encoding lives in the canonical package and policy semantics in
// the policy package.
//
// # Values
//
// Field values are a tagged variant, so the logical type of every cell is
// explicit rather than inferred from its source encoding:
//
//	types.String("Paris")
//	types.Number(42)
//	types.Date(time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC))
//	types.Bool(true)
//	types.Null()
//	types.Categorical("3") // resolved to its label text when canonicalized
//
// Raw parser output can be mapped onto the variant with Coerce:
//
//	v, err := types.Coerce(cell)
//	if err != nil {
//	    // unsupported runtime shape: surfaces ErrUnresolvableType
//	}
//
// # Batches
//
// A Batch is an ordered sequence of records sharing one schema and one
// dataset tag:
//
//	batch := types.Batch{
//	    DatasetTag: "census-2020",
//	    Records: []types.Record{
//	        {Fields: []types.Field{
//	            {Name: "name", Value: types.String("John Doe")},
//	            {Name: "born", Value: types.Date(born)},
//	        }},
//	    },
//	}
//
// Batches used with sequential identity policies must be explicitly marked
// order-stable (OrderStable = true) and carry a Sequence per record. The
// engine never invents an ordering on the caller's behalf.
package types
