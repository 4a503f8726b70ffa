// Package recid computes stable record identifiers for tabular batch data.
//
// Records flowing through a data-processing pipeline need identifiers that
// survive both the stages of a single run and reprocessing over the life of
// a project. recid provides that as a pure library: it consumes already
// parsed in-memory batches and returns identifier assignments; it reads no
// files and persists nothing.
//
// # Architecture
//
// The engine is four small components in a one-way flow:
//
//   - canonical: reduces each record's heterogeneous field representations
//     to one deterministic byte sequence
//   - policy: selects the identity scheme (sequential, content-hash, or
//     composite long/short) and which fields feed it
//   - digest: hashes canonical bytes under a fixed, versioned algorithm
//   - Assigner (this package): orchestrates the above across a batch,
//     detects duplicate long identifiers, and returns assignments with
//     diagnostics
//
// # Usage
//
// Create an Assigner once and reuse it; all per-call state travels in the
// arguments:
//
//	assigner, err := recid.New(
//	    recid.WithLogger(logger),
//	    recid.WithConcurrency(8),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := assigner.Assign(ctx, batch, policy.Policy{
//	    Mode:          policy.ContentHash,
//	    DatasetScoped: true,
//	})
//	if err != nil {
//	    // canonicalization, policy, or digest failure; the batch is
//	    // rejected as a whole
//	}
//
//	for _, asg := range result.Assignments {
//	    // asg.LongID, asg.Algorithm, asg.CanonicalBytes
//	}
//	if result.Collisions.HasDuplicates() {
//	    // same long identifier appeared on more than one record; the
//	    // calling pipeline decides whether to drop, merge, or flag
//	}
//
// # Error Handling
//
// All failures are caller input or configuration errors: deterministic,
// never retried, surfaced immediately. They arrive wrapped in EngineError
// with the originating component, and errors.Is matches the underlying
// sentinels (recid.ErrUndefinedOrder, canonical.ErrAmbiguousFieldName,
// digest.ErrEmptyInput, ...). A duplicate long identifier is deliberately
// not an error: it is reported in the CollisionReport alongside successful
// output.
//
// # Observability
//
// The assigner emits one OpenTelemetry span per Assign call plus counters
// for assigned records and collision groups. Without a configured global
// provider both are no-ops; the library never installs providers itself.
package recid
