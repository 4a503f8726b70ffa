package recid

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/recid-dev/recid/canonical"
	"github.com/recid-dev/recid/digest"
	"github.com/recid-dev/recid/policy"
	"github.com/recid-dev/recid/types"
)

// instrumentationName identifies this library to tracer and meter providers.
const instrumentationName = "github.com/recid-dev/recid"

// Assigner orchestrates canonicalization, policy selection, and digesting
// across a batch of records. It is stateless between calls and safe for
// concurrent use; all per-call configuration travels in the Batch and Policy
// arguments.
type Assigner struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
	concurrency int
	dictionary  *canonical.Dictionary

	recordsAssigned metric.Int64Counter
	collisionGroups metric.Int64Counter
	assignDuration  metric.Float64Histogram
}

// New creates an Assigner with the given options.
func New(opts ...Option) (*Assigner, error) {
	a := &Assigner{
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(instrumentationName)
	}
	if a.meter == nil {
		a.meter = otel.Meter(instrumentationName)
	}
	if a.concurrency < 1 {
		a.concurrency = 1
	}

	var err error
	a.recordsAssigned, err = a.meter.Int64Counter("recid.records.assigned",
		metric.WithDescription("Records that received an identifier."))
	if err != nil {
		return nil, &EngineError{Op: "New", Kind: KindAssignment, Err: err}
	}
	a.collisionGroups, err = a.meter.Int64Counter("recid.collisions.groups",
		metric.WithDescription("Duplicate long-identifier groups observed per batch."))
	if err != nil {
		return nil, &EngineError{Op: "New", Kind: KindAssignment, Err: err}
	}
	a.assignDuration, err = a.meter.Float64Histogram("recid.assign.duration",
		metric.WithDescription("Wall time of Assign calls."),
		metric.WithUnit("s"))
	if err != nil {
		return nil, &EngineError{Op: "New", Kind: KindAssignment, Err: err}
	}
	return a, nil
}

// Assign computes one identifier assignment per record in the batch, in
// batch order, plus a report of duplicate long identifiers.
//
// Assign is a single deterministic pass: it never retries, never reorders
// input, and has no side effects beyond its return value. Any record that
// cannot be canonicalized halts the whole call with the originating error;
// duplicate long identifiers are reported, not raised, because a genuine
// duplicate record is a pipeline decision rather than an engine failure.
func (a *Assigner) Assign(ctx context.Context, batch types.Batch, pol policy.Policy) (*types.Result, error) {
	const op = "Assigner.Assign"
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "recid.Assign", trace.WithAttributes(
		attribute.String("recid.dataset_tag", batch.DatasetTag),
		attribute.Int("recid.batch.records", len(batch.Records)),
		attribute.String("recid.policy.mode", string(pol.Mode)),
	))
	defer span.End()

	if err := batch.Validate(); err != nil {
		return nil, a.fail(span, &EngineError{Op: op, Kind: KindAssignment, Err: err})
	}
	if err := pol.Validate(); err != nil {
		return nil, a.fail(span, &EngineError{Op: op, Kind: KindPolicy, Err: err})
	}

	var (
		result *types.Result
		err    error
	)
	switch pol.Mode {
	case policy.Sequential:
		result, err = a.assignSequential(batch)
	default:
		result, err = a.assignHashed(batch, pol)
	}
	if err != nil {
		return nil, a.fail(span, err)
	}

	result.RunID = uuid.NewString()
	span.SetAttributes(attribute.String("recid.run_id", result.RunID))

	a.recordsAssigned.Add(ctx, int64(len(result.Assignments)))
	if n := len(result.Collisions.Duplicates); n > 0 {
		a.collisionGroups.Add(ctx, int64(n))
		a.logger.Warn("duplicate long identifiers in batch",
			"run_id", result.RunID,
			"dataset_tag", batch.DatasetTag,
			"groups", n,
		)
	}
	a.assignDuration.Record(ctx, time.Since(start).Seconds())

	return result, nil
}

// fail records the error on the span before returning it.
func (a *Assigner) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// assignSequential assigns each record its caller-supplied sequence number.
func (a *Assigner) assignSequential(batch types.Batch) (*types.Result, error) {
	const op = "Assigner.Assign"

	if !batch.OrderStable {
		return nil, &EngineError{Op: op, Kind: KindAssignment, Err: ErrUndefinedOrder}
	}

	seen := make(map[int64]int, len(batch.Records))
	assignments := make([]types.Assignment, len(batch.Records))
	for i, rec := range batch.Records {
		if prev, dup := seen[rec.Sequence]; dup {
			return nil, &EngineError{
				Op:   op,
				Kind: KindAssignment,
				Err:  ErrNonUniqueIndex,
				Context: map[string]any{
					"sequence": rec.Sequence,
					"records":  []int{prev, i},
				},
			}
		}
		seen[rec.Sequence] = i

		assignments[i] = types.Assignment{
			RecordIndex: i,
			LongID:      strconv.FormatInt(rec.Sequence, 10),
			Policy:      types.PolicySequential,
		}
	}

	return &types.Result{Assignments: assignments}, nil
}

// assignHashed computes content-hash or composite identifiers, optionally in
// parallel. Per-record work is independent; the output slice is indexed by
// record position, so batch order is preserved regardless of concurrency.
func (a *Assigner) assignHashed(batch types.Batch, pol policy.Policy) (*types.Result, error) {
	const op = "Assigner.Assign"

	selector, err := policy.NewSelector(pol.Fields)
	if err != nil {
		return nil, &EngineError{Op: op, Kind: KindPolicy, Err: err}
	}
	eng, err := digest.New(pol.Algorithm)
	if err != nil {
		return nil, &EngineError{Op: op, Kind: KindDigest, Err: err}
	}

	names := canonical.NameCleaned
	if pol.RawNames {
		names = canonical.NameRaw
	}

	n := len(batch.Records)
	assignments := make([]types.Assignment, n)
	errs := make([]error, n)

	work := func(i int) {
		assignments[i], errs[i] = a.assignRecord(i, batch.Records[i], batch.DatasetTag, pol, selector, eng, names)
	}

	if workers := min(a.concurrency, n); workers > 1 {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					work(i)
				}
			}()
		}
		for i := 0; i < n; i++ {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	} else {
		for i := 0; i < n; i++ {
			work(i)
		}
	}

	// Report the lowest-index failure so errors are deterministic even
	// when records were processed in parallel.
	for _, recErr := range errs {
		if recErr != nil {
			return nil, recErr
		}
	}

	return &types.Result{
		Assignments: assignments,
		Collisions:  scanCollisions(assignments),
	}, nil
}

// assignRecord computes the identifier(s) for one record.
func (a *Assigner) assignRecord(idx int, rec types.Record, tag string, pol policy.Policy, selector *policy.Selector, eng *digest.Engine, names canonical.NameMode) (types.Assignment, error) {
	const op = "Assigner.Assign"

	recordCtx := func() map[string]any {
		return map[string]any{"record": idx}
	}

	// Ambiguity is checked over the full record before any selection, so a
	// subset that happens to drop one of two colliding fields cannot mask
	// the collision.
	if err := canonical.VerifyNames(rec.Fields); err != nil {
		return types.Assignment{}, &EngineError{Op: op, Kind: KindCanonicalization, Err: err, Context: recordCtx()}
	}

	switch pol.Mode {
	case policy.ContentHash:
		fields, err := selectFields(rec.Fields, selector)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindPolicy, Err: err, Context: recordCtx()}
		}
		if len(fields) == 0 {
			return types.Assignment{}, &EngineError{
				Op:      op,
				Kind:    KindPolicy,
				Err:     fmt.Errorf("%w: selection excluded every field", policy.ErrInvalidPolicy),
				Context: recordCtx(),
			}
		}

		cfg := canonical.Config{Names: names, DatasetScoped: pol.DatasetScoped, Dictionary: a.dictionary}
		canon, err := canonical.Encode(fields, tag, cfg)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindCanonicalization, Err: err, Context: recordCtx()}
		}
		id, err := eng.Sum(canon)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindDigest, Err: err, Context: recordCtx()}
		}

		return types.Assignment{
			RecordIndex:    idx,
			LongID:         id,
			Policy:         types.PolicyContentHash,
			Algorithm:      eng.Version(),
			CanonicalBytes: len(canon),
		}, nil

	case policy.Composite:
		// Long identifier: all fields, always dataset-scoped. This is what
		// makes it unique per physical record.
		longCfg := canonical.Config{Names: names, DatasetScoped: true, Dictionary: a.dictionary}
		longCanon, err := canonical.Encode(rec.Fields, tag, longCfg)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindCanonicalization, Err: err, Context: recordCtx()}
		}
		longID, err := eng.Sum(longCanon)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindDigest, Err: err, Context: recordCtx()}
		}

		// Short identifier: the restricted subset only, never scoped, so
		// records describing the same logical entity share it across
		// datasets.
		shortFields := shortSubset(rec.Fields, pol.ShortFields)
		if len(shortFields) == 0 {
			return types.Assignment{}, &EngineError{
				Op:      op,
				Kind:    KindPolicy,
				Err:     fmt.Errorf("%w: record carries none of the short identifier fields", policy.ErrInvalidPolicy),
				Context: recordCtx(),
			}
		}
		shortCfg := canonical.Config{Names: names, DatasetScoped: false, Dictionary: a.dictionary}
		shortCanon, err := canonical.Encode(shortFields, tag, shortCfg)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindCanonicalization, Err: err, Context: recordCtx()}
		}
		shortID, err := eng.Sum(shortCanon)
		if err != nil {
			return types.Assignment{}, &EngineError{Op: op, Kind: KindDigest, Err: err, Context: recordCtx()}
		}

		return types.Assignment{
			RecordIndex:    idx,
			LongID:         longID,
			ShortID:        shortID,
			Policy:         types.PolicyComposite,
			Algorithm:      eng.Version(),
			CanonicalBytes: len(longCanon),
		}, nil

	default:
		// Validate rejects every other mode before records are touched.
		return types.Assignment{}, &EngineError{
			Op:   op,
			Kind: KindPolicy,
			Err:  fmt.Errorf("%w: unknown mode %q", policy.ErrInvalidPolicy, pol.Mode),
		}
	}
}

// selectFields applies the policy's field selection to one record.
func selectFields(fields []types.Field, selector *policy.Selector) ([]types.Field, error) {
	out := make([]types.Field, 0, len(fields))
	for _, f := range fields {
		keep, err := selector.Keep(canonical.CleanName(f.Name), f.Value.Kind())
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, f)
		}
	}
	return out, nil
}

// shortSubset returns the fields whose cleaned names appear in shortNames.
func shortSubset(fields []types.Field, shortNames []string) []types.Field {
	want := make(map[string]struct{}, len(shortNames))
	for _, name := range shortNames {
		want[canonical.CleanName(name)] = struct{}{}
	}

	out := make([]types.Field, 0, len(shortNames))
	for _, f := range fields {
		if _, ok := want[canonical.CleanName(f.Name)]; ok {
			out = append(out, f)
		}
	}
	return out
}

// scanCollisions groups assignments sharing a long identifier. Groups are
// ordered by first occurrence; indexes within a group are ascending.
func scanCollisions(assignments []types.Assignment) types.CollisionReport {
	byID := make(map[string][]int, len(assignments))
	for _, asg := range assignments {
		byID[asg.LongID] = append(byID[asg.LongID], asg.RecordIndex)
	}

	var report types.CollisionReport
	emitted := make(map[string]bool)
	for _, asg := range assignments {
		indexes := byID[asg.LongID]
		if len(indexes) > 1 && !emitted[asg.LongID] {
			emitted[asg.LongID] = true
			report.Duplicates = append(report.Duplicates, types.CollisionGroup{
				LongID:        asg.LongID,
				RecordIndexes: indexes,
			})
		}
	}
	return report
}
