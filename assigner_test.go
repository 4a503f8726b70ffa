package recid

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/recid-dev/recid/canonical"
	"github.com/recid-dev/recid/digest"
	"github.com/recid-dev/recid/policy"
	"github.com/recid-dev/recid/types"
)

func newTestAssigner(t *testing.T, opts ...Option) *Assigner {
	t.Helper()
	a, err := New(opts...)
	require.NoError(t, err)
	return a
}

func personRecord(name string, born time.Time, location string) types.Record {
	return types.Record{Fields: []types.Field{
		{Name: "name", Value: types.String(name)},
		{Name: "date", Value: types.Date(born)},
		{Name: "location", Value: types.String(location)},
	}}
}

func TestAssignContentHashDatasetScoping(t *testing.T) {
	a := newTestAssigner(t)
	born := time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC)
	pol := policy.Policy{Mode: policy.ContentHash, DatasetScoped: true}

	batchFor := func(tag string) types.Batch {
		return types.Batch{
			DatasetTag: tag,
			Records:    []types.Record{personRecord("John Doe", born, "Paris")},
		}
	}

	ds1, err := a.Assign(context.Background(), batchFor("ds1"), pol)
	require.NoError(t, err)
	ds2, err := a.Assign(context.Background(), batchFor("ds2"), pol)
	require.NoError(t, err)

	assert.NotEqual(t, ds1.Assignments[0].LongID, ds2.Assignments[0].LongID,
		"scoped identifiers must differ across dataset tags")

	// Re-running either call yields the same identifier both times.
	again, err := a.Assign(context.Background(), batchFor("ds1"), pol)
	require.NoError(t, err)
	assert.Equal(t, ds1.Assignments[0].LongID, again.Assignments[0].LongID)

	// Scoping off: tags no longer matter.
	unscoped := policy.Policy{Mode: policy.ContentHash}
	u1, err := a.Assign(context.Background(), batchFor("ds1"), unscoped)
	require.NoError(t, err)
	u2, err := a.Assign(context.Background(), batchFor("ds2"), unscoped)
	require.NoError(t, err)
	assert.Equal(t, u1.Assignments[0].LongID, u2.Assignments[0].LongID)
}

func TestAssignContentHashMetadata(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records:    []types.Record{personRecord("John Doe", time.Now().UTC(), "Paris")},
	}

	result, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:          policy.ContentHash,
		DatasetScoped: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Assignments, 1)

	asg := result.Assignments[0]
	assert.Equal(t, 0, asg.RecordIndex)
	assert.Len(t, asg.LongID, 64)
	assert.Empty(t, asg.ShortID)
	assert.Equal(t, types.PolicyContentHash, asg.Policy)
	assert.Equal(t, digest.SHA256V1, asg.Algorithm)
	assert.Positive(t, asg.CanonicalBytes)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err, "run ID must be a valid UUID")
}

func TestAssignFieldSelection(t *testing.T) {
	a := newTestAssigner(t)
	rec := types.Record{Fields: []types.Field{
		{Name: "name", Value: types.String("John")},
		{Name: "ingested_at", Value: types.Date(time.Now())},
	}}
	batch := types.Batch{DatasetTag: "ds1", Records: []types.Record{rec}}

	all, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.ContentHash})
	require.NoError(t, err)

	trimmed, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:   policy.ContentHash,
		Fields: policy.FieldSelection{Exclude: []string{"ingested_at"}},
	})
	require.NoError(t, err)

	nameOnly, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:   policy.ContentHash,
		Fields: policy.FieldSelection{Include: []string{"name"}},
	})
	require.NoError(t, err)

	assert.NotEqual(t, all.Assignments[0].LongID, trimmed.Assignments[0].LongID)
	assert.Equal(t, trimmed.Assignments[0].LongID, nameOnly.Assignments[0].LongID,
		"excluding the only other field equals including just name")
}

func TestAssignCELFilter(t *testing.T) {
	a := newTestAssigner(t)
	rec := types.Record{Fields: []types.Field{
		{Name: "name", Value: types.String("John")},
		{Name: "tmp_stage", Value: types.String("x")},
	}}
	batch := types.Batch{DatasetTag: "ds1", Records: []types.Record{rec}}

	filtered, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:   policy.ContentHash,
		Fields: policy.FieldSelection{Filter: `!name.startsWith("tmp_")`},
	})
	require.NoError(t, err)

	explicit, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:   policy.ContentHash,
		Fields: policy.FieldSelection{Exclude: []string{"tmp_stage"}},
	})
	require.NoError(t, err)

	assert.Equal(t, explicit.Assignments[0].LongID, filtered.Assignments[0].LongID)
}

func TestAssignSelectionExcludingEverythingFails(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{{Fields: []types.Field{
			{Name: "only", Value: types.String("x")},
		}}},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:   policy.ContentHash,
		Fields: policy.FieldSelection{Exclude: []string{"only"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
}

func TestAssignSequential(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag:  "ds1",
		OrderStable: true,
		Records: []types.Record{
			{Sequence: 10, Fields: []types.Field{{Name: "a", Value: types.String("x")}}},
			{Sequence: 20, Fields: []types.Field{{Name: "a", Value: types.String("y")}}},
		},
	}

	result, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.Sequential})
	require.NoError(t, err)
	require.Len(t, result.Assignments, 2)

	assert.Equal(t, "10", result.Assignments[0].LongID)
	assert.Equal(t, "20", result.Assignments[1].LongID)
	assert.Equal(t, types.PolicySequential, result.Assignments[0].Policy)
	assert.Empty(t, result.Assignments[0].Algorithm)
	assert.Zero(t, result.Assignments[0].CanonicalBytes)
	assert.False(t, result.Collisions.HasDuplicates())
}

func TestAssignSequentialUndeclaredOrder(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{
			{Sequence: 1, Fields: []types.Field{{Name: "a", Value: types.String("x")}}},
		},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.Sequential})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUndefinedOrder)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindAssignment, engErr.Kind)
}

func TestAssignSequentialDuplicateIndex(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag:  "ds1",
		OrderStable: true,
		Records: []types.Record{
			{Sequence: 5, Fields: []types.Field{{Name: "a", Value: types.String("x")}}},
			{Sequence: 5, Fields: []types.Field{{Name: "a", Value: types.String("y")}}},
		},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.Sequential})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonUniqueIndex)
}

func TestAssignComposite(t *testing.T) {
	a := newTestAssigner(t)
	born := time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC)

	// Two physical records describing the same logical person: different
	// location, same name and birth date.
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{
			personRecord("John Doe", born, "Paris"),
			personRecord("John Doe", born, "Lyon"),
		},
	}

	result, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:        policy.Composite,
		ShortFields: []string{"name", "date"},
	})
	require.NoError(t, err)
	require.Len(t, result.Assignments, 2)

	first, second := result.Assignments[0], result.Assignments[1]
	assert.NotEmpty(t, first.LongID)
	assert.NotEmpty(t, first.ShortID)
	assert.Equal(t, types.PolicyComposite, first.Policy)

	assert.Equal(t, first.ShortID, second.ShortID,
		"same logical entity must share the short identifier")
	assert.NotEqual(t, first.LongID, second.LongID,
		"distinct physical records must have distinct long identifiers")
	assert.False(t, result.Collisions.HasDuplicates())
}

func TestAssignCompositeShortUnscoped(t *testing.T) {
	a := newTestAssigner(t)
	born := time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC)
	pol := policy.Policy{Mode: policy.Composite, ShortFields: []string{"name", "date"}}

	batchFor := func(tag string) types.Batch {
		return types.Batch{DatasetTag: tag, Records: []types.Record{personRecord("John Doe", born, "Paris")}}
	}

	ds1, err := a.Assign(context.Background(), batchFor("ds1"), pol)
	require.NoError(t, err)
	ds2, err := a.Assign(context.Background(), batchFor("ds2"), pol)
	require.NoError(t, err)

	assert.Equal(t, ds1.Assignments[0].ShortID, ds2.Assignments[0].ShortID,
		"short identifiers track the logical entity across datasets")
	assert.NotEqual(t, ds1.Assignments[0].LongID, ds2.Assignments[0].LongID,
		"long identifiers are always dataset-scoped")
}

func TestAssignCompositeMissingShortFields(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{{Fields: []types.Field{
			{Name: "other", Value: types.String("x")},
		}}},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:        policy.Composite,
		ShortFields: []string{"name"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
}

func TestAssignReportsDuplicateLongIdentifiers(t *testing.T) {
	a := newTestAssigner(t)
	born := time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC)
	rec := personRecord("John Doe", born, "Paris")

	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{
			rec,
			personRecord("Jane Doe", born, "Lyon"),
			rec, // the same physical record appearing twice
		},
	}

	result, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:          policy.ContentHash,
		DatasetScoped: true,
	})
	require.NoError(t, err, "duplicates are a warning, not an error")

	require.True(t, result.Collisions.HasDuplicates())
	require.Len(t, result.Collisions.Duplicates, 1)

	group := result.Collisions.Duplicates[0]
	assert.Equal(t, result.Assignments[0].LongID, group.LongID)
	assert.Equal(t, []int{0, 2}, group.RecordIndexes)
}

func TestAssignAmbiguousFieldNameFailsBatch(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{
			personRecord("ok", time.Now(), "Paris"),
			{Fields: []types.Field{
				{Name: "Name", Value: types.String("a")},
				{Name: "name", Value: types.String("b")},
			}},
		},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.ContentHash})
	require.Error(t, err)
	assert.ErrorIs(t, err, canonical.ErrAmbiguousFieldName)
}

func TestAssignCategoricalThroughDictionary(t *testing.T) {
	dict := canonical.NewDictionary()
	dict.RegisterField("location", map[string]string{"1": "Paris"})
	a := newTestAssigner(t, WithDictionary(dict))

	coded := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{{Fields: []types.Field{
			{Name: "location", Value: types.Categorical("1")},
		}}},
	}
	plain := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{{Fields: []types.Field{
			{Name: "location", Value: types.String("Paris")},
		}}},
	}
	pol := policy.Policy{Mode: policy.ContentHash, DatasetScoped: true}

	a1, err := a.Assign(context.Background(), coded, pol)
	require.NoError(t, err)
	a2, err := a.Assign(context.Background(), plain, pol)
	require.NoError(t, err)

	assert.Equal(t, a1.Assignments[0].LongID, a2.Assignments[0].LongID)
}

func TestAssignUnresolvableCategoricalFails(t *testing.T) {
	a := newTestAssigner(t) // no dictionary configured
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{{Fields: []types.Field{
			{Name: "location", Value: types.Categorical("1")},
		}}},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.ContentHash})
	require.Error(t, err)
	assert.ErrorIs(t, err, canonical.ErrUnresolvableType)
}

func TestAssignRawNamesPolicy(t *testing.T) {
	a := newTestAssigner(t)
	batchFor := func(name string) types.Batch {
		return types.Batch{
			DatasetTag: "ds1",
			Records: []types.Record{{Fields: []types.Field{
				{Name: name, Value: types.String("John")},
			}}},
		}
	}

	cleaned := policy.Policy{Mode: policy.ContentHash}
	raw := policy.Policy{Mode: policy.ContentHash, RawNames: true}

	c1, err := a.Assign(context.Background(), batchFor("NAME"), cleaned)
	require.NoError(t, err)
	c2, err := a.Assign(context.Background(), batchFor("name"), cleaned)
	require.NoError(t, err)
	assert.Equal(t, c1.Assignments[0].LongID, c2.Assignments[0].LongID)

	r1, err := a.Assign(context.Background(), batchFor("NAME"), raw)
	require.NoError(t, err)
	r2, err := a.Assign(context.Background(), batchFor("name"), raw)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Assignments[0].LongID, r2.Assignments[0].LongID)
}

func TestAssignInvalidPolicy(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records:    []types.Record{personRecord("x", time.Now(), "y")},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: "uuid"})
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrInvalidPolicy)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindPolicy, engErr.Kind)
}

func TestAssignUnknownAlgorithm(t *testing.T) {
	a := newTestAssigner(t)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records:    []types.Record{personRecord("x", time.Now(), "y")},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{
		Mode:      policy.ContentHash,
		Algorithm: "md5-v1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
}

func TestAssignEmptyBatch(t *testing.T) {
	a := newTestAssigner(t)
	_, err := a.Assign(context.Background(), types.Batch{DatasetTag: "ds1"}, policy.Policy{Mode: policy.ContentHash})
	require.Error(t, err)

	var verr *types.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAssignParallelMatchesSerial(t *testing.T) {
	const n = 100
	records := make([]types.Record, n)
	for i := range records {
		records[i] = types.Record{Fields: []types.Field{
			{Name: "id", Value: types.Number(float64(i))},
			{Name: "name", Value: types.String(fmt.Sprintf("record-%d", i))},
		}}
	}
	batch := types.Batch{DatasetTag: "ds1", Records: records}
	pol := policy.Policy{Mode: policy.ContentHash, DatasetScoped: true}

	serial := newTestAssigner(t)
	parallel := newTestAssigner(t, WithConcurrency(8))

	want, err := serial.Assign(context.Background(), batch, pol)
	require.NoError(t, err)
	got, err := parallel.Assign(context.Background(), batch, pol)
	require.NoError(t, err)

	require.Len(t, got.Assignments, n)
	assert.Equal(t, want.Assignments, got.Assignments,
		"parallel execution must preserve batch order and produce identical identifiers")
	assert.Equal(t, want.Collisions, got.Collisions)

	for i, asg := range got.Assignments {
		assert.Equal(t, i, asg.RecordIndex)
	}
}

func TestAssignParallelFailsOnLowestIndexError(t *testing.T) {
	records := make([]types.Record, 20)
	for i := range records {
		records[i] = types.Record{Fields: []types.Field{
			{Name: "name", Value: types.String(fmt.Sprintf("r%d", i))},
		}}
	}
	// Poison two records; the reported failure must be record 3, the
	// lowest index, regardless of goroutine scheduling.
	records[3] = types.Record{Fields: []types.Field{{Name: "bad"}}}
	records[15] = types.Record{Fields: []types.Field{{Name: "bad"}}}

	a := newTestAssigner(t, WithConcurrency(8))
	_, err := a.Assign(context.Background(),
		types.Batch{DatasetTag: "ds1", Records: records},
		policy.Policy{Mode: policy.ContentHash})
	require.Error(t, err)
	assert.ErrorIs(t, err, canonical.ErrUnresolvableType)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, 3, engErr.Context["record"])
}

func TestAssignEmitsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	a := newTestAssigner(t, WithTracer(tp.Tracer("test")))
	batch := types.Batch{
		DatasetTag: "ds1",
		Records:    []types.Record{personRecord("John", time.Now(), "Paris")},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.ContentHash})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "recid.Assign", spans[0].Name())

	attrs := spans[0].Attributes()
	found := false
	for _, attr := range attrs {
		if string(attr.Key) == "recid.dataset_tag" {
			found = true
			assert.Equal(t, "ds1", attr.Value.AsString())
		}
	}
	assert.True(t, found, "span must carry the dataset tag attribute")
}

func TestAssignDoesNotMutateBatch(t *testing.T) {
	a := newTestAssigner(t)
	born := time.Date(1948, 12, 10, 0, 0, 0, 0, time.UTC)
	batch := types.Batch{
		DatasetTag: "ds1",
		Records: []types.Record{
			personRecord("B", born, "Lyon"),
			personRecord("A", born, "Paris"),
		},
	}

	_, err := a.Assign(context.Background(), batch, policy.Policy{Mode: policy.ContentHash})
	require.NoError(t, err)

	name, _ := batch.Records[0].Fields[0].Value.AsString()
	assert.Equal(t, "B", name, "input batch must not be reordered or mutated")
}
