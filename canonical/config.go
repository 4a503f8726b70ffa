package canonical

// NameMode selects which form of a field's name enters the canonical bytes.
type NameMode int

const (
	// NameCleaned hashes the cleaned field name (trimmed, case-folded).
	// This is the default: identifiers survive cosmetic renames of columns.
	NameCleaned NameMode = iota

	// NameRaw hashes the field name exactly as it appeared in the source.
	// Identifiers then change whenever column spelling changes.
	NameRaw
)

// Config controls canonicalization for one call. Configs are plain immutable
// values passed explicitly; two concurrent calls with different configs
// cannot interfere.
type Config struct {
	// Names selects raw or cleaned field-name hashing.
	Names NameMode

	// DatasetScoped prepends the dataset tag as its own length-prefixed
	// token, so structurally identical records from different datasets
	// canonicalize to different byte sequences.
	DatasetScoped bool

	// Dictionary resolves categorical codes to label text. May be nil when
	// the batch carries no categorical values; canonicalizing a categorical
	// value without a dictionary entry fails with ErrUnresolvableType.
	Dictionary *Dictionary
}
