package canonical

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/recid-dev/recid/types"
)

// Sentinel errors for canonicalization failures. Both indicate caller input
// the caller must fix; neither is retryable.
var (
	// ErrUnresolvableType indicates a field whose value cannot be reduced
	// to a canonical form: an invalid zero value, or a categorical code
	// with no dictionary entry.
	ErrUnresolvableType = errors.New("unresolvable field type")

	// ErrAmbiguousFieldName indicates two fields of one record whose names
	// clean to the same string. Proceeding would silently merge or shadow a
	// field inside the canonical bytes.
	ErrAmbiguousFieldName = errors.New("ambiguous field name")
)

// canonicalTimeLayout renders every date at fixed width in UTC, regardless
// of the zone or precision the value was parsed with.
const canonicalTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Kind tags inside the canonical byte stream. Values are part of the
// canonical format; never renumber.
const (
	tagNull   byte = 0x00
	tagString byte = 0x01
	tagNumber byte = 0x02
	tagDate   byte = 0x03
	tagBool   byte = 0x04
)

// CleanName returns the normalized form of a field name: surrounding
// whitespace trimmed, then case-folded to lower case.
func CleanName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// VerifyNames checks that no two fields clean to the same name. The check
// runs over the full record, before any field selection, so a selection that
// happens to drop one of the colliding fields cannot mask the ambiguity.
func VerifyNames(fields []types.Field) error {
	seen := make(map[string]string, len(fields))
	for _, f := range fields {
		cleaned := CleanName(f.Name)
		if prev, ok := seen[cleaned]; ok {
			return fmt.Errorf("%w: %q and %q both clean to %q",
				ErrAmbiguousFieldName, prev, f.Name, cleaned)
		}
		seen[cleaned] = f.Name
	}
	return nil
}

// token is one (name, kind, payload) triple awaiting serialization.
type token struct {
	hashName string
	kind     byte
	payload  []byte
}

// Encode produces the canonical byte sequence for the given fields.
//
// The encoding is deterministic and unambiguous by construction:
//
//   - when cfg.DatasetScoped is set, the dataset tag is written first as its
//     own length-prefixed token;
//   - a uvarint field count follows, so field sets of different sizes can
//     never collide;
//   - fields are sorted by the name that enters the hash, and every name and
//     payload is length-prefixed, so no two distinct field sets concatenate
//     to the same bytes.
//
// Field order in the input never affects the output. Encode fails with
// ErrAmbiguousFieldName or ErrUnresolvableType on malformed input; it never
// silently skips a field.
func Encode(fields []types.Field, datasetTag string, cfg Config) ([]byte, error) {
	if err := VerifyNames(fields); err != nil {
		return nil, err
	}

	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		cleaned := CleanName(f.Name)

		kind, payload, err := encodeValue(cleaned, f.Value, cfg.Dictionary)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		hashName := cleaned
		if cfg.Names == NameRaw {
			hashName = f.Name
		}
		tokens = append(tokens, token{hashName: hashName, kind: kind, payload: payload})
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].hashName < tokens[j].hashName
	})

	var buf []byte
	if cfg.DatasetScoped {
		buf = appendToken(buf, []byte(datasetTag))
	}
	buf = binary.AppendUvarint(buf, uint64(len(tokens)))
	for _, t := range tokens {
		buf = appendToken(buf, []byte(t.hashName))
		buf = append(buf, t.kind)
		buf = appendToken(buf, t.payload)
	}
	return buf, nil
}

// encodeValue reduces one value to its canonical kind tag and payload.
// Categorical values resolve through the dictionary and then encode exactly
// like the plain string carrying the same label, which is what makes coded
// and uncoded readings of the same data canonicalize identically.
func encodeValue(cleanedName string, v types.Value, dict *Dictionary) (byte, []byte, error) {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		return tagString, []byte(s), nil

	case types.KindCategorical:
		code, _ := v.Code()
		label, ok := dict.Lookup(cleanedName, code)
		if !ok {
			return 0, nil, fmt.Errorf("%w: no label for categorical code %q",
				ErrUnresolvableType, code)
		}
		return tagString, []byte(label), nil

	case types.KindNumber:
		f, _ := v.AsNumber()
		return tagNumber, []byte(strconv.FormatFloat(f, 'e', 17, 64)), nil

	case types.KindDate:
		t, _ := v.AsDate()
		return tagDate, []byte(t.UTC().Format(canonicalTimeLayout)), nil

	case types.KindBool:
		b, _ := v.AsBool()
		if b {
			return tagBool, []byte("true"), nil
		}
		return tagBool, []byte("false"), nil

	case types.KindNull:
		// Null is its own kind tag with an empty payload, distinct from
		// the empty string which carries tagString.
		return tagNull, nil, nil

	default:
		return 0, nil, fmt.Errorf("%w: kind %s", ErrUnresolvableType, v.Kind())
	}
}

// appendToken writes a length-prefixed byte string.
func appendToken(buf, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}
