package canonical

// Dictionary resolves categorical codes to their label text, per field.
//
// Canonicalization always hashes the label, never the internal code, so a
// record read with coded columns and the same record read with plain strings
// produce identical canonical bytes. Build the dictionary up front and treat
// it as immutable once it is referenced by a Config; it is not safe to
// register entries concurrently with canonicalization.
type Dictionary struct {
	labels map[string]map[string]string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{labels: make(map[string]map[string]string)}
}

// Register adds one code-to-label mapping for the given field. The field
// name is cleaned before storage, so lookups match however the source spells
// the column.
func (d *Dictionary) Register(field, code, label string) {
	key := CleanName(field)
	if d.labels[key] == nil {
		d.labels[key] = make(map[string]string)
	}
	d.labels[key][code] = label
}

// RegisterField adds a full code-to-label mapping for one field at once.
func (d *Dictionary) RegisterField(field string, mappings map[string]string) {
	for code, label := range mappings {
		d.Register(field, code, label)
	}
}

// Lookup resolves a code for the given cleaned field name.
func (d *Dictionary) Lookup(cleanedField, code string) (string, bool) {
	if d == nil || d.labels == nil {
		return "", false
	}
	m, ok := d.labels[cleanedField]
	if !ok {
		return "", false
	}
	label, ok := m[code]
	return label, ok
}
