package stash

import (
	"sort"
)

// Schema declares the set of fields a Facade reads and writes, plus
// a default value per field. The defaults are handed back to callers
// only on GetData's recovery path; an individually missing key always
// resolves to a nil entry, never to its default.
type Schema struct {
	fields   []string
	defaults map[string]interface{}
}

// NewSchema builds a schema from a default-valued field table. The
// shape is fixed at construction; the table is copied.
func NewSchema(defaults map[string]interface{}) Schema {
	fields := make([]string, 0, len(defaults))
	table := make(map[string]interface{}, len(defaults))

	for field, value := range defaults {
		fields = append(fields, field)
		table[field] = value
	}

	sort.Strings(fields)

	return Schema{fields: fields, defaults: table}
}

// Fields returns the declared field names in ascending order
func (schema Schema) Fields() []string {
	return append([]string(nil), schema.fields...)
}

// Defaults returns a copy of the default-value table
func (schema Schema) Defaults() map[string]interface{} {
	defaults := make(map[string]interface{}, len(schema.defaults))

	for field, value := range schema.defaults {
		defaults[field] = value
	}

	return defaults
}
