package model

import "fmt"

// Collection names of the mock data document
const (
	CollectionUsers         = "users"
	CollectionPatients      = "patients"
	CollectionProfessionals = "professionals"
	CollectionAppointments  = "appointments"
	CollectionFinancialData = "financial_data"
)

// Collections lists every collection exposed by the API, in route order.
var Collections = []string{
	CollectionUsers,
	CollectionPatients,
	CollectionProfessionals,
	CollectionAppointments,
	CollectionFinancialData,
}

// IsCollection reports whether name is one of the known collections
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Record is a schemaless document stored in a collection
type Record map[string]any

// ID returns the record id as a string. Numeric ids from seeded data
// compare equal to their decimal form.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Field returns the string form of a field, or "" when absent
func (r Record) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Without returns a copy of the record with the given keys removed
func (r Record) Without(keys ...string) Record {
	out := r.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
