package sypht

import "strings"

// Results maps extraction field names (for example "document.date") to their
// values. Absent keys mean the service found no value.
type Results map[string]string

// Get returns a trimmed field value. Blank values count as absent.
func (r Results) Get(name string) (string, bool) {
	value, ok := r[name]
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Date returns the document date field.
func (r Results) Date() (string, bool) {
	return r.Get(FieldDate)
}

// SupplierABN returns the supplier ABN field.
func (r Results) SupplierABN() (string, bool) {
	return r.Get(FieldSupplierABN)
}
