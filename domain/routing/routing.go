// Package routing maps an extracted field value to a destination URL
// via an ordered, first-match-wins lookup table.
package routing

import (
	"github.com/flowbridge/flowbridge/domain/jsonvalue"
)

// Entry is one (key, destination) pair of a RouteMapping. Keys are
// unique within a mapping; order is the YAML source order.
type Entry struct {
	Key string
	URL string
}

// Mapping binds a routing field to an ordered list of entries.
type Mapping struct {
	Field   jsonvalue.FieldPath
	Entries []Entry
}

// Diagnostic carries the context the pipeline surfaces when routing
// fails: the field path consulted, the stringified value extracted
// (if any), and how many mappings were consulted.
type Diagnostic struct {
	FieldPath       string
	RoutingValue    string
	ValueFound      bool
	MappingsChecked int
}

// Select resolves mappings[0]'s routing field against body and looks
// up the extracted value in configuration order. Only the first
// mapping in the list is consulted — additional entries are parsed
// and validated but ignored at match time (§4.3, §9 open question 1).
func Select(body jsonvalue.Value, mappings []Mapping) (matched bool, url string, diag Diagnostic) {
	if len(mappings) == 0 {
		return false, "", Diagnostic{MappingsChecked: 0}
	}

	mapping := mappings[0]
	diag.FieldPath = mapping.Field.Source()
	diag.MappingsChecked = 1

	found, value := jsonvalue.Resolve(body, mapping.Field)
	if !found {
		return false, "", diag
	}

	diag.ValueFound = true
	diag.RoutingValue = jsonvalue.Lexical(value)

	for _, entry := range mapping.Entries {
		if entry.Key == diag.RoutingValue {
			return true, entry.URL, diag
		}
	}
	return false, "", diag
}
