// Package schema validates decoded JSON request bodies against a JSON
// Schema and reports the first violation with the path of the offending
// field.
//
// Schemas are compiled once at route registration and are immutable
// afterwards, so a compiled Schema can be shared by concurrent requests.
// Violations are reported in a fixed order: missing required properties
// in declared order, then properties not allowed by the schema in lexical
// order, then declared properties in lexical order (recursing into nested
// objects and array elements), and finally constraints on the whole
// value, reported with the path of the node that carries them.
//
// Array elements are addressed by index, so the second element of "list"
// is "list.1". Local references ("#/$defs/..." and "#/definitions/...")
// are followed for path reporting; a recursive reference is expanded once
// and deeper violations are reported at the point of recursion.
package schema
