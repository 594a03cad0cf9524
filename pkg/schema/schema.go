package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrNilSchema is returned by Compile when given no schema.
var ErrNilSchema = errors.New("schema: nil schema")

// ValidationError describes the first violation found in a body.
type ValidationError struct {
	// Path is the dotted path to the offending field, empty for the
	// whole document.
	Path string

	// Message is a human-readable description of the violation.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("PATH: [%s] ;; MESSAGE: %s", e.Path, e.Message)
}

// Schema is a compiled JSON Schema. The zero value is not usable; create
// one with Compile or Parse.
type Schema struct {
	resolved *jsonschema.Resolved

	required []string
	closed   bool

	// names holds the keys of props in lexical order.
	names []string
	props map[string]*Schema

	// tuple holds positional item schemas; items applies to every
	// element past the tuple.
	tuple []*Schema
	items *Schema
}

// Parse decodes a JSON Schema document and compiles it.
func Parse(data []byte) (*Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decoding: %w", err)
	}
	return Compile(&s)
}

// MustParse is like Parse but panics on error. It is meant for schemas
// declared as package-level literals.
func MustParse(data string) *Schema {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// Compile resolves s into a Schema. The argument is not retained.
func Compile(s *jsonschema.Schema) (*Schema, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	s, err := clone(s)
	if err != nil {
		return nil, err
	}
	c := &compiler{defs: s.Defs, defsKey: "#/$defs/"}
	if s.Defs == nil && s.Definitions != nil {
		c.defs, c.defsKey = s.Definitions, "#/definitions/"
	}
	return c.compile(s, true, nil)
}

// compiler carries the root's definitions so sub-schemas that use a
// local $ref can be resolved, and walked, on their own.
type compiler struct {
	defs    map[string]*jsonschema.Schema
	defsKey string
}

// compile resolves s and its property and item sub-schemas. chain lists
// the definitions being expanded, so recursive definitions stop at the
// first repeat and are left to the enclosing node.
func (c *compiler) compile(s *jsonschema.Schema, root bool, chain []string) (*Schema, error) {
	if !root {
		c.attachDefs(s)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		if root {
			return nil, fmt.Errorf("schema: resolving: %w", err)
		}
		// Sub-schemas that only resolve in the context of the root are
		// checked by the root instead.
		return nil, nil
	}

	// The shape to walk comes from the referenced definition when s is
	// a local $ref.
	shape := s
	if name, ok := strings.CutPrefix(s.Ref, c.defsKey); ok && !slices.Contains(chain, name) {
		if target := c.defs[name]; target != nil {
			shape = target
			chain = append(slices.Clone(chain), name)
		}
	}

	out := &Schema{
		resolved: resolved,
		required: append([]string(nil), shape.Required...),
		closed:   isFalse(shape.AdditionalProperties),
	}

	if len(shape.Properties) > 0 {
		out.props = make(map[string]*Schema, len(shape.Properties))
		for name, ps := range shape.Properties {
			if ps == nil {
				continue
			}
			child, err := c.sub(ps, chain)
			if err != nil {
				return nil, err
			}
			if child != nil {
				out.props[name] = child
			}
			out.names = append(out.names, name)
		}
		sort.Strings(out.names)
	}

	tuple, rest := shape.PrefixItems, shape.Items
	if shape.ItemsArray != nil {
		tuple, rest = shape.ItemsArray, shape.AdditionalItems
	}
	for _, ts := range tuple {
		var child *Schema
		if ts != nil {
			if child, err = c.sub(ts, chain); err != nil {
				return nil, err
			}
		}
		out.tuple = append(out.tuple, child)
	}
	if rest != nil {
		if out.items, err = c.sub(rest, chain); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (c *compiler) sub(s *jsonschema.Schema, chain []string) (*Schema, error) {
	cs, err := clone(s)
	if err != nil {
		return nil, err
	}
	return c.compile(cs, false, chain)
}

// attachDefs gives a sub-schema its own copy of the root definitions.
func (c *compiler) attachDefs(s *jsonschema.Schema) {
	if len(c.defs) == 0 || s.Defs != nil || s.Definitions != nil {
		return
	}
	defs := make(map[string]*jsonschema.Schema, len(c.defs))
	for name, d := range c.defs {
		if d == nil {
			continue
		}
		if dc, err := clone(d); err == nil {
			defs[name] = dc
		}
	}
	if c.defsKey == "#/$defs/" {
		s.Defs = defs
	} else {
		s.Definitions = defs
	}
}

// Validate checks body against s and returns the first violation as a
// *ValidationError, or nil. A nil schema accepts every body. body should
// be the result of decoding JSON into an any.
func Validate(body any, s *Schema) error {
	if s == nil {
		return nil
	}
	if v := s.validate("", body); v != nil {
		return v
	}
	return nil
}

func (s *Schema) validate(path string, value any) *ValidationError {
	if obj, ok := value.(map[string]any); ok {
		for _, name := range s.required {
			if _, present := obj[name]; !present {
				return &ValidationError{
					Path:    join(path, name),
					Message: fmt.Sprintf("%q is required", name),
				}
			}
		}

		if s.closed {
			var unknown []string
			for key := range obj {
				if !s.declares(key) {
					unknown = append(unknown, key)
				}
			}
			if len(unknown) > 0 {
				sort.Strings(unknown)
				return &ValidationError{
					Path:    join(path, unknown[0]),
					Message: fmt.Sprintf("%q is not allowed", unknown[0]),
				}
			}
		}

		for _, name := range s.names {
			v, present := obj[name]
			if !present {
				continue
			}
			child := s.props[name]
			if child == nil {
				continue
			}
			if verr := child.validate(join(path, name), v); verr != nil {
				return verr
			}
		}
	}

	if arr, ok := value.([]any); ok {
		for i, elem := range arr {
			child := s.items
			if i < len(s.tuple) {
				child = s.tuple[i]
			}
			if child == nil {
				continue
			}
			if verr := child.validate(join(path, strconv.Itoa(i)), elem); verr != nil {
				return verr
			}
		}
	}

	if err := s.resolved.Validate(value); err != nil {
		return &ValidationError{Path: path, Message: message(err)}
	}
	return nil
}

func (s *Schema) declares(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// message strips the library's location prefix, which repeats Path.
func message(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "validating root: "); ok {
		msg = rest
	}
	return msg
}

// clone deep-copies a schema so resolution never touches caller-owned
// or shared nodes.
func clone(s *jsonschema.Schema) (*jsonschema.Schema, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("schema: copying: %w", err)
	}
	var c jsonschema.Schema
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("schema: copying: %w", err)
	}
	return &c, nil
}

// isFalse reports whether s is the schema that matches nothing, written
// as false in JSON.
func isFalse(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}
	data, err := json.Marshal(s)
	if err != nil {
		return false
	}
	return string(data) == "false" || string(data) == `{"not":{}}`
}
