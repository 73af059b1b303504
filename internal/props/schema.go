package props

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/parser"
	"cuelang.org/go/cue/token"
)

// Kind is the Go-side shape of a field.
type Kind int

const (
	// KindAny accepts any value, including host objects such as elements.
	KindAny Kind = iota
	KindString
	KindBool
	KindInt
	KindNumber
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return "any"
	}
}

// cue returns the CUE type expression for k.
func (k Kind) cue() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindNumber:
		return "number"
	case KindList:
		return "[...]"
	case KindStruct:
		return "{...}"
	default:
		return "_"
	}
}

// Field declares one prop.
type Field struct {
	Name string
	Kind Kind

	// Constraint is a CUE expression unified with the kind, e.g. `>0` or
	// `"inline" | "modal" | *"inline"`. A default marked with * is used when
	// the prop is absent.
	Constraint string

	// Default is used when the prop is absent. It wins over a CUE default.
	Default any

	// DefaultFunc computes the default from the validation context.
	DefaultFunc func(context any) any

	// Required makes an absent prop without any default an error.
	Required bool

	// raw marks fields parsed from CUE: Constraint is the whole expression.
	raw bool
}

// source returns the CUE expression checked against a present value.
func (f Field) source() string {
	switch {
	case f.raw && f.Constraint != "":
		return f.Constraint
	case f.Constraint == "":
		return f.Kind.cue()
	case f.Kind == KindAny:
		return f.Constraint
	default:
		return f.Kind.cue() + " & (" + f.Constraint + ")"
	}
}

// Schema is an ordered set of fields.
type Schema struct {
	fields []Field
}

// NewSchema builds a schema from fields. Later fields with a repeated name
// replace earlier ones.
func NewSchema(fields ...Field) Schema {
	var s Schema
	for _, f := range fields {
		s = s.With(f)
	}
	return s
}

// With returns a copy of s with f added or replaced.
func (s Schema) With(f Field) Schema {
	out := Schema{fields: make([]Field, 0, len(s.fields)+1)}
	replaced := false
	for _, have := range s.fields {
		if have.Name == f.Name {
			out.fields = append(out.fields, f)
			replaced = true
			continue
		}
		out.fields = append(out.fields, have)
	}
	if !replaced {
		out.fields = append(out.fields, f)
	}
	return out
}

// Fields returns the fields in declaration order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks a field up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }

// IsZero reports whether s declares nothing.
func (s Schema) IsZero() bool { return len(s.fields) == 0 }

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// ParseSchema reads a schema from CUE source. Every top-level field becomes
// a prop; `name!:` marks it required and `name?:` optional (the default).
func ParseSchema(src string) (Schema, error) {
	file, err := parser.ParseFile("props.cue", src)
	if err != nil {
		return Schema{}, formatCUEError(err)
	}

	ctx := cuecontext.New()
	whole := ctx.BuildFile(file)
	if err := whole.Err(); err != nil {
		return Schema{}, formatCUEError(err)
	}

	var s Schema
	for _, decl := range file.Decls {
		field, ok := decl.(*ast.Field)
		if !ok {
			continue
		}
		name, _, err := ast.LabelName(field.Label)
		if err != nil {
			return Schema{}, &CompileError{
				Field:   "label",
				Message: fmt.Sprintf("unsupported label: %v", err),
				Pos:     field.Pos(),
			}
		}
		expr, err := format.Node(field.Value)
		if err != nil {
			return Schema{}, &CompileError{Field: name, Message: err.Error(), Pos: field.Pos()}
		}

		s = s.With(Field{
			Name:       name,
			Kind:       kindOf(ctx.CompileString(string(expr))),
			Constraint: string(expr),
			Required:   field.Constraint == token.NOT,
			raw:        true,
		})
	}
	return s, nil
}

// kindOf maps a CUE value's kind onto a Kind.
func kindOf(v cue.Value) Kind {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return KindString
	case cue.BoolKind:
		return KindBool
	case cue.IntKind:
		return KindInt
	case cue.FloatKind, cue.NumberKind:
		return KindNumber
	case cue.ListKind:
		return KindList
	case cue.StructKind:
		return KindStruct
	default:
		return KindAny
	}
}

// CompileError is a schema that does not compile.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: "cue", Message: first.Error()}
}
