package props

import (
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// FieldError is one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result is the outcome of validating one set of props.
type Result struct {
	Data      map[string]any `json:"data"`
	Errors    []FieldError   `json:"errors,omitempty"`
	HasErrors bool           `json:"hasErrors"`
}

// Validator checks raw input against a schema. context is whatever the
// caller validates on behalf of (a view, in practice) and is handed to
// Field.DefaultFunc.
type Validator interface {
	Validate(schema Schema, data map[string]any, context any) Result
}

// CUEValidator checks fields with CUE. Compiled constraints are cached per
// expression.
//
// Thread-safety: safe for concurrent use; a mutex serialises access to the
// CUE context.
type CUEValidator struct {
	mu    sync.Mutex
	ctx   *cue.Context
	cache map[string]cue.Value
}

// NewValidator returns a CUE-backed validator.
func NewValidator() *CUEValidator {
	return &CUEValidator{
		ctx:   cuecontext.New(),
		cache: make(map[string]cue.Value),
	}
}

// Validate implements Validator.
func (v *CUEValidator) Validate(schema Schema, data map[string]any, context any) Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	res := Result{Data: make(map[string]any, schema.Len())}
	for _, f := range schema.fields {
		raw, present := data[f.Name]
		if present {
			if err := v.check(f, raw); err != nil {
				res.Errors = append(res.Errors, FieldError{Field: f.Name, Message: err.Error()})
				continue
			}
			res.Data[f.Name] = raw
			continue
		}

		def, ok, err := v.defaultFor(f, context)
		switch {
		case err != nil:
			res.Errors = append(res.Errors, FieldError{Field: f.Name, Message: err.Error()})
		case ok:
			res.Data[f.Name] = def
		case f.Required:
			res.Errors = append(res.Errors, FieldError{Field: f.Name, Message: "required prop is missing"})
		}
	}
	res.HasErrors = len(res.Errors) > 0
	return res
}

func (v *CUEValidator) constraint(f Field) (cue.Value, error) {
	src := f.source()
	if c, ok := v.cache[src]; ok {
		return c, nil
	}
	c := v.ctx.CompileString(src)
	if err := c.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid constraint %q: %s", src, firstMessage(err))
	}
	v.cache[src] = c
	return c, nil
}

func (v *CUEValidator) check(f Field, raw any) error {
	if f.Kind == KindAny && f.Constraint == "" {
		return nil
	}
	c, err := v.constraint(f)
	if err != nil {
		return err
	}
	enc := v.ctx.Encode(raw)
	if err := enc.Err(); err != nil {
		return fmt.Errorf("cannot check %T against %s: %s", raw, f.source(), firstMessage(err))
	}
	if err := c.Unify(enc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", firstMessage(err))
	}
	return nil
}

// defaultFor resolves the default of an absent field: Default, then
// DefaultFunc, then a CUE default marked with *.
func (v *CUEValidator) defaultFor(f Field, context any) (any, bool, error) {
	if f.Default != nil {
		return f.Default, true, nil
	}
	if f.DefaultFunc != nil {
		if d := f.DefaultFunc(context); d != nil {
			return d, true, nil
		}
	}
	if f.Constraint == "" {
		return nil, false, nil
	}
	c, err := v.constraint(f)
	if err != nil {
		return nil, false, err
	}
	d, ok := c.Default()
	if !ok || !d.IsConcrete() {
		return nil, false, nil
	}
	var out any
	if err := d.Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decoding default: %s", firstMessage(err))
	}
	return out, true, nil
}

// firstMessage flattens a CUE error list into its first message.
func firstMessage(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return strings.TrimSpace(errs[0].Error())
}
