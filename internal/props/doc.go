// Package props declares and validates the construction-time properties a
// view type accepts.
//
// A Schema is an ordered list of Fields. Each field carries a Go-side kind,
// an optional CUE constraint and an optional default. Schemas can be built
// in Go or parsed from CUE source:
//
//	schema, err := props.ParseSchema(`
//	    title: string | *"Untitled"
//	    limit: int & >0 | *10
//	    mode!: "inline" | "modal"
//	`)
//
// Validation follows the contract {schema, data, context} ->
// {data, errors, hasErrors}: every invalid field yields one FieldError and
// valid or defaulted fields land in Result.Data. Keys the schema does not
// declare are not part of the result; callers decide what to do with them.
package props
