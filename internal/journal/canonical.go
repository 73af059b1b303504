package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical renders entries as a canonical JSON array.
//
// Object keys are sorted by UTF-16 code units, strings are NFC normalized,
// and <, >, & are not escaped. The output is stable across runs and is used
// for golden files.
func MarshalCanonical(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalObject(e.fields())
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalCanonicalLines renders one canonical JSON object per line.
func MarshalCanonicalLines(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range entries {
		b, err := marshalObject(e.fields())
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func marshalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareUTF16(keys[i], keys[j]) < 0
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		switch v := obj[k].(type) {
		case string:
			vb, err := marshalString(v)
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		case int64:
			fmt.Fprintf(&buf, "%d", v)
		case bool:
			if v {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		default:
			return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}
