package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/certpay/payroll-extractor/internal/payroll"
)

// Pair binds one output column to the record field that feeds it.
type Pair struct {
	TemplateField string
	SourceField   string
}

// Mapping is an ordered set of template-field -> source-field pairs.
// The object order in the mapping file is the column order of every
// export, so decoding must never round-trip through a Go map.
type Mapping struct {
	pairs []Pair
}

// New builds a mapping from pairs, keeping their order.
func New(pairs ...Pair) *Mapping {
	m := &Mapping{pairs: make([]Pair, len(pairs))}
	copy(m.pairs, pairs)
	return m
}

func (m *Mapping) Len() int {
	return len(m.pairs)
}

// Pairs returns the ordered pairs.
func (m *Mapping) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// TemplateFields returns the output column names in order.
func (m *Mapping) TemplateFields() []string {
	out := make([]string, len(m.pairs))
	for i, p := range m.pairs {
		out[i] = p.TemplateField
	}
	return out
}

// Source returns the source field mapped to a template field.
func (m *Mapping) Source(templateField string) (string, bool) {
	for _, p := range m.pairs {
		if p.TemplateField == templateField {
			return p.SourceField, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object preserving key order. A repeated
// key keeps its first position and takes the last value.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("mapping must be a JSON object")
	}

	m.pairs = m.pairs[:0]
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("mapping key must be a string")
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("mapping value for %q must be a string: %w", key, err)
		}
		if i, seen := index[key]; seen {
			m.pairs[i].SourceField = val
			continue
		}
		index[key] = len(m.pairs)
		m.pairs = append(m.pairs, Pair{TemplateField: key, SourceField: val})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	return nil
}

// MarshalJSON encodes the mapping as an object in pair order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	return m.encode(false)
}

// EncodeIndented renders the mapping the way seed files are written:
// two-space indent, one pair per line.
func (m *Mapping) EncodeIndented() ([]byte, error) {
	return m.encode(true)
}

func (m *Mapping) encode(indent bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if indent {
			buf.WriteString("\n  ")
		}
		k, err := json.Marshal(p.TemplateField)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.SourceField)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		if indent {
			buf.WriteString(": ")
		} else {
			buf.WriteByte(':')
		}
		buf.Write(v)
	}
	if indent && len(m.pairs) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the mapped, export-ready view of extracted records: ordered
// columns and one row of cells per employee.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Apply projects records onto the mapping's template fields. It is
// total: every column is present in every row, and records missing a
// source field contribute "".
func Apply(records []payroll.Record, m *Mapping) *Table {
	t := &Table{
		Columns: m.TemplateFields(),
		Rows:    make([][]any, 0, len(records)),
	}
	for _, rec := range records {
		row := make([]any, len(m.pairs))
		for i, p := range m.pairs {
			if v, ok := rec[p.SourceField]; ok {
				row[i] = v
			} else {
				row[i] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// RowMaps returns the rows as column-keyed maps, for JSON responses.
func (t *Table) RowMaps() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rm := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			rm[col] = row[j]
		}
		out[i] = rm
	}
	return out
}
