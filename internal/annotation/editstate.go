package annotation

import "fmt"

// EditState is the live, user-editable mirror of the rendered fields and
// purchase line rows for one document session. It is seeded once, mutated by
// explicit calls from the presentation layer, and read by the feedback
// reconciler at submit time. It is never synchronized back to the
// DocumentResult and keeps no undo history.
type EditState struct {
	documentID string
	fieldOrder []string
	fields     map[string]string
	rows       []map[string]string
}

// NewEditState seeds an edit state from rendered field and line records.
// documentID is the correlation id of the source DocumentResult.
func NewEditState(documentID string, fields []FieldRecord, lines []LineRecord) *EditState {
	e := &EditState{
		documentID: documentID,
		fieldOrder: make([]string, 0, len(fields)),
		fields:     make(map[string]string, len(fields)),
		rows:       make([]map[string]string, 0, len(lines)),
	}
	for _, f := range fields {
		e.fieldOrder = append(e.fieldOrder, f.Field)
		e.fields[f.Field] = f.Value
	}
	for _, l := range lines {
		row := make(map[string]string, len(LineColumns))
		for _, column := range LineColumns {
			row[column] = l.Cells[column]
		}
		e.rows = append(e.rows, row)
	}
	return e
}

// DocumentID returns the correlation id this state was seeded with.
func (e *EditState) DocumentID() string {
	return e.documentID
}

// SetField overwrites a scalar field slot. Last write wins; no validation or
// merging happens here. Setting a field outside the seeded schema creates a
// new slot after the seeded ones.
func (e *EditState) SetField(name, value string) {
	if _, ok := e.fields[name]; !ok {
		e.fieldOrder = append(e.fieldOrder, name)
	}
	e.fields[name] = value
}

// SetCell overwrites one cell of a purchase line row. Last write wins.
func (e *EditState) SetCell(row int, column, value string) error {
	if row < 0 || row >= len(e.rows) {
		return fmt.Errorf("line item row %d out of range (have %d rows)", row, len(e.rows))
	}
	e.rows[row][column] = value
	return nil
}

// Field returns the current value of a scalar field slot.
func (e *EditState) Field(name string) string {
	return e.fields[name]
}

// Fields returns the current scalar slots in seeded order.
func (e *EditState) Fields() []FieldRecord {
	records := make([]FieldRecord, 0, len(e.fieldOrder))
	for _, name := range e.fieldOrder {
		records = append(records, FieldRecord{Field: name, Value: e.fields[name]})
	}
	return records
}

// Rows returns a copy of the current purchase line rows.
func (e *EditState) Rows() []map[string]string {
	rows := make([]map[string]string, 0, len(e.rows))
	for _, row := range e.rows {
		copied := make(map[string]string, len(row))
		for k, v := range row {
			copied[k] = v
		}
		rows = append(rows, copied)
	}
	return rows
}
