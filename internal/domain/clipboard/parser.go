// Package clipboard turns text pasted from a spreadsheet into positional
// row updates. The parser is pure: it never sees the table it targets and
// keeps no state between calls.
package clipboard

import (
	"strings"

	"github.com/garyjia/invoice-intake/internal/domain/entity"
)

// Delimiter separates the two columns of a spreadsheet selection
const Delimiter = "\t"

// Kind is the shape detected for a paste
type Kind int

const (
	// KindNone means the paste carried no usable text
	KindNone Kind = iota
	// KindScalar is a single value for the focused cell only
	KindScalar
	// KindSingleColumn fills the origin column downwards from the anchor row
	KindSingleColumn
	// KindTwoColumn fills a primary and a secondary column per line
	KindTwoColumn
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSingleColumn:
		return "single_column"
	case KindTwoColumn:
		return "two_column"
	default:
		return "none"
	}
}

// Pair assigns the halves of a delimited line to two fields
type Pair struct {
	Primary   entity.Field
	Secondary entity.Field
}

// Layout is the fixed role lookup of a table, keyed by the column the paste
// landed on. Columns without an entry never split on the delimiter.
type Layout map[entity.Field]Pair

// ProductTableLayout is the barcode/model table of the upload screen
var ProductTableLayout = Layout{
	entity.FieldBarcode: {Primary: entity.FieldBarcode, Secondary: entity.FieldModel},
	entity.FieldModel:   {Primary: entity.FieldModel, Secondary: entity.FieldBarcode},
}

// LineItemLayout is the PO creation table of the preview screen. The model
// column of the upload screen is stored as the item's manufacturer code.
var LineItemLayout = Layout{
	entity.FieldBarcode: {Primary: entity.FieldBarcode, Secondary: entity.FieldManCode},
	entity.FieldManCode: {Primary: entity.FieldManCode, Secondary: entity.FieldBarcode},
}

// Context describes where the paste landed
type Context struct {
	Column    entity.Field
	AnchorRow int
	Layout    Layout
}

// Row is a partial row update. Fields missing from Values are left as they are.
type Row struct {
	Index  int
	Values map[entity.Field]string
}

// Paste is the parse result, tagged by Kind
type Paste struct {
	Kind      Kind
	Column    entity.Field
	Primary   entity.Field
	Secondary entity.Field
	Anchor    int
	Rows      []Row
}

// IsEmpty reports whether applying the paste would be a no-op
func (p Paste) IsEmpty() bool {
	return p.Kind == KindNone || len(p.Rows) == 0
}

// LastIndex returns the highest row index touched by the paste, or -1
func (p Paste) LastIndex() int {
	last := -1
	for _, r := range p.Rows {
		if r.Index > last {
			last = r.Index
		}
	}
	return last
}

// Parse splits raw clipboard text into row updates anchored at ctx.AnchorRow
func Parse(raw string, ctx Context) Paste {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return Paste{Kind: KindNone, Column: ctx.Column}
	}

	anchor := ctx.AnchorRow
	if anchor < 0 {
		anchor = 0
	}

	pair, paired := ctx.Layout[ctx.Column]
	delimited := paired && strings.Contains(lines[0], Delimiter)

	if len(lines) == 1 && !delimited {
		return Paste{
			Kind:    KindScalar,
			Column:  ctx.Column,
			Primary: ctx.Column,
			Anchor:  anchor,
			Rows:    []Row{{Index: anchor, Values: map[entity.Field]string{ctx.Column: lines[0]}}},
		}
	}

	if delimited {
		return twoColumn(lines, ctx.Column, pair, anchor)
	}

	rows := make([]Row, len(lines))
	for i, line := range lines {
		rows[i] = Row{Index: anchor + i, Values: map[entity.Field]string{ctx.Column: line}}
	}

	return Paste{
		Kind:    KindSingleColumn,
		Column:  ctx.Column,
		Primary: ctx.Column,
		Anchor:  anchor,
		Rows:    rows,
	}
}

func twoColumn(lines []string, column entity.Field, pair Pair, anchor int) Paste {
	rows := make([]Row, len(lines))
	for i, line := range lines {
		// a line without a delimiter blanks the secondary field
		primary, secondary, _ := strings.Cut(line, Delimiter)

		rows[i] = Row{Index: anchor + i, Values: map[entity.Field]string{
			pair.Primary:   strings.TrimSpace(primary),
			pair.Secondary: strings.TrimSpace(secondary),
		}}
	}

	return Paste{
		Kind:      KindTwoColumn,
		Column:    column,
		Primary:   pair.Primary,
		Secondary: pair.Secondary,
		Anchor:    anchor,
		Rows:      rows,
	}
}

// splitLines splits on CR/LF, trims every line and drops empty ones
func splitLines(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
