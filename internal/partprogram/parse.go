package partprogram

import (
	"strconv"
	"strings"

	"github.com/jsedlak/cabjobs/constants"
)

// block is one located tag pair: absolute bounds of the whole block and
// of its inner text.
type block struct {
	start, end           int // text[start:end] including tags
	innerStart, innerEnd int // text[innerStart:innerEnd] between tags
}

func (b block) inner(text string) string {
	return text[b.innerStart:b.innerEnd]
}

// findBlock locates the next <tag>...</tag> pair at or after from.
func findBlock(text, tag string, from int) (block, bool) {
	openTag := "<" + tag + ">"
	closeTag := "</" + tag + ">"
	i := strings.Index(text[from:], openTag)
	if i < 0 {
		return block{}, false
	}
	start := from + i
	innerStart := start + len(openTag)
	j := strings.Index(text[innerStart:], closeTag)
	if j < 0 {
		return block{}, false
	}
	innerEnd := innerStart + j
	return block{start: start, end: innerEnd + len(closeTag), innerStart: innerStart, innerEnd: innerEnd}, true
}

// fieldValue extracts the inner text of the first <field>...</field> pair
// inside raw.
func fieldValue(raw, field string) (string, bool) {
	b, ok := findBlock(raw, field, 0)
	if !ok {
		return "", false
	}
	return b.inner(raw), true
}

// parseLocaleFloat converts a dialect number to float64, tolerating the
// locale decimal comma.
func parseLocaleFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

// ParsePanel extracts the first panel-dimensions block. It returns nil if
// the block or any of its numeric fields is absent or unparseable;
// callers treat nil as "no dimension metadata", not as an error.
func ParsePanel(text string) *Panel {
	b, ok := findBlock(text, constants.PanelBlockTag, 0)
	if !ok {
		return nil
	}
	raw := b.inner(text)

	p := &Panel{}
	p.Name, _ = fieldValue(raw, constants.FieldName)
	p.Description, _ = fieldValue(raw, constants.FieldDescription)

	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{constants.FieldWidth, &p.Width},
		{constants.FieldHeight, &p.Height},
		{constants.FieldThickness, &p.Thickness},
	} {
		s, ok := fieldValue(raw, f.field)
		if !ok {
			return nil
		}
		// Panel dimensions use dot notation in the source.
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		*f.dst = v
	}
	return p
}

// ParseParameters extracts every parameter block in document order. A
// block without a name field is skipped entirely; its other fields are
// not recoverable. Duplicate names are kept here — deduplication is the
// classifier's contract, not the parser's.
func ParseParameters(text string) []Parameter {
	var params []Parameter
	for pos := 0; ; {
		b, ok := findBlock(text, constants.ParameterBlockTag, pos)
		if !ok {
			break
		}
		pos = b.end

		raw := b.inner(text)
		name, ok := fieldValue(raw, constants.FieldName)
		if !ok {
			continue
		}
		p := Parameter{Name: name}
		p.Value, _ = fieldValue(raw, constants.FieldValue)
		p.Description, _ = fieldValue(raw, constants.FieldDescription)
		p.ValueFormatted, _ = fieldValue(raw, constants.FieldValueFormatted)
		if s, ok := fieldValue(raw, constants.FieldSortID); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				p.SortID = n
			}
		}
		params = append(params, p)
	}
	return params
}

// ParseOperations extracts every machining block in document order. A
// block without a kind code is skipped. Numeric subfields default to 0
// on absence or parse failure; Plane/Reference stay nil when absent.
func ParseOperations(text string) []Operation {
	var ops []Operation
	for pos := 0; ; {
		b, ok := findBlock(text, constants.MachiningBlockTag, pos)
		if !ok {
			break
		}
		pos = b.end

		raw := b.inner(text)
		kind, ok := fieldValue(raw, constants.FieldType)
		if !ok {
			continue
		}
		op := Operation{Kind: kind}
		if s, ok := fieldValue(raw, constants.FieldID); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				op.ID = n
			}
		}
		for _, f := range []struct {
			field string
			dst   *float64
		}{
			{constants.FieldX, &op.X},
			{constants.FieldY, &op.Y},
			{constants.FieldZ, &op.Z},
			{constants.FieldDiameter, &op.Diameter},
			{constants.FieldDepth, &op.Depth},
		} {
			if s, ok := fieldValue(raw, f.field); ok {
				if v, err := parseLocaleFloat(s); err == nil {
					*f.dst = v
				}
			}
		}
		if s, ok := fieldValue(raw, constants.FieldPlane); ok {
			op.Plane = &s
		}
		if s, ok := fieldValue(raw, constants.FieldReference); ok {
			op.Reference = &s
		}
		ops = append(ops, op)
	}
	return ops
}
