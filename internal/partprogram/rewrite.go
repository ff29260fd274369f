package partprogram

import (
	"strconv"
	"strings"

	"github.com/jsedlak/cabjobs/constants"
)

// NumberToLocale renders a number the way parameter value fields expect:
// integers without a decimal point, non-integers via the default float
// conversion, decimal comma. No fixed precision and no trailing-zero
// trimming beyond what the default conversion does — callers must not
// assume a fixed decimal width.
func NumberToLocale(n float64) string {
	return strings.Replace(strconv.FormatFloat(n, 'f', -1, 64), ".", ",", 1)
}

// ToLocaleValue normalizes a user-entered value string into the dialect's
// comma notation for parameter value positions.
func ToLocaleValue(s string) string {
	return strings.ReplaceAll(s, ".", ",")
}

// PanelDims selects which panel-dimension fields to rewrite. Nil fields
// keep their original text exactly, including formatting quirks.
type PanelDims struct {
	Width     *float64
	Height    *float64
	Thickness *float64
}

// RewritePanelDimensions replaces the inner text of the specified numeric
// sub-tags of the first panel-dimensions block. Panel dimensions keep dot
// notation on write, matching the read side. If the block is absent the
// text is returned unchanged.
func RewritePanelDimensions(text string, dims PanelDims) string {
	b, ok := findBlock(text, constants.PanelBlockTag, 0)
	if !ok {
		return text
	}
	raw := b.inner(text)
	for _, f := range []struct {
		field string
		val   *float64
	}{
		{constants.FieldWidth, dims.Width},
		{constants.FieldHeight, dims.Height},
		{constants.FieldThickness, dims.Thickness},
	} {
		if f.val == nil {
			continue
		}
		raw, _ = replaceField(raw, f.field, strconv.FormatFloat(*f.val, 'f', -1, 64))
	}
	return text[:b.innerStart] + raw + text[b.innerEnd:]
}

// RewriteParameterValues rewrites, for each requested name, the value and
// formatted-value fields of the first parameter block carrying that name.
// Values are normalized dot→comma. Names absent from the document are
// silently ignored. When two blocks share a name only the first is
// rewritten, mirroring the parse-side first-occurrence dedup contract.
// All text outside the touched fields is preserved byte-for-byte.
func RewriteParameterValues(text string, updates map[string]string) string {
	for name, value := range updates {
		text = rewriteFirstParameter(text, name, ToLocaleValue(value))
	}
	return text
}

func rewriteFirstParameter(text, name, value string) string {
	for pos := 0; ; {
		b, ok := findBlock(text, constants.ParameterBlockTag, pos)
		if !ok {
			return text
		}
		pos = b.end

		raw := b.inner(text)
		n, ok := fieldValue(raw, constants.FieldName)
		if !ok || n != name {
			continue
		}
		raw, _ = replaceField(raw, constants.FieldValue, value)
		raw, _ = replaceField(raw, constants.FieldValueFormatted, value)
		return text[:b.innerStart] + raw + text[b.innerEnd:]
	}
}

// replaceField swaps the inner text of the first <field>...</field> pair
// in raw. Returns raw unchanged when the field is absent.
func replaceField(raw, field, value string) (string, bool) {
	b, ok := findBlock(raw, field, 0)
	if !ok {
		return raw, false
	}
	return raw[:b.innerStart] + value + raw[b.innerEnd:], true
}
