// Package partprogram reads and rewrites the vendor part-program dialect.
//
// The codec is deliberately not an XML parser. Downstream CNC tooling is
// sensitive to the exact bytes of vendor-authored files (whitespace,
// attribute order, encoding declarations), so every operation here works
// by locating literal tag landmarks in the raw text and touching only the
// inner text of recognized sub-fields. Anything the codec does not
// recognize passes through byte-for-byte.
package partprogram

// Panel carries the dimension metadata of one part. Its numeric fields
// use dot decimal notation in the source, unlike parameter values.
type Panel struct {
	Name        string
	Description string
	Width       float64
	Height      float64
	Thickness   float64
}

// Parameter is one parametric override as it appears in the source text.
// Value and ValueFormatted are usually equal but tracked independently;
// the rewriter updates both when both are present.
type Parameter struct {
	Name           string
	Value          string
	Description    string
	ValueFormatted string
	SortID         int
}

// Operation is one machining instruction (e.g. Kind "B" = drill).
// Diameter and Depth default to 0 when absent; Plane and Reference stay
// nil when absent rather than becoming empty strings.
type Operation struct {
	ID        int
	Kind      string
	X         float64
	Y         float64
	Z         float64
	Diameter  float64
	Depth     float64
	Plane     *string
	Reference *string
}

// Document is the ephemeral in-memory form of one part-program file.
type Document struct {
	Panel      *Panel
	Parameters []Parameter
	Operations []Operation
}

// Parse extracts everything the codec recognizes from text.
func Parse(text string) *Document {
	return &Document{
		Panel:      ParsePanel(text),
		Parameters: ParseParameters(text),
		Operations: ParseOperations(text),
	}
}
