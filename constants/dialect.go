package constants

import "strings"

// Landmarks of the part-program dialect. The codec locates these literal
// tag pairs by scanning; it never builds a document tree.
const (
	PanelBlockTag     = "PanelDimensions"
	ParameterBlockTag = "Parameter"
	MachiningBlockTag = "Machining"
)

// Sub-fields recognized inside the blocks above.
const (
	FieldName           = "Name"
	FieldDescription    = "Description"
	FieldWidth          = "Width"
	FieldHeight         = "Height"
	FieldThickness      = "Thickness"
	FieldValue          = "Value"
	FieldValueFormatted = "ValueFormatted"
	FieldSortID         = "SortID"
	FieldID             = "ID"
	FieldType           = "Type"
	FieldX              = "X"
	FieldY              = "Y"
	FieldZ              = "Z"
	FieldDiameter       = "Diameter"
	FieldDepth          = "Depth"
	FieldPlane          = "Plane"
	FieldReference      = "Reference"
)

// PartProgramExt is the file extension of dialect files in a catalog
// source directory.
const PartProgramExt = "xml"

// IsPartProgramFile reports whether filename carries the dialect extension.
func IsPartProgramFile(filename string) bool {
	return strings.EqualFold(strings.TrimPrefix(ext(filename), "."), PartProgramExt)
}

func ext(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i:]
	}
	return ""
}
