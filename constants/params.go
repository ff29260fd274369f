package constants

// ThicknessParamName is the literal per-part parameter carrying panel
// thickness. It is excluded from job-level parameter storage together
// with the axis-pair parameters (see partprogram.IsPerPartParameter).
const ThicknessParamName = "HRUB"

// ExcludedParameterNames are legacy/internal parameter names filtered out
// of a persisted template's editable parameter list at import time. They
// are not filtered from the codec's own parse output.
var ExcludedParameterNames = map[string]struct{}{
	"_VERSION":  {},
	"_SOURCE":   {},
	"_CHECKSUM": {},
}
