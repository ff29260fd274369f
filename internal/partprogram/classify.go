package partprogram

import (
	"regexp"
	"strings"

	"github.com/jsedlak/cabjobs/constants"
)

// ParamType is the best-effort semantic type of a parameter.
type ParamType string

const (
	TypeBoolean ParamType = "boolean"
	TypeNumber  ParamType = "number"
)

// ClassifyType guesses a parameter's type from its value and free-text
// description. This is a heuristic, not a schema: a wrong guess is a
// cosmetic defect in the editing UI, never a hard error.
func ClassifyType(rawValue, description string) ParamType {
	d := strings.ToLower(description)
	if strings.Contains(d, "yes/no") || strings.Contains(d, "yes=1/no=0") {
		return TypeBoolean
	}
	if (rawValue == "0" || rawValue == "1") && strings.Contains(d, "yes") {
		return TypeBoolean
	}
	return TypeNumber
}

// Deduplicate keeps the first occurrence of each parameter name, in
// insertion order.
func Deduplicate(params []Parameter) []Parameter {
	seen := make(map[string]struct{}, len(params))
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Axis-pair parameters like X_C_Y encode per-panel offsets derived from
// the cabinet's own dimensions. Note the asymmetry: the first axis is
// restricted from Z, the second is not. Existing catalogs depend on the
// exact set this regex accepts.
var perPartPattern = regexp.MustCompile(`^[XY]_C_[XYZ]$`)

// IsAxisPairParameter reports whether name matches the axis-pair pattern
// alone, without the thickness literal. Import validation counts these
// separately from the thickness parameter.
func IsAxisPairParameter(name string) bool {
	return perPartPattern.MatchString(name)
}

// IsPerPartParameter reports whether name encodes per-panel geometry.
// Such parameters must never be copied into job-level storage; they are
// read from each source file's own content at generation time.
func IsPerPartParameter(name string) bool {
	return perPartPattern.MatchString(name) || name == constants.ThicknessParamName
}

// IsExcludedParameter reports whether name is in the fixed legacy set
// filtered out of persisted templates at import time.
func IsExcludedParameter(name string) bool {
	_, ok := constants.ExcludedParameterNames[name]
	return ok
}
