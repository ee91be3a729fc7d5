package protocol

import "slices"

// ModelSupports lists the capabilities a model advertises.
type ModelSupports struct {
	Media      bool           `json:"media" yaml:"media"`
	Output     []OutputFormat `json:"output,omitempty" yaml:"output"`
	Multiturn  bool           `json:"multiturn" yaml:"multiturn"`
	SystemRole bool           `json:"systemRole" yaml:"system_role"`
	Tools      bool           `json:"tools" yaml:"tools"`
}

// ModelInfo describes a model to the host framework.
type ModelInfo struct {
	Label    string        `json:"label" yaml:"label"`
	Supports ModelSupports `json:"supports" yaml:"supports"`
}

// SupportsOutput reports whether the model advertises the given output format.
func (i ModelInfo) SupportsOutput(format OutputFormat) bool {
	return slices.Contains(i.Supports.Output, format)
}
