package nodes

import (
	"context"
	"math"
)

const (
	CategoryParams = "Params/Input"
	CategoryLogic  = "Helpers/Logic"
)

const valueName = "value"

// ParamNode passes a single configured value through unchanged. It lets an
// API caller set prompts, seeds, strengths and combo choices on a graph.
type ParamNode[T any] struct {
	input       InputSpec
	output      TypeTag
	description string
	read        func(in Inputs, name string) (T, error)
}

func (p *ParamNode[T]) Category() string    { return CategoryParams }
func (p *ParamNode[T]) Function() string    { return "get_value" }
func (p *ParamNode[T]) Description() string { return p.description }
func (p *ParamNode[T]) Inputs() []InputSpec { return []InputSpec{p.input} }

func (p *ParamNode[T]) Outputs() []Output {
	return []Output{{Name: valueName, Type: p.output}}
}

// Get returns the configured value.
func (p *ParamNode[T]) Get(in Inputs) (T, error) {
	return p.read(in, p.input.Name)
}

func (p *ParamNode[T]) Execute(_ context.Context, in Inputs) ([]any, error) {
	v, err := p.Get(in)
	if err != nil {
		return nil, err
	}
	return []any{v}, nil
}

// NewParamString returns the multiline text parameter, e.g. for prompts.
func NewParamString() *ParamNode[string] {
	return &ParamNode[string]{
		input: InputSpec{
			Name:    valueName,
			Type:    TypeString,
			Options: &InputOptions{Default: "", Multiline: boolPtr(true)},
		},
		output:      TypeString,
		description: "A string (text) parameter from the API, e.g. for prompts.",
		read:        Inputs.String,
	}
}

// NewParamInt returns the integer parameter used for seeds, steps and
// dimensions. Its range covers the full unsigned 64-bit seed space.
func NewParamInt() *ParamNode[uint64] {
	return &ParamNode[uint64]{
		input: InputSpec{
			Name:    valueName,
			Type:    TypeInt,
			Options: &InputOptions{Default: uint64(0), Min: uint64(0), Max: uint64(math.MaxUint64)},
		},
		output:      TypeInt,
		description: "An integer parameter from the API, e.g. for seed, steps or dimensions.",
		read:        Inputs.Uint64,
	}
}

// NewParamFloat returns the float parameter, e.g. for LoRA strength or CFG.
func NewParamFloat() *ParamNode[float64] {
	return &ParamNode[float64]{
		input: InputSpec{
			Name: valueName,
			Type: TypeFloat,
			Options: &InputOptions{
				Default: 1.0,
				Min:     -100.0,
				Max:     100.0,
				Step:    0.01,
				Display: "number",
			},
		},
		output:      TypeFloat,
		description: "A float parameter from the API, e.g. for LoRA strength or CFG scale.",
		read:        Inputs.Float64,
	}
}

func NewParamBoolean() *ParamNode[bool] {
	return &ParamNode[bool]{
		input: InputSpec{
			Name:    valueName,
			Type:    TypeBoolean,
			Options: &InputOptions{Default: true},
		},
		output:      TypeBoolean,
		description: "A boolean parameter from the API, for enabling or disabling features.",
		read:        Inputs.Bool,
	}
}

// NewParamUniversal returns a string parameter whose output is the wildcard
// type, so it can feed any combo input (model or sampler names).
func NewParamUniversal() *ParamNode[string] {
	return &ParamNode[string]{
		input: InputSpec{
			Name:    valueName,
			Type:    TypeString,
			Options: &InputOptions{Default: "None", Multiline: boolPtr(false)},
		},
		output:      TypeWildcard,
		description: "A universal parameter that can be connected to any combo widget.",
		read:        Inputs.String,
	}
}
