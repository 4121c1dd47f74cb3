package nodes

import (
	"context"
	"fmt"
	"math"

	"github.com/knights-analytics/paramnodes/util/safeconv"
)

// TypeTag names the type of a node socket as the host knows it.
type TypeTag string

const (
	TypeString   TypeTag = "STRING"
	TypeInt      TypeTag = "INT"
	TypeFloat    TypeTag = "FLOAT"
	TypeBoolean  TypeTag = "BOOLEAN"
	TypeImage    TypeTag = "IMAGE"
	TypeMask     TypeTag = "MASK"
	TypeModel    TypeTag = "MODEL"
	TypeWildcard TypeTag = "*" // connects to any socket
)

// Accepts reports whether a socket of type t can be wired to one of type other.
func (t TypeTag) Accepts(other TypeTag) bool {
	return t == TypeWildcard || other == TypeWildcard || t == other
}

// InputOptions is the per-type widget metadata attached to an input.
type InputOptions struct {
	Default   any     `json:"default,omitempty"`
	Min       any     `json:"min,omitempty"`
	Max       any     `json:"max,omitempty"`
	Step      float64 `json:"step,omitempty"`
	Multiline *bool   `json:"multiline,omitempty"`
	Display   string  `json:"display,omitempty"`
}

// InputSpec declares one required input of a node.
type InputSpec struct {
	Name    string
	Type    TypeTag
	Options *InputOptions
}

// Default returns the declared default value, if any.
func (s InputSpec) Default() (any, bool) {
	if s.Options == nil || s.Options.Default == nil {
		return nil, false
	}
	return s.Options.Default, true
}

// Check validates value against the input's type and declared bounds.
// Opaque types (models, images) are passed through unchecked.
func (s InputSpec) Check(value any) error {
	switch s.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("input %s: expected string, got %T", s.Name, value)
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("input %s: expected boolean, got %T", s.Name, value)
		}
	case TypeInt:
		v, err := safeconv.ToUint64(value)
		if err != nil {
			return fmt.Errorf("input %s: %w", s.Name, err)
		}
		if s.Options != nil {
			if lo, err := safeconv.ToUint64(s.Options.Min); err == nil && v < lo {
				return fmt.Errorf("input %s: %d is below minimum %d", s.Name, v, lo)
			}
			if hi, err := safeconv.ToUint64(s.Options.Max); err == nil && v > hi {
				return fmt.Errorf("input %s: %d is above maximum %d", s.Name, v, hi)
			}
		}
	case TypeFloat:
		v, err := safeconv.ToFloat64(value)
		if err != nil {
			return fmt.Errorf("input %s: %w", s.Name, err)
		}
		if math.IsNaN(v) {
			return fmt.Errorf("input %s: NaN is not a valid value", s.Name)
		}
		if s.Options != nil {
			if lo, err := safeconv.ToFloat64(s.Options.Min); err == nil && v < lo {
				return fmt.Errorf("input %s: %g is below minimum %g", s.Name, v, lo)
			}
			if hi, err := safeconv.ToFloat64(s.Options.Max); err == nil && v > hi {
				return fmt.Errorf("input %s: %g is above maximum %g", s.Name, v, hi)
			}
		}
	}
	return nil
}

// Output declares one return slot of a node.
type Output struct {
	Name string
	Type TypeTag
}

// Node is the interface every node registered with the host implements.
type Node interface {
	Category() string                                      // Menu category, e.g. "Params/Input"
	Function() string                                      // Name of the entry point as the host reports it
	Description() string                                   // Short help text
	Inputs() []InputSpec                                   // Declared inputs, in order
	Outputs() []Output                                     // Declared outputs, in order
	Execute(ctx context.Context, in Inputs) ([]any, error) // Map inputs to outputs, in declared order
}

func boolPtr(b bool) *bool {
	return &b
}
