package nodes

import (
	"fmt"

	"github.com/knights-analytics/paramnodes/util/safeconv"
)

// Inputs holds the values the host passes to a node, keyed by input name.
type Inputs map[string]any

func (in Inputs) Value(name string) (any, error) {
	v, ok := in[name]
	if !ok {
		return nil, fmt.Errorf("missing input %s", name)
	}
	return v, nil
}

func (in Inputs) String(name string) (string, error) {
	v, err := in.Value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("input %s: expected string, got %T", name, v)
	}
	return s, nil
}

func (in Inputs) Bool(name string) (bool, error) {
	v, err := in.Value(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("input %s: expected boolean, got %T", name, v)
	}
	return b, nil
}

func (in Inputs) Uint64(name string) (uint64, error) {
	v, err := in.Value(name)
	if err != nil {
		return 0, err
	}
	u, err := safeconv.ToUint64(v)
	if err != nil {
		return 0, fmt.Errorf("input %s: %w", name, err)
	}
	return u, nil
}

func (in Inputs) Float64(name string) (float64, error) {
	v, err := in.Value(name)
	if err != nil {
		return 0, err
	}
	f, err := safeconv.ToFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("input %s: %w", name, err)
	}
	return f, nil
}
