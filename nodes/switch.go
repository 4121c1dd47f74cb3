package nodes

import "context"

// ModelSwitch passes through one of two model streams based on a boolean,
// e.g. to apply a LoRA conditionally.
type ModelSwitch struct{}

func NewModelSwitch() *ModelSwitch {
	return &ModelSwitch{}
}

func (s *ModelSwitch) Category() string    { return CategoryLogic }
func (s *ModelSwitch) Function() string    { return "switch" }
func (s *ModelSwitch) Description() string { return "Passes through model_b when select_b is set, model_a otherwise." }

func (s *ModelSwitch) Inputs() []InputSpec {
	return []InputSpec{
		{Name: "model_a", Type: TypeModel},
		{Name: "model_b", Type: TypeModel},
		{Name: "select_b", Type: TypeBoolean, Options: &InputOptions{Default: true}},
	}
}

func (s *ModelSwitch) Outputs() []Output {
	return []Output{{Name: "model", Type: TypeModel}}
}

// Switch returns b when selectB is set and a otherwise.
func Switch[T any](a, b T, selectB bool) T {
	if selectB {
		return b
	}
	return a
}

func (s *ModelSwitch) Execute(_ context.Context, in Inputs) ([]any, error) {
	a, err := in.Value("model_a")
	if err != nil {
		return nil, err
	}
	b, err := in.Value("model_b")
	if err != nil {
		return nil, err
	}
	selectB, err := in.Bool("select_b")
	if err != nil {
		return nil, err
	}
	return []any{Switch(a, b, selectB)}, nil
}
