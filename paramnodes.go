package paramnodes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/phuslu/log"
	"github.com/richinsley/comfy2go/graphapi"

	"github.com/knights-analytics/paramnodes/nodes"
)

// Registry holds the nodes exposed to the host, keyed by class name.
type Registry struct {
	nodes        nodeMap[nodes.Node]
	displayNames map[string]string
	basePath     string
}

type nodeMap[T nodes.Node] map[string]T

func (m nodeMap[T]) GetNode(class string) (T, error) {
	n, ok := m[class]
	if !ok {
		return n, fmt.Errorf("node class %s is not registered", class)
	}
	return n, nil
}

// NewRegistry returns a registry holding the built-in parameter, image and
// switch nodes plus any nodes added with WithNode.
func NewRegistry(opts ...WithOption) (*Registry, error) {
	o := &registryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		o.basePath = wd
	}

	r := &Registry{
		nodes:        nodeMap[nodes.Node]{},
		displayNames: map[string]string{},
		basePath:     o.basePath,
	}
	builtins := []classNode{
		{"ParamString", "String Param", nodes.NewParamString()},
		{"ParamInt", "Integer Param", nodes.NewParamInt()},
		{"ParamFloat", "Float Param", nodes.NewParamFloat()},
		{"ParamBoolean", "Boolean Param", nodes.NewParamBoolean()},
		{"ParamUniversal", "Universal Param (for Combos)", nodes.NewParamUniversal()},
		{"ParamImage", "Image Path Param", nodes.NewImageLoader(o.basePath)},
		{"HelperModelSwitch", "Model Switch", nodes.NewModelSwitch()},
	}

	var errList []error
	for _, c := range append(builtins, o.extra...) {
		errList = append(errList, r.Register(c.class, c.displayName, c.node))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	log.Debug().Int("nodes", len(r.nodes)).Str("base_path", r.basePath).Msg("registered nodes")
	return r, nil
}

// Register adds node under class. Class names are unique.
func (r *Registry) Register(class, displayName string, node nodes.Node) error {
	if class == "" {
		return errors.New("node class name is empty")
	}
	if node == nil {
		return fmt.Errorf("node %s is nil", class)
	}
	if _, ok := r.nodes[class]; ok {
		return fmt.Errorf("node class %s is already registered", class)
	}
	if displayName == "" {
		displayName = class
	}
	r.nodes[class] = node
	r.displayNames[class] = displayName
	return nil
}

func (r *Registry) GetNode(class string) (nodes.Node, error) {
	return r.nodes.GetNode(class)
}

func (r *Registry) DisplayName(class string) string {
	return r.displayNames[class]
}

func (r *Registry) BasePath() string {
	return r.basePath
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	classes := make([]string, 0, len(r.nodes))
	for class := range r.nodes {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Invoke runs the node registered under class. Missing inputs take their
// declared default and every value is checked against its InputSpec before
// the node runs, the way the host does before calling a node.
func (r *Registry) Invoke(ctx context.Context, class string, inputs map[string]any) ([]any, error) {
	node, err := r.GetNode(class)
	if err != nil {
		return nil, err
	}

	specs := node.Inputs()
	in := make(nodes.Inputs, len(specs))
	var errList []error
	for _, spec := range specs {
		v, ok := inputs[spec.Name]
		if !ok {
			if v, ok = spec.Default(); !ok {
				errList = append(errList, fmt.Errorf("%s: missing required input %s", class, spec.Name))
				continue
			}
		}
		if err := spec.Check(v); err != nil {
			errList = append(errList, fmt.Errorf("%s: %w", class, err))
			continue
		}
		in[spec.Name] = v
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return node.Execute(ctx, in)
}

// InvokePrompt runs a single node given in the host's API prompt format.
// Inputs must be literals: links to other nodes are resolved by the host.
func (r *Registry) InvokePrompt(ctx context.Context, node graphapi.PromptNode) ([]any, error) {
	for name, v := range node.Inputs {
		if _, linked := v.([]interface{}); linked {
			return nil, fmt.Errorf("%s: input %s is linked to another node", node.ClassType, name)
		}
	}
	return r.Invoke(ctx, node.ClassType, node.Inputs)
}

// NodeInfo describes one node class in the host's object_info format.
type NodeInfo struct {
	Input       NodeInputs          `json:"input"`
	InputOrder  map[string][]string `json:"input_order"`
	Output      []nodes.TypeTag     `json:"output"`
	OutputName  []string            `json:"output_name"`
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Function    string              `json:"function"`
	OutputNode  bool                `json:"output_node"`
}

// NodeInputs maps input names to [type] or [type, options].
type NodeInputs struct {
	Required map[string][]any `json:"required"`
}

// ObjectInfo describes every registered node, keyed by class name.
func (r *Registry) ObjectInfo() map[string]NodeInfo {
	info := make(map[string]NodeInfo, len(r.nodes))
	for class, node := range r.nodes {
		required := map[string][]any{}
		order := []string{}
		for _, spec := range node.Inputs() {
			entry := []any{spec.Type}
			if spec.Options != nil {
				entry = append(entry, spec.Options)
			}
			required[spec.Name] = entry
			order = append(order, spec.Name)
		}

		outputs := node.Outputs()
		types := make([]nodes.TypeTag, len(outputs))
		names := make([]string, len(outputs))
		for i, o := range outputs {
			types[i] = o.Type
			names[i] = o.Name
		}

		info[class] = NodeInfo{
			Input:       NodeInputs{Required: required},
			InputOrder:  map[string][]string{"required": order},
			Output:      types,
			OutputName:  names,
			Name:        class,
			DisplayName: r.displayNames[class],
			Description: node.Description(),
			Category:    node.Category(),
			Function:    node.Function(),
		}
	}
	return info
}

func (r *Registry) MarshalObjectInfo() ([]byte, error) {
	return jsoniter.Marshal(r.ObjectInfo())
}
