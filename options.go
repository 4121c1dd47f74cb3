package paramnodes

import "github.com/knights-analytics/paramnodes/nodes"

type registryOptions struct {
	basePath string
	extra    []classNode
}

type classNode struct {
	class       string
	displayName string
	node        nodes.Node
}

// WithOption is the interface for all option functions
type WithOption func(o *registryOptions)

// WithBasePath sets the directory that relative image paths are resolved against.
// By default, it is the working directory of the process.
func WithBasePath(basePath string) WithOption {
	return func(o *registryOptions) {
		o.basePath = basePath
	}
}

// WithNode registers an additional node next to the built-in ones.
func WithNode(class, displayName string, node nodes.Node) WithOption {
	return func(o *registryOptions) {
		o.extra = append(o.extra, classNode{class: class, displayName: displayName, node: node})
	}
}
