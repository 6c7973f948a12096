package nn

import (
	"errors"

	"github.com/prune-ml/prune/internal/tensor"
)

// ErrModuleNotFound is returned when a hook target is not part of the model.
var ErrModuleNotFound = errors.New("module not found in model")

// ForwardHook observes or rewrites a module's output during Forward.
//
// The hook receives the module that just ran and its output. Returning nil
// leaves the output unchanged (passive observation); returning a tensor
// replaces the output before it reaches the next module (e.g. masking units).
type ForwardHook[B tensor.Backend] func(module Module[B], output *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// HookHandle detaches a registered hook.
type HookHandle struct {
	remove func()
}

// Remove detaches the hook. Safe to call more than once.
func (h *HookHandle) Remove() {
	if h.remove != nil {
		h.remove()
		h.remove = nil
	}
}

// HookRegistrar is implemented by container modules that support forward
// hooks on their children. Sequential implements it; registration recurses
// through nested registrars.
type HookRegistrar[B tensor.Backend] interface {
	RegisterForwardHook(target Module[B], fn ForwardHook[B]) (*HookHandle, error)
}

type hookEntry[B tensor.Backend] struct {
	id     int
	target Module[B]
	fn     ForwardHook[B]
}

// Sequential is a container module that chains modules together; each
// module's output becomes the next module's input.
//
//	model := nn.NewSequential(
//	    nn.NewLinear(2, 4, false, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(4, 1, false, backend),
//	)
//	output := model.Forward(input)
type Sequential[B tensor.Backend] struct {
	modules    []Module[B]
	hooks      []hookEntry[B]
	nextHookID int
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{
		modules: modules,
	}
}

// Forward applies all modules in sequence, running any registered hooks
// after each module. Hooks run in registration order; a non-nil hook result
// replaces the module's output for the rest of the pass.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input

	for _, module := range s.modules {
		output = module.Forward(output)

		for _, h := range s.hooks {
			if h.target != module {
				continue
			}
			if replaced := h.fn(module, output); replaced != nil {
				output = replaced
			}
		}
	}

	return output
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Children returns the direct child modules in order.
func (s *Sequential[B]) Children() []Module[B] {
	children := make([]Module[B], len(s.modules))
	copy(children, s.modules)
	return children
}

// RegisterForwardHook attaches fn to run after target's forward pass.
//
// target may be a direct child or live in a nested container implementing
// HookRegistrar. Returns ErrModuleNotFound if target is not in the model.
func (s *Sequential[B]) RegisterForwardHook(target Module[B], fn ForwardHook[B]) (*HookHandle, error) {
	for _, module := range s.modules {
		if module == target {
			id := s.nextHookID
			s.nextHookID++
			s.hooks = append(s.hooks, hookEntry[B]{id: id, target: target, fn: fn})

			return &HookHandle{remove: func() {
				for i, h := range s.hooks {
					if h.id == id {
						s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
						return
					}
				}
			}}, nil
		}
	}

	// Not a direct child: try nested containers.
	for _, module := range s.modules {
		registrar, ok := module.(HookRegistrar[B])
		if !ok {
			continue
		}
		handle, err := registrar.RegisterForwardHook(target, fn)
		if err == nil {
			return handle, nil
		}
		if !errors.Is(err, ErrModuleNotFound) {
			return nil, err
		}
	}

	return nil, ErrModuleNotFound
}

// Add appends a module to the sequence.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
// Panics if index is out of bounds.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}
