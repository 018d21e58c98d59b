// Package hooking lets observers attach to the driver's components
// without the components knowing who is listening. A component declares
// the positions it can report from; a hook receives a context every time
// one of those positions is reached, e.g. after each debug-bus scan.
package hooking

// HookPos identifies one position in a component's flow that hooks can
// observe. Positions are compared by pointer, so each one is declared
// exactly once, as a package-level variable.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives when it fires: the component the event
// came from, the position, and the event payload.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// Hookable is implemented by components that report events to hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// A Hook is invoked by the component it is registered with. Hooks run on
// the caller's goroutine and must not call back into the component.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements hook registration and delivery, for embedding
// in components that fire hooks.
type HookableBase struct {
	hooks []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, registered := range h.hooks {
		if registered == hook {
			panic("hook is already registered")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook delivers ctx to every registered hook, in registration
// order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
