package hooking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var posA = &HookPos{Name: "A"}

type countingHook struct {
	seen []HookCtx
}

func (h *countingHook) Func(ctx HookCtx) {
	h.seen = append(h.seen, ctx)
}

func TestInvokeDeliversToAllHooksInOrder(t *testing.T) {
	base := &HookableBase{}
	first := &countingHook{}
	second := &countingHook{}

	base.AcceptHook(first)
	base.AcceptHook(second)
	assert.Equal(t, 2, base.NumHooks())

	base.InvokeHook(HookCtx{Pos: posA, Item: 42})

	assert.Len(t, first.seen, 1)
	assert.Len(t, second.seen, 1)
	assert.Equal(t, 42, first.seen[0].Item)
	assert.Same(t, posA, first.seen[0].Pos)
}

func TestAcceptHookRefusesDuplicates(t *testing.T) {
	base := &HookableBase{}
	hook := &countingHook{}

	base.AcceptHook(hook)

	assert.Panics(t, func() {
		base.AcceptHook(hook)
	})
}
