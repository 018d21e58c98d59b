package scanlog

import (
	"github.com/openchip/rvdbg/dtm"
	"github.com/openchip/rvdbg/hooking"
)

// Tracer is a hook that feeds every debug-bus scan of a session into a
// Recorder. Attach it with session.AcceptHook.
type Tracer struct {
	recorder *Recorder
}

// NewTracer creates a Tracer writing to recorder.
func NewTracer(recorder *Recorder) *Tracer {
	return &Tracer{recorder: recorder}
}

// Func implements hooking.Hook.
func (t *Tracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != dtm.HookPosScan {
		return
	}

	info := ctx.Item.(dtm.ScanInfo)

	t.recorder.Record(Record{
		Seq:     int64(info.Seq),
		Op:      info.Op.String(),
		Address: int64(info.Address),
		DataOut: int64(info.DataOut),
		Result:  info.Result.String(),
		DataIn:  int64(info.DataIn),
	})
}
