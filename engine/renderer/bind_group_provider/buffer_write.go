package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteBuffers submits every write to queue in order, stopping at the first failure.
//
// Parameters:
//   - queue: the queue to write through
//   - writes: the writes to perform
//
// Returns:
//   - error: error if a binding has no buffer or a write fails
func WriteBuffers(queue gpu.Queue, writes ...BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("bind group %q: no buffer at binding %d", w.Provider.Label(), w.Binding)
		}
		if err := queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return err
		}
	}
	return nil
}
