package trace

import (
	"context"
	"strconv"
	"time"
)

// Heartbeat emits a liveness event at a fixed interval. A trace that keeps
// beating without span ends points at a stuck fixpoint loop.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartHeartbeat starts beating; it returns nil when tracing is off.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		beat(ctx, tracer, interval)
	}()
	return h
}

func beat(ctx context.Context, tracer Tracer, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	gid := goroutineID()
	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			tracer.Emit(&Event{Time: now, Seq: NextSeq(), Kind: KindHeartbeat, Scope: ScopeCommand, GID: gid, Name: "heartbeat", Detail: "#" + strconv.Itoa(n)})
		}
	}
}

// Stop ends the goroutine and waits for it. Safe on nil and repeated calls.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
