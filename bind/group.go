package bind

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// BindingState describes where a binding's forwarding task is in its
// lifecycle. A task moves Idle -> Running -> Exhausted or Cancelled; there are
// no retries and no automatic restarts.
type BindingState int32

const (
	// StateIdle means the binding is declared but its task has not started.
	StateIdle BindingState = iota

	// StateRunning means the forwarding task is consuming its source.
	StateRunning

	// StateExhausted means the source ended on its own, whether by running
	// out of elements or by delivering its terminal failure outcome.
	StateExhausted

	// StateCancelled means the group stopped the task before its source ended.
	StateCancelled
)

func (s BindingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// BindingStatus is a point-in-time view of one binding in a group.
type BindingStatus struct {
	Name  string
	State BindingState
}

// Group ties a set of bindings to the visible lifetime of their consumer.
//
// Start launches one forwarding task per binding, all of them concurrently,
// in declaration order. Stop cancels all of them together and waits for every
// task to return, so after Stop no cell of the group is mutated again.
// A stopped group can be started again; every start materializes each source
// from scratch.
//
// Errors never escape a group: source failures are delivered into cells as
// Failure outcomes, and the only way a forwarding loop itself terminates
// early is its own cancellation.
type Group struct {
	cfg      config
	bindings []Binding

	mu   sync.Mutex
	curr *groupRun
}

// groupRun is the state of a single Start/Stop cycle. Keeping it per cycle
// means a Stop that is still joining can never observe the tasks of a newer
// Start.
type groupRun struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64
	tasks  []*bindingTask
}

type bindingTask struct {
	name  string
	state atomic.Int32
	run   func(ctx context.Context) error
}

// NewGroup declares a group over the given bindings. The group owns no
// goroutines until Start is called.
func NewGroup(bindings []Binding, opts ...Option) *Group {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Group{cfg: cfg, bindings: bindings}
}

// Start launches every binding's forwarding task. The tasks run until their
// source ends or until Stop cancels them; task contexts derive from ctx, so
// cancelling ctx stops the group's tasks as well (Stop should still be called
// to join them).
//
// Starting a group that is already running is a caller bug and panics.
func (g *Group) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.curr != nil {
		if g.curr.active.Load() > 0 {
			panic("bind: group already started")
		}
		// The previous cycle fully finished on its own, release its context
		g.curr.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &groupRun{
		cancel: cancel,
		tasks:  make([]*bindingTask, len(g.bindings)),
	}
	for i, b := range g.bindings {
		r.tasks[i] = &bindingTask{name: g.bindingName(i), run: b.run}
	}
	r.active.Store(int64(len(r.tasks)))
	g.curr = r

	// Launch in declaration order. Order fixes launch only, the tasks run
	// concurrently from here on
	for _, tk := range r.tasks {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer r.active.Add(-1)

			started := time.Now()
			tk.state.Store(int32(StateRunning))
			if g.cfg.onStart != nil {
				g.cfg.onStart(BindingInfo{Name: tk.name})
			}

			err := tk.run(runCtx)

			final := StateExhausted
			if err != nil {
				final = StateCancelled
			}
			tk.state.Store(int32(final))
			if g.cfg.onDone != nil {
				g.cfg.onDone(BindingInfo{Name: tk.name}, final, time.Since(started))
			}
		}()
	}
}

// Stop cancels all forwarding tasks of the current cycle and waits for every
// one of them to return. It is idempotent, and a no-op for a group that was
// never started. Once Stop returns, no cell bound in this group is mutated
// until the next Start.
func (g *Group) Stop() {
	g.mu.Lock()
	r := g.curr
	g.mu.Unlock()

	if r == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
}

// Running reports whether any forwarding task of the current cycle is still
// alive.
func (g *Group) Running() bool {
	return g.Active() > 0
}

// Active returns the number of forwarding tasks that have not finished yet.
func (g *Group) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.curr == nil {
		return 0
	}
	return int(g.curr.active.Load())
}

// States lists every binding with its current lifecycle state, in declaration
// order. Before the first Start all bindings are idle; after a cycle finished
// the terminal states remain visible until the next Start.
func (g *Group) States() []BindingStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]BindingStatus, len(g.bindings))
	if g.curr == nil {
		for i := range g.bindings {
			result[i] = BindingStatus{Name: g.bindingName(i), State: StateIdle}
		}
		return result
	}
	for i, tk := range g.curr.tasks {
		result[i] = BindingStatus{Name: tk.name, State: BindingState(tk.state.Load())}
	}
	return result
}

func (g *Group) bindingName(i int) string {
	if g.bindings[i].name != "" {
		return g.bindings[i].name
	}
	return fmt.Sprintf("binding-%d", i)
}
