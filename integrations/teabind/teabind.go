// Package teabind connects binding groups and cells to bubbletea programs.
//
// Start the group from Init, watch each cell with a command that is re-issued
// from Update with the delivered version, and release the group before
// quitting. Watching follows the usual bubbletea subscription idiom: each
// Watch command delivers exactly one message.
package teabind

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shpandrak/shpanbind/bind"
)

// GroupStarted is delivered once the group's bindings have been launched.
type GroupStarted struct{}

// GroupStopped is delivered after the group's bindings have been cancelled
// and joined.
type GroupStopped struct{}

// CellUpdated carries a cell snapshot newer than the version a Watch command
// was issued with.
type CellUpdated[T any] struct {
	Name     string
	Snapshot bind.Snapshot[T]
}

// Start returns a command starting the group. The group keeps running until
// released with Stop, so the bindings outlive the command itself.
func Start(g *bind.Group) tea.Cmd {
	return func() tea.Msg {
		g.Start(context.Background())
		return GroupStarted{}
	}
}

// Stop returns a command releasing the group. It blocks until every binding
// task has finished.
func Stop(g *bind.Group) tea.Cmd {
	return func() tea.Msg {
		g.Stop()
		return GroupStopped{}
	}
}

// StopThenQuit releases the group and then quits the program.
func StopThenQuit(g *bind.Group) tea.Cmd {
	return tea.Sequence(Stop(g), tea.Quit)
}

// Watch returns a command delivering the next snapshot of the cell newer than
// since. Keep the subscription alive by re-issuing Watch from Update with the
// delivered snapshot's version. The context bounds the wait, on cancellation
// the command resolves to no message and the subscription ends.
func Watch[T any](ctx context.Context, name string, c *bind.Cell[T], since uint64) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.AwaitChange(ctx, since)
		if err != nil {
			return nil
		}
		return CellUpdated[T]{Name: name, Snapshot: snap}
	}
}
