package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shpandrak/shpanbind/bind"
	"github.com/shpandrak/shpanbind/integrations/teabind"
	"github.com/shpandrak/shpanbind/stream"
)

// Ticker demo: two synthetic feeds bound into cells and rendered with
// bubbletea. The price feed drifts until it wanders out of band and fails,
// showing how the last quote stays on screen next to the recorded problem.
// Press q to quit, r to stop the bindings and start a fresh cycle.

type quote struct {
	Symbol string
	Price  float64
}

func priceFeed(symbol string, start float64, every time.Duration) stream.Stream[quote] {
	price := start
	return stream.NewSimpleStream(
		func(ctx context.Context) (quote, error) {
			select {
			case <-ctx.Done():
				return quote{}, ctx.Err()
			case <-time.After(every):
			}
			price += (rand.Float64() - 0.5) * 3
			if price > start*1.08 || price < start*0.92 {
				return quote{}, fmt.Errorf("%s feed out of band at %.2f", symbol, price)
			}
			return quote{Symbol: symbol, Price: price}, nil
		},
		stream.WithOpenFuncOption(func(ctx context.Context) error {
			// Each cycle starts from the base price again
			price = start
			return nil
		}),
	)
}

func clockFeed(every time.Duration) stream.Stream[string] {
	return stream.NewSimpleStream(func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(every):
		}
		return time.Now().Format("15:04:05"), nil
	})
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
	priceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cardStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
)

type model struct {
	group *bind.Group
	quote *bind.Cell[quote]
	clock *bind.Cell[string]

	lastQuote  bind.Snapshot[quote]
	lastClock  bind.Snapshot[string]
	status     string
	restarting bool
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		teabind.Start(m.group),
		teabind.Watch(context.Background(), "quote", m.quote, 0),
		teabind.Watch(context.Background(), "clock", m.clock, 0),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, teabind.StopThenQuit(m.group)
		case "r":
			if m.restarting {
				return m, nil
			}
			m.restarting = true
			m.status = "restarting"
			return m, tea.Sequence(teabind.Stop(m.group), teabind.Start(m.group))
		}
	case teabind.GroupStarted:
		m.status = "live"
		m.restarting = false
	case teabind.GroupStopped:
		m.status = "stopped"
	case teabind.CellUpdated[quote]:
		m.lastQuote = msg.Snapshot
		return m, teabind.Watch(context.Background(), msg.Name, m.quote, msg.Snapshot.Version)
	case teabind.CellUpdated[string]:
		m.lastClock = msg.Snapshot
		return m, teabind.Watch(context.Background(), msg.Name, m.clock, msg.Snapshot.Version)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("shpanbind ticker") + "\n")
	b.WriteString(faintStyle.Render("status: "+m.status) + "\n\n")

	q := m.lastQuote
	card := fmt.Sprintf("%s  %s", q.Value.Symbol, priceStyle.Render(fmt.Sprintf("%.2f", q.Value.Price)))
	if q.Err != nil {
		card += "\n" + errStyle.Render("problem: "+q.Err.Error())
	}
	b.WriteString(cardStyle.Render(card) + "\n")

	b.WriteString(faintStyle.Render("clock "+m.lastClock.Value) + "\n\n")
	b.WriteString(faintStyle.Render("q quit, r restart") + "\n")
	return b.String()
}

func main() {
	quoteCell := bind.NewCell(quote{Symbol: "ACME", Price: 100})
	clockCell := bind.NewCell(time.Now().Format("15:04:05"))

	group := bind.NewGroup(
		[]bind.Binding{
			bind.Assign(priceFeed("ACME", 100, 400*time.Millisecond), quoteCell).Named("quote"),
			bind.Assign(clockFeed(time.Second), clockCell).Named("clock"),
		},
	)

	m := model{
		group:     group,
		quote:     quoteCell,
		clock:     clockCell,
		lastQuote: quoteCell.Snapshot(),
		lastClock: clockCell.Snapshot(),
		status:    "starting",
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running ticker: %v\n", err)
		os.Exit(1)
	}
}
