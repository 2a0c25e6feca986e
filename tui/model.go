package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"synch-twister/debug"
	"synch-twister/gpio"
	"synch-twister/midi"
	"synch-twister/sequencer"
	"synch-twister/synch"
	"synch-twister/theme"
	"synch-twister/widgets"
)

const tempoStep = 5

var keyHelp = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "p space", Desc: "play / stop"},
		{Key: "+ -", Desc: "tempo"},
		{Key: "c", Desc: "internal / MIDI clock"},
		{Key: "r", Desc: "restart loops"},
	}},
	{Title: "Panel", Keys: []widgets.KeyBinding{
		{Key: "1-9", Desc: "select channel"},
		{Key: "h l", Desc: "previous / next setting"},
		{Key: "j k", Desc: "decrease / increase"},
		{Key: "J K", Desc: "by 10"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager
	Clock     *midi.ClockIn
	Trigger   *midi.TriggerOut
	Latch     *gpio.Latch
	Theme     *theme.Theme
	quitting  bool
	status    string // last port error
}

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, clock *midi.ClockIn,
	trigger *midi.TriggerOut, latch *gpio.Latch, th *theme.Theme) Model {
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Clock:     clock,
		Trigger:   trigger,
		Latch:     latch,
		Theme:     th,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForPorts(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForPorts(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Manager.Stop()
			return m, tea.Quit

		case "p", " ":
			m.Manager.TogglePlay()

		case "+", "=":
			m.Manager.SetTempo(m.Manager.Tempo() + tempoStep)

		case "-", "_":
			m.Manager.SetTempo(m.Manager.Tempo() - tempoStep)

		case "c":
			if m.Manager.ClockSource() == sequencer.ClockInternal {
				m.Manager.SetClockSource(sequencer.ClockExternal)
			} else {
				m.Manager.SetClockSource(sequencer.ClockInternal)
			}

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.Manager.FocusChannel(int(key[0] - '1'))

		default:
			m.Manager.HandleKey(key)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case PortEventMsg:
		m.handlePort(midi.PortEvent(msg))
		return m, ListenForPorts(m.DeviceMgr)
	}

	return m, nil
}

func (m *Model) handlePort(ev midi.PortEvent) {
	debug.Log("tui", "port %s %s type=%d", ev.Dir, ev.Name, ev.Type)
	var err error
	switch {
	case ev.Type == midi.PortConnected && ev.Dir == midi.DirIn && m.Clock != nil:
		err = m.Clock.Open(ev.In)
	case ev.Type == midi.PortConnected && ev.Dir == midi.DirOut && m.Trigger != nil:
		err = m.Trigger.Open(ev.Out)
	case ev.Type == midi.PortDisconnected && ev.Dir == midi.DirIn && m.Clock != nil:
		if m.Clock.PortName() == ev.Name {
			m.Clock.Close()
		}
	case ev.Type == midi.PortDisconnected && ev.Dir == midi.DirOut && m.Trigger != nil:
		if m.Trigger.PortName() == ev.Name {
			m.Trigger.Close()
		}
	}
	if err != nil {
		m.status = err.Error()
		debug.Log("tui", "port error: %v", err)
	} else {
		m.status = ""
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.Manager.Snapshot()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	litStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header(s)))
	out.WriteString("\n\n")

	for i, ch := range s.Channels {
		row := m.channelRow(i, ch, s)
		if i == s.Focus {
			out.WriteString(cursorStyle.Render("> " + row))
		} else {
			out.WriteString(fgStyle.Render("  " + row))
		}
		out.WriteString("\n")
	}

	// Output LEDs
	levels := make([]bool, len(s.Channels))
	for i, ch := range s.Channels {
		if m.Latch != nil {
			levels[i] = m.Latch.Level(ch.Pin)
		}
	}
	out.WriteString("\n  ")
	out.WriteString(widgets.RenderLEDs(levels, litStyle, dimStyle))
	out.WriteString("\n\n")

	// Seven-segment display of the focused setting
	display := lipgloss.JoinHorizontal(lipgloss.Top,
		widgets.RenderSegments(widgets.SegmentsForText(s.ItemLabel), litStyle),
		"   ",
		widgets.RenderSegments(widgets.SegmentsForValue(s.ItemValue), litStyle),
	)
	out.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(display))
	out.WriteString("\n\n")

	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))

	if m.status != "" {
		out.WriteString("\n\n")
		out.WriteString(warnStyle.Render(m.status))
	}

	return out.String()
}

func (m Model) header(s sequencer.State) string {
	sym, playState := m.Theme.Symbols.Stopped, "STOP"
	if s.Playing {
		sym, playState = m.Theme.Symbols.Playing, "PLAY"
	}

	tempo := fmt.Sprintf("%3dbpm", s.Tempo)
	if s.Source == sequencer.ClockExternal {
		tempo = "---bpm"
		if m.Clock != nil && m.Clock.BPM() > 0 {
			tempo = fmt.Sprintf("%3.0fbpm", m.Clock.BPM())
		}
	}

	in, out := "-", "-"
	if m.Clock != nil && m.Clock.PortName() != "" {
		in = m.Clock.PortName()
	}
	if m.Trigger != nil && m.Trigger.PortName() != "" {
		out = m.Trigger.PortName()
	}

	return fmt.Sprintf("synch-twister  %c %s  %s  %s  in:%s  out:%s",
		sym, playState, tempo, s.Source, in, out)
}

func (m Model) channelRow(idx int, ch sequencer.ChannelState, s sequencer.State) string {
	var row strings.Builder
	fmt.Fprintf(&row, "%d pin%-2d ", idx+1, ch.Pin)

	for p := synch.Param(0); p < synch.NumParams; p++ {
		val := fmt.Sprint(ch.Params[p])
		if p == synch.ParamMutator {
			val = ch.Mutator
		}
		item := fmt.Sprintf("%s %-4s", p, val)
		if idx == s.Focus && int(p) == s.Item {
			item = "[" + item + "]"
		} else {
			item = " " + item + " "
		}
		row.WriteString(item)
	}
	for j, label := range ch.MutatorLabels {
		item := fmt.Sprintf("%s %-3d", label, ch.MutatorParams[j])
		if idx == s.Focus && int(synch.NumParams)+j == s.Item {
			item = "[" + item + "]"
		} else {
			item = " " + item + " "
		}
		row.WriteString(item)
	}

	fmt.Fprintf(&row, "  %02d/%02d %c", ch.Step, ch.Params[synch.ParamSteps], m.stateSymbol(ch.State))
	return row.String()
}

func (m Model) stateSymbol(st synch.State) rune {
	switch st {
	case synch.StatePulse, synch.StatePulsing:
		return m.Theme.Symbols.Pulse
	case synch.StateRecover:
		return m.Theme.Symbols.Recover
	}
	return m.Theme.Symbols.Ready
}
