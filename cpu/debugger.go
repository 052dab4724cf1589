package cpu

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"flex86/mem"
)

// model is the bubbletea model backing Debug: one tick of the CPU per
// keypress, with the architectural state and prefetch queue rendered after
// every Update.
type model struct {
	cpu    *CPU
	prevIP uint16
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.prevIP = m.cpu.IP
			m.cpu.Tick()
		}
	}
	return m, nil
}

func (m model) registers() string {
	illegal := "none"
	if m.cpu.LastIllegalOpcode != nil {
		illegal = fmt.Sprintf("%02x", *m.cpu.LastIllegalOpcode)
	}
	return fmt.Sprintf(`
CS:IP %04x:%04x (was IP %04x)  stage=%d  illegal=%s
 AX %04x  CX %04x  DX %04x  BX %04x
 SP %04x  BP %04x  SI %04x  DI %04x
 ES %04x  SS %04x  DS %04x
FLAGS %04x`,
		m.cpu.Reg(CS), m.cpu.IP, m.prevIP, m.cpu.stage, illegal,
		m.cpu.Reg(AX), m.cpu.Reg(CX), m.cpu.Reg(DX), m.cpu.Reg(BX),
		m.cpu.Reg(SP), m.cpu.Reg(BP), m.cpu.Reg(SI), m.cpu.Reg(DI),
		m.cpu.Reg(ES), m.cpu.Reg(SS), m.cpu.Reg(DS),
		m.cpu.Flags,
	)
}

func (m model) queue() string {
	return fmt.Sprintf(
		"queue %04x %04x %04x  qr=%d qw=%d hl=%v empty=%v  cycles=%d",
		m.cpu.q[0], m.cpu.q[1], m.cpu.q[2],
		m.cpu.qr, m.cpu.qw, m.cpu.hl, m.cpu.empty, m.cpu.cycles,
	)
}

// View renders the current architectural state, the prefetch queue, and a
// dump of the opcode descriptor currently in flight.
func (m model) View() string {
	var op opcodeDef
	if m.cpu.haveOpcode {
		op = opTable[m.cpu.opcodeByte]
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.registers(),
		m.queue(),
		"",
		spew.Sdump(op),
		"",
		"space/j: tick one clock   q: quit",
	)
}

// Debug loads program into bus at the physical address cs:ip, resets the
// CPU to fetch from there, and starts an interactive TUI that advances the
// CPU by exactly one Tick per keypress. This is a debug-only convenience;
// nothing in the core's required operations depends on it.
func (c *CPU) Debug(bus *mem.Bus, program []byte, cs, ip uint16) {
	bus.LoadProgram(program, (uint32(cs)<<4+uint32(ip))&0xFFFFF)
	c.Reset()
	c.SetReg(CS, cs)
	c.IP = ip
	c.currentIP = ip

	if _, err := tea.NewProgram(model{cpu: c, prevIP: ip}).Run(); err != nil {
		panic(err)
	}
}
