// Package tui is a terminal monitor showing live telemetry with keyboard
// teleoperation.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robotalks/drive.go/pkg/host"
	"github.com/robotalks/drive.go/pkg/protocol"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

// RefreshInterval is how often the view polls the client.
const RefreshInterval = 100 * time.Millisecond

const maxLogEntries = 8

// Driver is the vehicle side of the monitor, implemented by host.Client.
type Driver interface {
	SetMotor(mmps int16) error
	SetSteering(deg int8) error
	EmergencyStop() error
	EnableHeartbeat(on bool)
	HeartbeatEnabled() bool
	Commanded() (motor int16, steering int8)
	Latest() *protocol.Telemetry
	Stats() host.Stats
}

// Limits bounds the keyboard commands.
type Limits struct {
	MaxForward int16
	MaxReverse int16
	SteerLimit int8
	SpeedStep  int16
	SteerStep  int8
}

// LimitsFor derives limits from a calibration profile.
func LimitsFor(p vehicle.Profile) Limits {
	return Limits{
		MaxForward: p.Motor.MaxForward,
		MaxReverse: p.Motor.MaxReverse,
		SteerLimit: int8(p.Servo.Limit),
		SpeedStep:  50,
		SteerStep:  2,
	}
}

type tickMsg time.Time

type logEntry struct {
	at      time.Time
	message string
	isError bool
}

// Model is the bubbletea model of the monitor.
type Model struct {
	driver   Driver
	connInfo string
	limits   Limits

	keys keyMap
	help help.Model

	telemetry *protocol.Telemetry
	stats     host.Stats
	lastRate  host.Stats
	rateAt    time.Time
	rate      float64
	log       []logEntry

	width    int
	height   int
	quitting bool
}

// New creates the monitor model.
func New(driver Driver, connInfo string, limits Limits) Model {
	return Model{
		driver:   driver,
		connInfo: connInfo,
		limits:   limits,
		keys:     defaultKeyMap(),
		help:     help.New(),
		width:    80,
		height:   24,
	}
}

// Run starts the program on the terminal.
func Run(driver Driver, connInfo string, limits Limits) error {
	_, err := tea.NewProgram(New(driver, connInfo, limits), tea.WithAltScreen()).Run()
	return err
}

func tickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case tickMsg:
		m.refresh(time.Time(msg))
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) refresh(now time.Time) {
	m.telemetry = m.driver.Latest()
	m.stats = m.driver.Stats()
	if m.rateAt.IsZero() {
		m.rateAt, m.lastRate = now, m.stats
		return
	}
	if dt := now.Sub(m.rateAt); dt >= time.Second {
		m.rate = float64(m.stats.Telemetry-m.lastRate.Telemetry) / dt.Seconds()
		m.rateAt, m.lastRate = now, m.stats
	}
}

func (m *Model) addLog(isError bool, format string, args ...interface{}) {
	m.log = append(m.log, logEntry{at: time.Now(), message: fmt.Sprintf(format, args...), isError: isError})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

func (m *Model) report(err error, format string, args ...interface{}) {
	if err != nil {
		m.addLog(true, "%s: %v", fmt.Sprintf(format, args...), err)
		return
	}
	m.addLog(false, format, args...)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	motor, steering := m.driver.Commanded()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		err := m.driver.EmergencyStop()
		m.report(err, "stop on quit")
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Stop):
		m.report(m.driver.EmergencyStop(), "emergency stop")
	case key.Matches(msg, m.keys.Faster), key.Matches(msg, m.keys.Slower):
		step := int(m.limits.SpeedStep)
		if key.Matches(msg, m.keys.Slower) {
			step = -step
		}
		v := int16(clampInt(int(motor)+step, int(m.limits.MaxReverse), int(m.limits.MaxForward)))
		m.report(m.driver.SetMotor(v), "motor %d mm/s", v)
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		step := int(m.limits.SteerStep)
		if key.Matches(msg, m.keys.Left) {
			step = -step
		}
		lim := int(m.limits.SteerLimit)
		v := int8(clampInt(int(steering)+step, -lim, lim))
		m.report(m.driver.SetSteering(v), "steer %d°", v)
	case key.Matches(msg, m.keys.Center):
		m.report(m.driver.SetSteering(0), "steer 0°")
	case key.Matches(msg, m.keys.Heartbeat):
		on := !m.driver.HeartbeatEnabled()
		m.driver.EnableHeartbeat(on)
		m.addLog(false, "heartbeat %v", on)
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func field(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

func vector(v [3]float32, format string) string {
	return fmt.Sprintf("["+format+" "+format+" "+format+"]", v[0], v[1], v[2])
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var s strings.Builder
	s.WriteString(titleStyle.Render("drive monitor") + " " + headerStyle.Render(m.connInfo) + "\n\n")

	motor, steering := m.driver.Commanded()
	hb := "off"
	if m.driver.HeartbeatEnabled() {
		hb = "on"
	}
	command := strings.Join([]string{
		field("motor", fmt.Sprintf("%d mm/s", motor)),
		field("steer", fmt.Sprintf("%d°", steering)),
		field("heartbeat", hb),
	}, "\n")

	var telemetry string
	if t := m.telemetry; t != nil {
		telemetry = strings.Join([]string{
			field("time", fmt.Sprintf("%d ms", t.Timestamp)),
			field("speed", fmt.Sprintf("%+.3f m/s", t.Speed)),
			field("accel", vector(t.Accel, "%.0f")+" mm/s²"),
			field("gyro", vector(t.Gyro, "%+.3f")+" rad/s"),
			field("rate", fmt.Sprintf("%.0f Hz", m.rate)),
		}, "\n")
	} else {
		telemetry = warningStyle.Render("waiting for telemetry...")
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(command), " ", boxStyle.Render(telemetry)))
	s.WriteString("\n")

	s.WriteString(headerStyle.Render(fmt.Sprintf("tx %d  rx %d  telemetry %d  skipped %d bytes",
		m.stats.FramesSent, m.stats.FramesRecv, m.stats.Telemetry, m.stats.SkippedBytes)))
	s.WriteString("\n\n")

	for _, e := range m.log {
		line := e.at.Format("15:04:05.000") + " " + e.message
		if e.isError {
			line = errorStyle.Render(line)
		}
		s.WriteString(line + "\n")
	}
	s.WriteString("\n" + m.help.View(m.keys))
	return s.String()
}
