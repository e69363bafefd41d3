// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quillbotics/servolink/pkg/lss"
)

var tuiPollInterval time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live servo telemetry dashboard",
	Long: `Watch one servo's telemetry in a live terminal dashboard.

The dashboard continuously polls position, speed, voltage, temperature,
current, and status of the servo selected by --id, and tracks exchange
statistics and recent errors.

Press 'q' to quit, 'l' to toggle limp/hold.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().DurationVar(&tuiPollInterval, "interval", 250*time.Millisecond, "Telemetry poll interval")
}

// Dashboard log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// One full telemetry sample
type telemetrySample struct {
	timestamp   time.Time
	position    float64
	speed       float64
	voltage     int64
	temperature int64
	current     int64
	status      lss.Status
}

// Messages
type pollTickMsg struct{}
type telemetryMsg telemetrySample
type pollErrMsg struct{ err error }
type identityMsg struct {
	model    string
	firmware int64
}
type limpToggleMsg struct {
	limp bool
	err  error
}

// Dashboard model
type dashboardModel struct {
	servo    *lss.Servo
	connInfo string
	interval time.Duration

	spin          spinner.Model
	last          *telemetrySample
	model         string
	firmware      int64
	polls         uint64
	pollErrors    uint64
	limp          bool
	eventLog      []logEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

func initialDashboardModel(servo *lss.Servo, connInfo string, interval time.Duration) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return dashboardModel{
		servo:         servo,
		connInfo:      connInfo,
		interval:      interval,
		spin:          s,
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	servo, ex, connInfo, err := openServo()
	if err != nil {
		return err
	}
	defer ex.Close()

	m := initialDashboardModel(servo, connInfo, tuiPollInterval)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		identifyCmd(m.servo),
		pollCmd(m.servo),
	)
}

// identifyCmd reads the servo's static identity once at startup
func identifyCmd(servo *lss.Servo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		model, err := servo.Model(ctx)
		if err != nil {
			return identityMsg{model: "unknown"}
		}
		firmware, err := servo.FirmwareVersion(ctx)
		if err != nil {
			return identityMsg{model: model}
		}
		return identityMsg{model: model, firmware: firmware}
	}
}

// pollCmd reads one full telemetry sample
func pollCmd(servo *lss.Servo) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		var sample telemetrySample
		var err error
		sample.timestamp = time.Now()
		if sample.position, err = servo.Position(ctx); err != nil {
			return pollErrMsg{err}
		}
		if sample.speed, err = servo.Speed(ctx); err != nil {
			return pollErrMsg{err}
		}
		if sample.voltage, err = servo.Voltage(ctx); err != nil {
			return pollErrMsg{err}
		}
		if sample.temperature, err = servo.Temperature(ctx); err != nil {
			return pollErrMsg{err}
		}
		if sample.current, err = servo.Current(ctx); err != nil {
			return pollErrMsg{err}
		}
		if sample.status, err = servo.Status(ctx); err != nil {
			return pollErrMsg{err}
		}
		return telemetryMsg(sample)
	}
}

// limpToggleCmd limps or holds the servo
func limpToggleCmd(servo *lss.Servo, limp bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		var err error
		if limp {
			err = servo.Limp(ctx)
		} else {
			err = servo.Hold(ctx)
		}
		return limpToggleMsg{limp: limp, err: err}
	}
}

func pollAfter(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "l":
			return m, limpToggleCmd(m.servo, !m.limp)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case identityMsg:
		m.model = msg.model
		m.firmware = msg.firmware

	case pollTickMsg:
		return m, pollCmd(m.servo)

	case telemetryMsg:
		sample := telemetrySample(msg)
		m.last = &sample
		m.polls++
		return m, pollAfter(m.interval)

	case pollErrMsg:
		m.polls++
		m.pollErrors++
		m.addLogEntry(fmt.Sprintf("POLL ERROR: %v", msg.err), true)
		return m, pollAfter(m.interval)

	case limpToggleMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("TOGGLE ERROR: %v", msg.err), true)
		} else {
			m.limp = msg.limp
			if msg.limp {
				m.addLogEntry("Servo limp", false)
			} else {
				m.addLogEntry("Servo holding", false)
			}
		}
	}

	return m, nil
}

func (m *dashboardModel) addLogEntry(message string, isError bool) {
	entry := logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m dashboardModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("SERVOLINK - SERVO %d", m.servo.ID())))
	s.WriteString("\n")
	identity := ""
	if m.model != "" {
		identity = fmt.Sprintf(" | Model: %s", lss.ModelName(m.model))
		if m.firmware > 0 {
			identity += fmt.Sprintf(" fw %d", m.firmware)
		}
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s%s | 'l' limp/hold, 'q' quit", m.connInfo, identity)))
	s.WriteString("\n\n")

	// Telemetry
	if m.last == nil {
		s.WriteString(fmt.Sprintf("%s %s", m.spin.View(), warningStyle.Render("Waiting for first telemetry sample...")))
		s.WriteString("\n\n")
	} else {
		t := m.last
		content := strings.Builder{}
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Status:"),
			func() string {
				switch t.status {
				case lss.StatusOutsideLimits, lss.StatusStuck, lss.StatusBlocked, lss.StatusSafeMode:
					return errorStyle.Render(t.status.String())
				case lss.StatusLimp:
					return warningStyle.Render(t.status.String())
				default:
					return valueStyle.Render(t.status.String())
				}
			}(),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Position:"), valueStyle.Render(fmt.Sprintf("%+8.1f°", t.position)),
			labelStyle.Render("Speed:"), valueStyle.Render(fmt.Sprintf("%+8.1f°/s", t.speed)),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
			labelStyle.Render("Voltage:"), valueStyle.Render(fmt.Sprintf("%.3f V", float64(t.voltage)/1000.0)),
			labelStyle.Render("Temp:"), func() string {
				str := fmt.Sprintf("%.1f °C", float64(t.temperature)/10.0)
				if t.temperature >= 700 {
					return errorStyle.Render(str)
				}
				return valueStyle.Render(str)
			}(),
			labelStyle.Render("Current:"), valueStyle.Render(fmt.Sprintf("%d mA", t.current)),
		))

		s.WriteString(boxStyle.Render(content.String()))
		s.WriteString("\n\n")
	}

	// Poll statistics
	var errPercent float64
	if m.polls > 0 {
		errPercent = float64(m.pollErrors) * 100.0 / float64(m.polls)
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Polls: %d | Errors: %d (%.1f%%) | Interval: %s",
		m.polls, m.pollErrors, errPercent, m.interval)))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 14
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
