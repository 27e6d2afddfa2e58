// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/crewsheet/pkg/config"
)

// Phase represents the run stage for color coding.
type Phase string

// Phase constants for run stages.
const (
	PhaseSetup  Phase = "setup"  // config, sheet and model loading
	PhaseAgents Phase = "agents" // agent configuration
	PhaseTasks  Phase = "tasks"  // task configuration
	PhaseCrew   Phase = "crew"   // crew configuration
	PhaseRun    Phase = "run"    // crew execution
)

// ProgressFile is the name of the progress log written into the working directory.
const ProgressFile = "progress-crewsheet.txt"

// Colors holds the console colors, one per phase plus the helpers.
type Colors struct {
	phases    map[Phase]*color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
	info      *color.Color
}

// NewColors builds Colors from "r,g,b" config values. Invalid or empty values fall back to basic colors.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		phases: map[Phase]*color.Color{
			PhaseSetup:  rgbColor(cfg.Info, color.FgWhite),
			PhaseAgents: rgbColor(cfg.Agent, color.FgCyan),
			PhaseTasks:  rgbColor(cfg.Task, color.FgGreen),
			PhaseCrew:   rgbColor(cfg.Crew, color.FgMagenta),
			PhaseRun:    rgbColor(cfg.Run, color.FgBlue),
		},
		warn:      rgbColor(cfg.Warn, color.FgYellow),
		err:       rgbColor(cfg.Error, color.FgRed),
		timestamp: rgbColor(cfg.Timestamp, color.FgWhite),
		info:      rgbColor(cfg.Info, color.FgWhite),
	}
}

// ForPhase returns the color for a phase.
func (c *Colors) ForPhase(p Phase) *color.Color {
	if pc, ok := c.phases[p]; ok {
		return pc
	}
	return c.info
}

// Info returns the color for informational text.
func (c *Colors) Info() *color.Color { return c.info }

func rgbColor(rgb string, fallback color.Attribute) *color.Color {
	parts := strings.Split(rgb, ",")
	if len(parts) != 3 {
		return color.New(fallback)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return color.New(fallback)
		}
		vals[i] = v
	}
	return color.RGB(vals[0], vals[1], vals[2])
}

// Logger writes timestamped output to both file and stdout.
type Logger struct {
	file      *os.File
	path      string
	stdout    io.Writer
	colors    *Colors
	startTime time.Time
	phase     Phase
	debug     bool
}

// Config holds logger configuration.
type Config struct {
	Dir      string // directory for the progress file, empty means the working directory
	SheetURL string // spreadsheet source, written to the header
	NoColor  bool   // disable color output (sets color.NoColor globally)
	Debug    bool   // print Debug messages
}

// NewLogger creates a logger writing to both a progress file and stdout.
func NewLogger(cfg Config, colors *Colors) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}
	if colors == nil {
		colors = NewColors(config.ColorConfig{})
	}

	progressPath := ProgressFile
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
		progressPath = filepath.Join(cfg.Dir, ProgressFile)
	}

	f, err := os.Create(progressPath) //nolint:gosec // fixed file name in a user-chosen dir
	if err != nil {
		return nil, fmt.Errorf("create progress file: %w", err)
	}

	l := &Logger{
		file:      f,
		path:      progressPath,
		stdout:    os.Stdout,
		colors:    colors,
		startTime: time.Now(),
		phase:     PhaseSetup,
		debug:     cfg.Debug,
	}

	sheet := cfg.SheetURL
	if sheet == "" {
		sheet = "(prompted)"
	}
	l.writeFile("# crewsheet progress log\n")
	l.writeFile("Sheet: %s\n", sheet)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the progress file path.
func (l *Logger) Path() string {
	return l.path
}

// SetPhase sets the current run phase for color coding.
func (l *Logger) SetPhase(phase Phase) {
	l.phase = phase
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.ForPhase(l.phase).Sprint(msg))
}

// Debug writes a timestamped message only when debug output is enabled. The file always gets it.
func (l *Logger) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)
	l.writeFile("[%s] DEBUG: %s\n", timestamp, msg)
	if !l.debug {
		return
	}
	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.info.Sprintf("DEBUG: %s", msg))
}

// PrintRaw writes without timestamp.
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			result.WriteString(word)
			lineLen = len(word)
		case lineLen+1+len(word) <= width:
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + len(word)
		default:
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = len(word)
		}
	}
	return result.String()
}

// PrintAligned writes multi-line text, timestamping the first line and indenting the rest.
// Agent answers and tool output go through here.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	phaseColor := l.colors.ForPhase(l.phase)
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "

	width := getTerminalWidth()
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) <= width {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
	}

	for i, line := range lines {
		if line == "" {
			l.writeFile("\n")
			l.writeStdout("\n")
			continue
		}
		if i == 0 {
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, phaseColor.Sprint(line))
			continue
		}
		l.writeFile("%s%s\n", indent, line)
		l.writeStdout("%s%s\n", indent, phaseColor.Sprint(line))
	}
}

// Error writes an error message.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] ERROR: %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.err.Sprintf("ERROR: %s", msg))
}

// Warn writes a warning message.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] WARN: %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, l.colors.warn.Sprintf("WARN: %s", msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the progress file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}
