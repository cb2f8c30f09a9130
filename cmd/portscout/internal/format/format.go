// Package format provides consistent output rendering for CLI commands.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/portscout/portscout/pkg/discovery"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeJSON outputs data as JSON
	ModeJSON OutputMode = "json"
	// ModeText outputs human-readable text
	ModeText OutputMode = "text"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	foundStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Formatter provides consistent output formatting across CLI commands
type Formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New creates a new Formatter.
func New(stdout, stderr io.Writer, mode OutputMode, quiet, useColor bool) *Formatter {
	if !useColor {
		color.NoColor = true
	}
	return &Formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
		color:  useColor,
	}
}

// PrintJSON outputs data as indented JSON to stdout.
func (f *Formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintTable outputs headers and rows as an aligned text table.
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON {
		var items []map[string]string
		for _, row := range rows {
			item := make(map[string]string)
			for i, header := range headers {
				if i < len(row) {
					item[header] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintJSON(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	if f.color {
		headerLine := make([]string, len(headers))
		for i, h := range headers {
			headerLine[i] = color.New(color.Bold).Sprint(strings.ToUpper(h))
		}
		if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return w.Flush()
}

// PrintSummary outputs a summary message to stdout (unless quiet mode).
func (f *Formatter) PrintSummary(message string) error {
	if f.quiet || f.mode == ModeJSON {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintError outputs an error to stderr (or as JSON to stdout in JSON mode).
func (f *Formatter) PrintError(err error) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]string{"error": err.Error()})
	}
	if f.color {
		_, werr := fmt.Fprintln(f.stderr, color.New(color.FgRed).Sprintf("Error: %v", err))
		return werr
	}
	_, werr := fmt.Fprintf(f.stderr, "Error: %v\n", err)
	return werr
}

// PrintDiscovery renders a discovery result.
func (f *Formatter) PrintDiscovery(res *discovery.Result, host string) error {
	if f.mode == ModeJSON {
		return f.PrintJSON(res)
	}
	if f.quiet {
		if res.Found {
			_, err := fmt.Fprintln(f.stdout, res.Port)
			return err
		}
		return nil
	}

	var line string
	switch {
	case res.Found && f.color:
		line = fmt.Sprintf("%s %s",
			foundStyle.Render("✓"),
			titleStyle.Render(fmt.Sprintf("Companion server on %s:%d", host, res.Port)))
	case res.Found:
		line = fmt.Sprintf("Companion server on %s:%d", host, res.Port)
	case f.color:
		line = fmt.Sprintf("%s %s",
			missingStyle.Render("✗"),
			"No companion server found")
	default:
		line = "No companion server found"
	}
	if _, err := fmt.Fprintln(f.stdout, line); err != nil {
		return err
	}

	detail := fmt.Sprintf("source=%s scanned=%d elapsed=%s",
		res.Source, res.Scanned, res.Elapsed.Round(time.Millisecond))
	if f.color {
		detail = faintStyle.Render(detail)
	}
	_, err := fmt.Fprintln(f.stdout, detail)
	return err
}

const progressBarWidth = 20

// ProgressLine renders a one-line scan progress update for interactive use.
func (f *Formatter) ProgressLine(ev discovery.ProgressEvent) string {
	line := fmt.Sprintf("%s scanned %d/%d (ports %d-%d)",
		progressBar(ev.Scanned, ev.Total), ev.Scanned, ev.Total, ev.BatchLow, ev.BatchHigh)
	if f.color {
		return faintStyle.Render(line)
	}
	return line
}

func progressBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * progressBarWidth / total
	}
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", progressBarWidth-filled) + "]"
}
