package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cellar/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	stylePinned = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(18)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Tables
// =============================================================================

// printTable renders rows under headers with a rounded border. Rows whose
// index is in highlight are drawn in the pinned style.
func printTable(w io.Writer, headers []string, rows [][]string, highlight map[int]bool) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case highlight[row]:
				return base.Inherit(stylePinned)
			case col == 0:
				return base.Inherit(StyleHighlight)
			}
			return base
		})
	fmt.Fprintln(w, t)
}

// =============================================================================
// Pipeline Results
// =============================================================================

// printResults reports each pipeline result on its own line. verb names the
// action for planned (dry-run) results, e.g. "install".
func printResults(results []pipeline.Result, verb string) {
	for _, r := range results {
		switch r.Status {
		case pipeline.StatusInstalled:
			printSuccess("%s %s", StyleHighlight.Render(r.Name), r.Version)
			printFile(r.Keg.Path)
		case pipeline.StatusUpgraded:
			printSuccess("%s %s %s %s", StyleHighlight.Render(r.Name), r.OldVersion, iconArrow, r.Version)
		case pipeline.StatusUpToDate:
			printInfo("%s %s already up to date", r.Name, r.Version)
		case pipeline.StatusPinned:
			printWarning("%s %s is pinned, not upgrading", r.Name, r.OldVersion)
		case pipeline.StatusUninstalled:
			printSuccess("Uninstalled %s %s (%d symlinks removed)", StyleHighlight.Render(r.Name), r.Version, r.Linked)
		case pipeline.StatusLinked:
			printSuccess("Linked %s %s (%d symlinks created)", StyleHighlight.Render(r.Name), r.Version, r.Linked)
		case pipeline.StatusAlreadyLinked:
			printInfo("%s %s is already linked", r.Name, r.Version)
		case pipeline.StatusUnlinked:
			printSuccess("Unlinked %s (%d symlinks removed)", StyleHighlight.Render(r.Name), r.Linked)
		case pipeline.StatusPlanned:
			printInfo("Would %s %s %s", verb, r.Name, r.Version)
		case pipeline.StatusFailed:
			printError("%s: %v", r.Name, r.Err)
		case pipeline.StatusAlreadyInstalled:
			if !r.Requested {
				continue
			}
			printInfo("%s %s is already installed", r.Name, r.Version)
		}
		if r.LinkErr != nil {
			printWarning("%s was poured but not linked: %v", r.Name, r.LinkErr)
			printDetail("run `%s link --overwrite %s` to replace the conflicting files", appName, r.Name)
		}
		if r.CleanupErr != nil {
			printWarning("could not remove old versions of %s: %v", r.Name, r.CleanupErr)
		}
	}
}

// countStatus counts the results with status s.
func countStatus(results []pipeline.Result, s pipeline.Status) int {
	n := 0
	for _, r := range results {
		if r.Status == s {
			n++
		}
	}
	return n
}
