// Package errors/handlers provides interface-specific error handling implementations.
//
// The engine reports diagnostics as data; handlers decide how they are shown.
// CLIErrorHandler renders them for a terminal, colouring by severity, and
// mirrors them to the structured log when verbose.
package errors

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// CLIErrorHandler handles errors for CLI interface
type CLIErrorHandler struct {
	Verbose bool
	logger  *zap.Logger
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler(verbose bool, logger *zap.Logger) *CLIErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLIErrorHandler{
		Verbose: verbose,
		logger:  logger,
	}
}

// HandleError logs a failed command and returns it formatted for display
func (h *CLIErrorHandler) HandleError(err error) error {
	appErr := GetAppError(err)

	if h.Verbose {
		h.logger.Debug("command failed",
			zap.String("code", string(appErr.Code)),
			zap.String("severity", string(appErr.Severity)),
			zap.Error(appErr.Cause),
		)
	}

	return fmt.Errorf("%s", h.FormatError(appErr))
}

// FormatError formats an error for CLI display
func (h *CLIErrorHandler) FormatError(err error) string {
	appErr := GetAppError(err)

	text := appErr.Error()
	if h.Verbose {
		text = fmt.Sprintf("[%s] %s", appErr.Code, text)
	}

	switch appErr.Severity {
	case SeverityCritical:
		return criticalStyle.Render("CRITICAL: ") + text
	case SeverityError:
		return errorStyle.Render("ERROR: ") + text
	case SeverityWarning:
		return warningStyle.Render("WARNING: ") + text
	case SeverityInfo:
		return infoStyle.Render("INFO: ") + text
	default:
		return text
	}
}

// FormatDiagnostics renders an ordered diagnostic list, one per line.
func (h *CLIErrorHandler) FormatDiagnostics(diags []*AppError) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(h.FormatError(d))
		b.WriteString("\n")
	}
	return b.String()
}
