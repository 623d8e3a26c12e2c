package format

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/reqdesk/internal/model"
)

// Out is where everything is printed
var Out io.Writer = os.Stdout

// binaryPreviewBytes caps the hex dump of binary bodies
const binaryPreviewBytes = 256

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			// Allow common whitespace characters
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			// DEL character
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	warnColor      = color.New(color.FgYellow)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
)

// FormatSize renders a byte count with a base-1024 unit: "0 B", "512 B",
// "1.5 KB", "2 MB".
func FormatSize(n int) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	value := float64(n)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return strconv.FormatFloat(roundTo(value, 2), 'f', -1, 64) + " " + units[i]
}

func roundTo(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	return float64(int64(v*shift+0.5)) / shift
}

// FormatDuration renders milliseconds as "850ms" below a second and "1.25s" above
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return strconv.FormatFloat(roundTo(float64(ms)/1000, 2), 'f', -1, 64) + "s"
}

// FormatTimestamp renders epoch milliseconds in local time
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

func getStatusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	case code >= 500:
		return serverErrColor
	default:
		return dimColor
	}
}

// PrintResponse prints a formatted HTTP response
func PrintResponse(resp model.Response, showHeaders bool) {
	printStatusLine(resp)

	dimColor.Fprintf(Out, "  Time: %s  Size: %s\n", FormatDuration(resp.Duration), FormatSize(resp.Size))
	if resp.Failed() {
		clientErrColor.Fprintf(Out, "  Error: %s\n", sanitizeOutput(resp.Error))
	}
	fmt.Fprintln(Out)

	if showHeaders {
		printHeaders(resp.Headers)
	}

	printPayload(resp.Data)
}

func printStatusLine(resp model.Response) {
	getStatusColor(resp.Status).Fprintf(Out, "%s\n", sanitizeOutput(statusLine(resp)))
}

func statusLine(resp model.Response) string {
	if resp.Status == 0 {
		return resp.StatusText
	}
	return fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
}

func printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintln(Out, "Headers:")

	// Sort headers for consistent output
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		headerKeyColor.Fprintf(Out, "  %s: ", sanitizeOutput(key))
		fmt.Fprintln(Out, sanitizeOutput(headers[key]))
	}
	fmt.Fprintln(Out)
}

func printPayload(p model.Payload) {
	if p.IsEmpty() {
		dimColor.Fprintln(Out, "(empty body)")
		return
	}
	fmt.Fprintln(Out, RenderPayload(p))
}

// RenderPayload returns the terminal-safe text for a body: indented JSON,
// the raw text, or a hex preview of binary data.
func RenderPayload(p model.Payload) string {
	switch p.Kind {
	case model.PayloadJSON:
		return sanitizeOutput(prettyJSON(string(p.JSON)))
	case model.PayloadBinary:
		return binaryPreview(p.Binary)
	default:
		return sanitizeOutput(p.Text)
	}
}

func binaryPreview(b []byte) string {
	preview := b
	if len(preview) > binaryPreviewBytes {
		preview = preview[:binaryPreviewBytes]
	}
	out := fmt.Sprintf("(binary, %s)\n%s", FormatSize(len(b)), strings.TrimRight(hex.Dump(preview), "\n"))
	if len(b) > len(preview) {
		out += fmt.Sprintf("\n... %d more bytes", len(b)-len(preview))
	}
	return out
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	err := json.Indent(&out, []byte(s), "", "  ")
	if err != nil {
		// Not valid JSON, return as-is
		return s
	}
	return out.String()
}

// PrintRequest prints a one-line request summary
func PrintRequest(req model.Request) {
	methodColor.Fprintf(Out, "%s ", req.Method)
	urlColor.Fprintln(Out, sanitizeOutput(req.URL))
	dimColor.Fprintf(Out, "  ID: %s\n", req.ID)
	if req.Name != "" {
		dimColor.Fprintf(Out, "  Name: %s\n", sanitizeOutput(req.Name))
	}
}

// PrintRequestDetail prints a request with its headers and body
func PrintRequestDetail(req model.Request) {
	fmt.Fprintln(Out, "Request:")
	fmt.Fprintln(Out, strings.Repeat("-", 40))
	methodColor.Fprintf(Out, "%s ", req.Method)
	urlColor.Fprintln(Out, sanitizeOutput(req.URL))
	dimColor.Fprintf(Out, "ID: %s\n", req.ID)
	if req.Name != "" {
		dimColor.Fprintf(Out, "Name: %s\n", sanitizeOutput(req.Name))
	}
	dimColor.Fprintf(Out, "Time: %s\n\n", FormatTimestamp(req.Timestamp))

	if len(req.Headers) > 0 {
		printHeaders(req.Headers)
	}

	if req.Body != "" {
		fmt.Fprintf(Out, "Body (%s):\n", req.BodyKind)
		fmt.Fprintln(Out, sanitizeOutput(prettyJSON(req.Body)))
		fmt.Fprintln(Out)
	}
}

// PrintHistoryDetail prints full request/response details of a history entry
func PrintHistoryDetail(entry model.HistoryEntry) {
	dimColor.Fprintf(Out, "Entry: %s (%s)\n\n", entry.ID, FormatTimestamp(entry.Timestamp))
	PrintRequestDetail(entry.Request)

	fmt.Fprintln(Out, "\nResponse:")
	fmt.Fprintln(Out, strings.Repeat("-", 40))
	PrintResponse(entry.Response, true)
}

// PrintHistoryList prints history entries in a compact format
func PrintHistoryList(entries []model.HistoryEntry, limit int) {
	if len(entries) == 0 {
		dimColor.Fprintln(Out, "No requests in history")
		return
	}

	count := len(entries)
	if limit > 0 && limit < count {
		count = limit
	}

	for i := 0; i < count; i++ {
		entry := entries[i]
		dimColor.Fprintf(Out, "[%d] ", i+1)
		methodColor.Fprintf(Out, "%-7s ", entry.Request.Method)
		urlColor.Fprintf(Out, "%-60s ", sanitizeOutput(truncate(entry.Request.URL, 60)))

		getStatusColor(entry.Response.Status).Fprintf(Out, "%d ", entry.Response.Status)
		dimColor.Fprintf(Out, "(%s)", FormatDuration(entry.Response.Duration))
		fmt.Fprintln(Out)
	}

	if limit > 0 && len(entries) > limit {
		dimColor.Fprintf(Out, "\n... and %d more requests\n", len(entries)-limit)
	}
}

// PrintSavedList prints the saved requests
func PrintSavedList(requests []model.Request) {
	if len(requests) == 0 {
		dimColor.Fprintln(Out, "No saved requests")
		return
	}

	fmt.Fprintln(Out, "Saved requests:")
	for i, req := range requests {
		dimColor.Fprintf(Out, "[%d] ", i+1)
		fmt.Fprintf(Out, "%s: ", sanitizeOutput(req.DisplayName()))
		methodColor.Fprintf(Out, "%s ", req.Method)
		urlColor.Fprintln(Out, sanitizeOutput(req.URL))
	}
}

// PrintEnvironmentList prints environments, marking the active one
func PrintEnvironmentList(envs []model.Environment, activeID string) {
	if len(envs) == 0 {
		dimColor.Fprintln(Out, "No environments found")
		return
	}

	fmt.Fprintln(Out, "Environments:")
	for _, env := range envs {
		marker := " "
		if env.ID == activeID {
			marker = "*"
		}
		successColor.Fprintf(Out, "%s ", marker)
		headerKeyColor.Fprintf(Out, "%s ", sanitizeOutput(env.Name))
		dimColor.Fprintf(Out, "(%s, %d variables)\n", env.ID, len(env.Variables))
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(Out, "✓ %s\n", msg)
}

// PrintWarning prints a warning to stderr
func PrintWarning(msg string) {
	warnColor.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// PrintError prints an error message to stderr
func PrintError(msg string) {
	clientErrColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}
