package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Toast kinds.
const (
	ToastInfo    = "info"
	ToastWarning = "warning"
	ToastSuccess = "success"
)

// Toast is one confirmation shown to the user after an action.
type Toast struct {
	Kind    string `json:"status"`
	Message string `json:"message"`
}

// Notifier shows toasts. It is the terminal stand-in for the app's toast
// surface: text mode prints an icon and the message, JSON mode prints one
// object per toast. Safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	format Format
	quiet  bool
}

// NewNotifier writes success and info toasts to out and warnings to errOut.
func NewNotifier(out, errOut io.Writer, format Format) *Notifier {
	return &Notifier{out: out, errOut: errOut, format: format}
}

// SetQuiet suppresses info toasts. Success and warning toasts still show.
func (n *Notifier) SetQuiet(quiet bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quiet = quiet
}

// Show writes one toast.
func (n *Notifier) Show(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.quiet && t.Kind == ToastInfo {
		return
	}

	w := n.out
	if t.Kind == ToastWarning {
		w = n.errOut
	}

	if n.format == FormatJSON {
		_ = writeJSON(w, t)
		return
	}
	_, _ = fmt.Fprintln(w, icon(t.Kind)+t.Message)
}

func icon(kind string) string {
	switch kind {
	case ToastSuccess:
		return "✅ "
	case ToastWarning:
		return "⚠️  "
	default:
		return "ℹ️  "
	}
}

// Success shows a success toast.
func (n *Notifier) Success(msg string) { n.Show(Toast{Kind: ToastSuccess, Message: msg}) }

// Successf shows a formatted success toast.
func (n *Notifier) Successf(format string, args ...any) { n.Success(fmt.Sprintf(format, args...)) }

// Info shows an info toast.
func (n *Notifier) Info(msg string) { n.Show(Toast{Kind: ToastInfo, Message: msg}) }

// Infof shows a formatted info toast.
func (n *Notifier) Infof(format string, args ...any) { n.Info(fmt.Sprintf(format, args...)) }

// Warn shows a warning toast.
func (n *Notifier) Warn(msg string) { n.Show(Toast{Kind: ToastWarning, Message: msg}) }

// Warnf shows a formatted warning toast.
func (n *Notifier) Warnf(format string, args ...any) { n.Warn(fmt.Sprintf(format, args...)) }

// Warn prints a warning to stderr outside any command context.
func Warn(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, icon(ToastWarning)+msg)
}

// Warnf prints a formatted warning to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}
