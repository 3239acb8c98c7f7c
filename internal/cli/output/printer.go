package output

import (
	"fmt"
	"io"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// Printer writes command results to Out and failures to Err.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format
	Wide   bool
}

// NewPrinter creates a printer.
func NewPrinter(out, errOut io.Writer, format Format, wide bool) *Printer {
	return &Printer{Out: out, Err: errOut, Format: format, Wide: wide}
}

// Print renders data in the configured format.
func (p *Printer) Print(data any) error {
	return NewFormatter(p.Format, p.Wide).Format(p.Out, data)
}

// Message prints a confirmation. Structured formats get {"message": ...}.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if !p.Format.Structured() {
		_, err := fmt.Fprintln(p.Out, msg)
		return err
	}
	return p.Print(map[string]string{"message": msg})
}

// Error reports err. Only the user-facing message of an APIError is shown
// in table mode; structured formats include kind, status and detail.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	ae, ok := domain.AsAPIError(err)
	if !p.Format.Structured() {
		msg := err.Error()
		if ok {
			msg = ae.Message
		}
		fmt.Fprintf(p.Err, "Error: %s\n", msg)
		return
	}

	if !ok {
		ae = &domain.APIError{Kind: domain.KindUnknown, Message: err.Error()}
	}
	_ = NewFormatter(p.Format, false).Format(p.Err, map[string]any{"error": ae})
}

// Spinner returns a spinner on Err. It stays silent unless Err is a
// terminal and the output is a table.
func (p *Printer) Spinner(message string) *Spinner {
	s := NewSpinner(p.Err, message)
	if p.Format.Structured() {
		s.enabled = false
	}
	return s
}
