package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

// ExecFunc runs one command line. ctx is cancelled on interrupt.
type ExecFunc func(ctx context.Context, args []string) error

// Options configures a REPL.
type Options struct {
	// In is shared with commands that prompt for input.
	In  *bufio.Reader
	Out io.Writer

	// Prompt is evaluated before every line.
	Prompt func() string
	Exec   ExecFunc
	// OnError reports a failed line. Default: "Error: <err>" on Out.
	OnError func(error)

	History   *History
	Completer *Completer

	// Interrupts cancels the running command, or clears the line when idle.
	Interrupts <-chan os.Signal
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input      *bufio.Reader
	output     io.Writer
	prompt     func() string
	exec       ExecFunc
	onError    func(error)
	completer  *Completer
	history    *History
	interrupts <-chan os.Signal

	mu      sync.Mutex
	notices []string
}

// New creates a new REPL instance.
func New(opts Options) *REPL {
	r := &REPL{
		input:      opts.In,
		output:     opts.Out,
		prompt:     opts.Prompt,
		exec:       opts.Exec,
		onError:    opts.OnError,
		completer:  opts.Completer,
		history:    opts.History,
		interrupts: opts.Interrupts,
	}
	if r.input == nil {
		r.input = bufio.NewReader(os.Stdin)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.prompt == nil {
		r.prompt = func() string { return "minisocial> " }
	}
	if r.completer == nil {
		r.completer = NewCompleter()
	}
	if r.history == nil {
		r.history = NewHistory("")
	}
	if r.onError == nil {
		r.onError = func(err error) { fmt.Fprintf(r.output, "Error: %v\n", err) }
	}
	return r
}

// Notify queues a message shown before the next prompt. It is safe to
// call from any goroutine.
func (r *REPL) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

func (r *REPL) flushNotices() {
	r.mu.Lock()
	pending := r.notices
	r.notices = nil
	r.mu.Unlock()

	for _, n := range pending {
		fmt.Fprintf(r.output, "* %s\n", n)
	}
}

type readResult struct {
	line string
	err  error
}

// Run starts the REPL loop. It returns nil on exit, quit, end of input or
// when ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	requests := make(chan struct{})
	results := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-requests:
			case <-done:
				return
			}
			line, err := r.input.ReadString('\n')
			select {
			case results <- readResult{line: line, err: err}:
			case <-done:
				return
			}
		}
	}()

	pending := false
	for {
		r.flushNotices()
		fmt.Fprint(r.output, r.prompt())

		if !pending {
			requests <- struct{}{}
			pending = true
		}

		var res readResult
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.output)
			return nil
		case <-r.interrupts:
			fmt.Fprintln(r.output)
			continue
		case res = <-results:
			pending = false
		}

		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.line != "") {
			fmt.Fprintln(r.output)
			if errors.Is(res.err, io.EOF) {
				return nil
			}
			return res.err
		}

		quit, err := r.handle(ctx, strings.TrimSpace(res.line))
		if err != nil {
			r.onError(err)
		}
		if quit {
			return nil
		}
	}
}

// handle runs one line and reports whether the loop should end.
func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	if line == "" {
		return false, nil
	}

	if prefix, ok := strings.CutSuffix(line, "?"); ok {
		for _, s := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, s)
		}
		return false, nil
	}

	args, err := shellwords.Parse(line)
	if err != nil {
		return false, fmt.Errorf("parse line: %w", err)
	}
	if len(args) == 0 {
		return false, nil
	}
	r.history.Add(line)

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "history":
		r.printHistory(args[1:])
		return false, nil
	}

	return false, r.execute(ctx, args)
}

func (r *REPL) printHistory(args []string) {
	entries := r.history.Entries()
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 && n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	offset := r.history.Len() - len(entries)
	for i, e := range entries {
		fmt.Fprintf(r.output, "%5d  %s\n", offset+i+1, e)
	}
}

// execute runs args, cancelling it on interrupt.
func (r *REPL) execute(ctx context.Context, args []string) error {
	if r.exec == nil {
		return errors.New("no command executor configured")
	}

	lineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- r.exec(lineCtx, args) }()

	select {
	case err := <-errCh:
		return err
	case <-r.interrupts:
		cancel()
		<-errCh
		fmt.Fprintln(r.output)
		return context.Canceled
	}
}
