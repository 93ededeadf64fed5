package operator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/planfall/plankit/failure"
)

// Stdio is an Operator that prompts on a terminal. Prompts and input
// are serialized; concurrent raises take turns.
type Stdio struct {
	mu     sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

var _ Operator = (*Stdio)(nil)

// NewStdio creates a terminal operator reading from r and writing to
// w. Nil arguments default to os.Stdin / os.Stderr.
func NewStdio(r io.Reader, w io.Writer) *Stdio {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stderr
	}
	return &Stdio{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Inspect prints the failure and reads a decision. Unrecognized input
// re-prompts; EOF aborts.
func (s *Stdio) Inspect(ctx context.Context, f failure.Failure) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.writer, "\n-- plan execution paused --\n")
	fmt.Fprintf(s.writer, "failure: %s\n", f.Error())
	fmt.Fprintf(s.writer, "kind:    %s\n", f.Kind().Name())
	if p := f.Path(); p != nil {
		fmt.Fprintf(s.writer, "path:    %s\n", p.String())
	}
	if detail, err := json.MarshalIndent(f, "  ", "  "); err == nil {
		fmt.Fprintf(s.writer, "detail:  %s\n", detail)
	}

	for {
		if err := ctx.Err(); err != nil {
			return Abort, err
		}

		fmt.Fprintf(s.writer, "[c]ontinue propagation or [a]bort raise? ")
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return Abort, fmt.Errorf("reading decision: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "c", "continue":
			return Continue, nil
		case "a", "abort":
			return Abort, nil
		}
		fmt.Fprintf(s.writer, "unrecognized input\n")
	}
}
