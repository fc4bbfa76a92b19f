package chesspresenter

import (
	"io"
	"strings"
	"sync"

	"github.com/park285/Cheese-chess-client/internal/session"
)

// Presenter writes formatted snapshots without coupling the session to an output device.
type Presenter struct {
	mu          sync.Mutex
	out         io.Writer
	formatter   *Formatter
	lastVersion int
}

func NewPresenter(out io.Writer, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Presenter{out: out, formatter: formatter}
}

// Show renders s unless it is not newer than the last snapshot shown.
func (p *Presenter) Show(s session.Snapshot) error {
	if p == nil || p.out == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Version <= p.lastVersion {
		return nil
	}
	p.lastVersion = s.Version

	text := p.formatter.Snapshot(s)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(p.out, "\n"+text)
	return err
}

// Line writes a one-off message outside the snapshot flow.
func (p *Presenter) Line(msg string) error {
	if p == nil || p.out == nil || strings.TrimSpace(msg) == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.out, msg+"\n")
	return err
}
