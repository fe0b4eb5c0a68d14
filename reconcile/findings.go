package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/validation"
)

// Severity grades a finding.
type Severity int

// Known severities, in increasing order of importance.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Finding is a single non-fatal observation made while reconciling a
// document, keyed by the path of the field it refers to.
type Finding struct {
	Path     string
	Severity Severity
	Message  string
}

func (f Finding) String() string {
	if f.Path == "" {
		return fmt.Sprintf("%s: %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Path, f.Message)
}

// Sink receives findings. Implementations are owned by the caller and
// must keep findings in the order they were added.
type Sink interface {
	Add(f Finding)
}

// Findings is an ordered, append-only Sink.
type Findings struct {
	list []Finding
}

// Add appends a finding.
func (fs *Findings) Add(f Finding) {
	fs.list = append(fs.list, f)
}

// List returns a copy of all findings in insertion order.
func (fs *Findings) List() []Finding {
	out := make([]Finding, len(fs.list))
	copy(out, fs.list)
	return out
}

// Len returns the number of findings recorded.
func (fs *Findings) Len() int {
	return len(fs.list)
}

// Filter returns the findings with exactly the given severity.
func (fs *Findings) Filter(s Severity) []Finding {
	var out []Finding
	for _, f := range fs.list {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// HasErrors reports whether at least one Error finding was recorded.
func (fs *Findings) HasErrors() bool {
	for _, f := range fs.list {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err converts the Error findings into a validation error tree keyed
// by field path. It returns nil when there are none.
func (fs *Findings) Err() error {
	msgs := make(map[string][]string)
	var order []string
	for _, f := range fs.list {
		if f.Severity != SeverityError {
			continue
		}
		if _, ok := msgs[f.Path]; !ok {
			order = append(order, f.Path)
		}
		msgs[f.Path] = append(msgs[f.Path], f.Message)
	}
	if len(order) == 0 {
		return nil
	}
	errs := make(validation.Errors, len(order))
	for _, p := range order {
		errs[p] = errors.New(strings.Join(msgs[p], "; "))
	}
	return errs
}
