// Package xerrors implements the exception chain described in the
// cache/pool/task-group specification (component C8): a linked,
// timestamped failure value carrying a source location, an ordered list
// of details, an ordered list of named parameters, and an optional cause.
// It is the failure vocabulary every other package in this module reports
// through.
//
// It is modeled on fmidev/smartmet-library-macgyver's Fmi::Exception, with
// the host-language exception machinery (thrown C++ exceptions, a BCP
// macro capturing __FILE__/__LINE__/__PRETTY_FUNCTION__, and
// std::current_exception()) replaced with Go's explicit error-return idiom
// and runtime.Caller.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Parameter is a single named (name, value) pair attached to an Exception.
type Parameter struct {
	Name  string
	Value string
}

// Exception is one node in a singly linked chain of failure values. The
// chain is finite and acyclic: Cause never points back at an ancestor of
// itself, since the only way to set it is via New/Trace at construction
// time.
type Exception struct {
	timestamp time.Time
	file      string
	line      int
	function  string
	message   string

	details    []string
	parameters []Parameter

	cause *Exception
	// wrapped holds the original non-Exception error for a synthetic
	// wrapper node created by Trace, so errors.Is/errors.As can still
	// reach sentinel errors like ErrPoolTimeout through the chain.
	wrapped error

	loggingDisabled    bool
	stackTraceDisabled bool
}

// location captures the caller's file, line and function name, mirroring
// the BCP macro's __FILE__, __LINE__, __PRETTY_FUNCTION__ capture.
func location(skip int) (file string, line int, function string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown", 0, "unknown"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		function = "unknown"
	} else {
		function = fn.Name()
	}
	return file, line, function
}

// New creates a fresh Exception with no cause. Use this when there is no
// failure already in flight (i.e. not inside a function reacting to an
// error returned by something else).
func New(message string) *Exception {
	file, line, fn := location(1)
	return &Exception{
		timestamp: time.Now(),
		file:      file,
		line:      line,
		function:  fn,
		message:   message,
	}
}

// Trace creates an Exception that chains prev as its cause. This is the Go
// equivalent of Fmi::Exception::Trace's "current in-flight exception"
// capture: since Go has no ambient in-flight-error query, callers pass the
// cause explicitly (the error they just received).
//
// - If prev is already an *Exception, it becomes the cause directly.
// - If prev is a plain error, it is wrapped: the wrapper's message is
//   prev.Error() and its detail records the original type name, so
//   diagnostics still identify what actually failed.
// - If prev is nil, Trace behaves like New.
func Trace(message string, prev error) *Exception {
	file, line, fn := location(1)
	e := &Exception{
		timestamp: time.Now(),
		file:      file,
		line:      line,
		function:  fn,
		message:   message,
	}
	if prev == nil {
		return e
	}
	if asExc, ok := prev.(*Exception); ok {
		e.cause = asExc
		return e
	}
	e.cause = &Exception{
		timestamp: time.Now(),
		message:   prev.Error(),
		details:   []string{fmt.Sprintf("wrapped %T", prev)},
		wrapped:   prev,
	}
	return e
}

// AddDetail appends a detail string and returns the receiver for chaining.
func (e *Exception) AddDetail(detail string) *Exception {
	e.details = append(e.details, detail)
	return e
}

// AddDetails appends every string in details.
func (e *Exception) AddDetails(details []string) *Exception {
	e.details = append(e.details, details...)
	return e
}

// AddParameter attaches a named parameter and returns the receiver.
func (e *Exception) AddParameter(name, value string) *Exception {
	e.parameters = append(e.parameters, Parameter{Name: name, Value: value})
	return e
}

// DisableLogging suppresses automatic rendering of this node entirely.
func (e *Exception) DisableLogging() *Exception {
	e.loggingDisabled = true
	return e
}

// DisableStackTrace suppresses deep rendering above this node, unless
// additional details/parameters were added at this level.
func (e *Exception) DisableStackTrace() *Exception {
	e.stackTraceDisabled = true
	return e
}

// DisableStackTraceRecursive applies DisableStackTrace to this node and
// every node in its cause chain.
func (e *Exception) DisableStackTraceRecursive() *Exception {
	for n := e; n != nil; n = n.cause {
		n.stackTraceDisabled = true
	}
	return e
}

func (e *Exception) LoggingDisabled() bool    { return e.loggingDisabled }
func (e *Exception) StackTraceDisabled() bool { return e.stackTraceDisabled }
func (e *Exception) Timestamp() time.Time     { return e.timestamp }
func (e *Exception) File() string             { return e.file }
func (e *Exception) Line() int                { return e.line }
func (e *Exception) Function() string         { return e.function }
func (e *Exception) Details() []string        { return append([]string(nil), e.details...) }
func (e *Exception) Parameters() []Parameter  { return append([]Parameter(nil), e.parameters...) }

// Cause returns the previous exception in the chain, or nil if this is the
// root.
func (e *Exception) Cause() *Exception { return e.cause }

// Unwrap lets errors.Is/errors.As walk the chain via the standard library.
// For a node created from a plain (non-Exception) error, this also
// surfaces that original error so sentinel checks like
// errors.Is(err, ErrPoolTimeout) still work through the chain.
func (e *Exception) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.wrapped
}

// Error implements the error interface, returning just this node's
// message (not the full chain — use Render for the full vertical stack).
func (e *Exception) Error() string {
	return e.message
}

// FirstException walks to the deepest (root) cause in the chain.
func (e *Exception) FirstException() *Exception {
	n := e
	for n.cause != nil {
		n = n.cause
	}
	return n
}

// ExceptionCount returns the number of nodes in the chain, including e.
func (e *Exception) ExceptionCount() int {
	n := 0
	for c := e; c != nil; c = c.cause {
		n++
	}
	return n
}

// ParameterValue returns the value of the first parameter named name found
// anywhere in the chain, searching from e toward the root.
func (e *Exception) ParameterValue(name string) (string, bool) {
	for n := e; n != nil; n = n.cause {
		for _, p := range n.parameters {
			if p.Name == name {
				return p.Value, true
			}
		}
	}
	return "", false
}

// Direction controls rendering order for Render.
type Direction int

const (
	// DeepestFirst prints the root cause first, then each wrapper on top
	// of it, ending with the outermost node.
	DeepestFirst Direction = iota
	// NewestFirst prints the outermost node first, then unwinds to the
	// root cause.
	NewestFirst
)

// Render produces the vertical-stack text form described in the
// specification's external interfaces section: one block per node,
// containing message, function, file:line, details and parameters, in the
// requested direction. A node with StackTraceDisabled set and no added
// details/parameters renders only its top message.
func (e *Exception) Render(dir Direction) string {
	if e.loggingDisabled {
		return ""
	}

	nodes := make([]*Exception, 0, e.ExceptionCount())
	for n := e; n != nil; n = n.cause {
		nodes = append(nodes, n)
	}
	if dir == DeepestFirst {
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}

	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteString("---\n")
		}
		b.WriteString(n.message)
		b.WriteString("\n")

		if n.stackTraceDisabled && len(n.details) == 0 && len(n.parameters) == 0 {
			continue
		}

		if n.function != "" {
			fmt.Fprintf(&b, "  at %s (%s:%d)\n", n.function, n.file, n.line)
		}
		for _, d := range n.details {
			fmt.Fprintf(&b, "  detail: %s\n", d)
		}
		for _, p := range n.parameters {
			fmt.Fprintf(&b, "  param: %s=%s\n", p.Name, p.Value)
		}
	}
	return b.String()
}

// RenderHTML produces the same sections as Render in an HTML form, one
// <div class="exception"> per node.
func (e *Exception) RenderHTML(dir Direction) string {
	if e.loggingDisabled {
		return ""
	}

	nodes := make([]*Exception, 0, e.ExceptionCount())
	for n := e; n != nil; n = n.cause {
		nodes = append(nodes, n)
	}
	if dir == DeepestFirst {
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
	}

	var b strings.Builder
	b.WriteString("<div class=\"exception-chain\">\n")
	for _, n := range nodes {
		b.WriteString("  <div class=\"exception\">\n")
		fmt.Fprintf(&b, "    <p class=\"message\">%s</p>\n", n.message)
		if !(n.stackTraceDisabled && len(n.details) == 0 && len(n.parameters) == 0) {
			fmt.Fprintf(&b, "    <p class=\"location\">%s (%s:%d)</p>\n", n.function, n.file, n.line)
			for _, d := range n.details {
				fmt.Fprintf(&b, "    <p class=\"detail\">%s</p>\n", d)
			}
			for _, p := range n.parameters {
				fmt.Fprintf(&b, "    <p class=\"parameter\">%s=%s</p>\n", p.Name, p.Value)
			}
		}
		b.WriteString("  </div>\n")
	}
	b.WriteString("</div>\n")
	return b.String()
}

// As is a convenience wrapper over errors.As for pulling an *Exception out
// of an arbitrary error chain.
func As(err error) (*Exception, bool) {
	var e *Exception
	ok := errors.As(err, &e)
	return e, ok
}
