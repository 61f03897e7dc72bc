// Package logging provides the Logf-style logger that the command line tools
// hand to library code. Library packages never log on their own; they accept
// a Logf function and call it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
)

// Logger writes prefixed log lines to Out.
type Logger struct {
	// Prefix is written before every line.
	Prefix string

	// Debug enables Debugf output and annotates every line with the caller.
	Debug bool

	// Out defaults to os.Stderr.
	Out io.Writer

	mutex sync.Mutex
}

// New returns a logger writing to stderr.
func New(prefix string, debug bool) *Logger {
	return &Logger{
		Prefix: prefix,
		Debug:  debug,
		Out:    os.Stderr,
	}
}

// Logf satisfies the Logf func signature used throughout this module.
func (obj *Logger) Logf(format string, v ...interface{}) {
	obj.write(2, "", format, v...)
}

// Warnf logs a warning, highlighted when the output is a terminal.
func (obj *Logger) Warnf(format string, v ...interface{}) {
	obj.write(2, color.YellowString("warning: "), format, v...)
}

// Errorf logs an error, highlighted when the output is a terminal.
func (obj *Logger) Errorf(format string, v ...interface{}) {
	obj.write(2, color.RedString("error: "), format, v...)
}

// Debugf logs only when Debug is set.
func (obj *Logger) Debugf(format string, v ...interface{}) {
	if !obj.Debug {
		return
	}
	obj.write(2, "", format, v...)
}

func (obj *Logger) write(skip int, level, format string, v ...interface{}) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	out := obj.Out
	if out == nil {
		out = os.Stderr
	}
	msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")
	if obj.Debug {
		// %+v prints the package path along with file:line
		msg = fmt.Sprintf("%s [%+v]", msg, stack.Caller(skip))
	}
	fmt.Fprintf(out, "%s%s%s\n", obj.Prefix, level, msg)
}

// Discard is a Logf that drops everything.
func Discard(format string, v ...interface{}) {}
