// Package source resolves the originating package/function/file/line
// attributed to a log record. Lookups walk the runtime call stack and are
// comparatively expensive, so every probe makes them togglable.
package source

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Location identifies the code position a record is attributed to.
type Location struct {
	Package  string
	Function string
	File     string
	Line     int
}

// IsZero reports whether no location was resolved.
func (l Location) IsZero() bool {
	return l == Location{}
}

// String renders "pkg.Func (file:line)" for display.
func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	name := l.Function
	if l.Package != "" {
		name = l.Package + "." + l.Function
	}
	return fmt.Sprintf("%s (%s:%d)", name, l.File, l.Line)
}

// Caller resolves the location skip frames above the caller of Caller.
func Caller(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Location{}
	}
	loc := Location{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Package, loc.Function = splitFuncName(fn.Name())
	}
	return loc
}

// FromPanic attributes a location to the throw site by parsing a recovered
// goroutine stack (as produced by runtime/debug.Stack). The frame directly
// below the runtime's panic entry wins; when no panic entry is present the
// first non-runtime frame is used. Returns the zero Location when the stack
// cannot be parsed.
func FromPanic(stack []byte) Location {
	frames := parseFrames(stack)
	for i, f := range frames {
		if strings.HasPrefix(f.name, "panic") && i+1 < len(frames) {
			return frames[i+1].location()
		}
	}
	for _, f := range frames {
		if !isRuntimeFrame(f.name) {
			return f.location()
		}
	}
	return Location{}
}

type stackFrame struct {
	name string
	pos  string
}

func (f stackFrame) location() Location {
	loc := Location{}
	loc.Package, loc.Function = splitFuncName(f.name)
	loc.File, loc.Line = splitFileLine(f.pos)
	return loc
}

func parseFrames(stack []byte) []stackFrame {
	lines := strings.Split(string(stack), "\n")
	var frames []stackFrame
	for i := 0; i+1 < len(lines); i++ {
		fn := strings.TrimSpace(lines[i])
		if fn == "" || strings.HasPrefix(fn, "goroutine ") {
			continue
		}
		if !strings.HasPrefix(lines[i+1], "\t") {
			continue
		}
		name := fn
		if idx := strings.LastIndex(name, "("); idx > 0 {
			name = name[:idx]
		}
		frames = append(frames, stackFrame{name: name, pos: strings.TrimSpace(lines[i+1])})
		i++
	}
	return frames
}

// GoroutineID parses the current goroutine's id from its stack header. Used
// only as a metric slot value, never for synchronization.
func GoroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	// header: "goroutine 123 [running]:"
	fields := bytes.Fields(buf)
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func isRuntimeFrame(name string) bool {
	return strings.HasPrefix(name, "runtime.") ||
		strings.HasPrefix(name, "runtime/debug.") ||
		strings.HasPrefix(name, "panic")
}

// splitFuncName splits "path/to/pkg.(*T).Method" into package path and the
// remaining function name.
func splitFuncName(full string) (pkg, fn string) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	dot += slash + 1
	return full[:dot], full[dot+1:]
}

// splitFileLine splits "\t/path/file.go:42 +0x1b" into file and line.
func splitFileLine(pos string) (string, int) {
	if idx := strings.Index(pos, " "); idx > 0 {
		pos = pos[:idx]
	}
	colon := strings.LastIndex(pos, ":")
	if colon < 0 {
		return pos, 0
	}
	line, err := strconv.Atoi(pos[colon+1:])
	if err != nil {
		return pos, 0
	}
	return pos[:colon], line
}
