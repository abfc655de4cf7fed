package log

import (
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// TracingHook adds the caller's package name to every log line. With
// WithTrace set (or on trace level events while the global level is trace)
// it also adds function, file and line. Full tracing is slow.
type TracingHook struct {
	WithTrace bool
}

func NewTracingHook(withTrace bool) TracingHook {
	return TracingHook{WithTrace: withTrace}
}

func (h TracingHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return
	}

	frame := runtime.FuncForPC(pc)
	if frame == nil {
		return
	}
	callerName := frame.Name()

	packageName, functionName := splitCallerName(callerName)
	e.Str("package", packageName)

	if h.WithTrace || (zerolog.GlobalLevel() == zerolog.TraceLevel && level == zerolog.TraceLevel) {
		fileName, lineNo := frame.FileLine(pc)
		e.Str("function", functionName).Str("file", fileName).Int("line", lineNo)
	}
}

// splitCallerName splits "github.com/a/b/pkg.(*T).Method" into
// "github.com/a/b/pkg" and "(*T).Method".
func splitCallerName(callerName string) (packageName, functionName string) {
	lastSlash := strings.LastIndex(callerName, "/")
	dot := strings.Index(callerName[lastSlash+1:], ".")
	if dot < 0 {
		return callerName, ""
	}
	dot += lastSlash + 1

	return callerName[:dot], callerName[dot+1:]
}
