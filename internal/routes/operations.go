package routes

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// handlerNameKey is the operation metadata key under which each registration
// stashes its handler's declared function name.
const handlerNameKey = "handlerName"

// withHandlerName records the handler's declared name on the operation so
// NormalizeOperationIDs can rewrite the generated operation ID later.
func withHandlerName(fn any) func(o *huma.Operation) {
	name := handlerName(fn)
	return func(o *huma.Operation) {
		if o.Metadata == nil {
			o.Metadata = map[string]any{}
		}
		o.Metadata[handlerNameKey] = name
	}
}

// handlerName resolves the declared name of a function or method value,
// without the package path or the bound-method suffix.
func handlerName(fn any) string {
	name := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// NormalizeOperationIDs overwrites each HTTP operation's generated operation
// ID with its handler's declared name, so generated API clients get readable
// function names. Call once after all routes are registered; re-running it
// assigns the same values. Routes outside the OpenAPI document (such as the
// websocket endpoint) are untouched.
func NormalizeOperationIDs(api huma.API) {
	for _, item := range api.OpenAPI().Paths {
		for _, op := range pathOperations(item) {
			if op == nil {
				continue
			}
			if name, ok := op.Metadata[handlerNameKey].(string); ok && name != "" {
				op.OperationID = name
			}
		}
	}
}

func pathOperations(item *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{
		item.Get, item.Put, item.Post, item.Delete,
		item.Options, item.Head, item.Patch, item.Trace,
	}
}
