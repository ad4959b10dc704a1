// Package host provides the functions a resumable function body may call.
//
// A Registry maps names to Func values. New registers the builtins: the
// iteration protocol (iter, start, done, next), exception helpers (error,
// iserror, message, stopped), conversions (int, float, string, len) and
// list helpers (list, append, range). Lowered code calls the protocol and
// exception helpers under the reserved names in package ast (_iter, _next,
// _iserror and so on), which user bindings cannot shadow. Numeric exports of WebAssembly modules can be added with LoadWasm
// and are called as namespace.export.
//
// A Registry is safe for concurrent use once all modules are loaded.
package host
