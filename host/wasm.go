package host

import (
	"context"
	"fmt"
	"slices"

	"github.com/VictoriaMetrics/metrics"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/resumable/errors"
)

var (
	wasmModulesLoaded = metrics.NewCounter(`resumable_host_wasm_modules_total`)
	wasmCalls         = metrics.NewCounter(`resumable_host_wasm_calls_total`)
)

// LoadWasm instantiates a WebAssembly module and registers each exported
// function whose parameters and results are numeric as namespace.export.
// Exports with more than one result are skipped.
func (r *Registry) LoadWasm(ctx context.Context, namespace string, bin []byte) error {
	if namespace == "" {
		return errors.InvalidInput(errors.PhaseHost, "wasm namespace must not be empty")
	}

	rt := r.wasmRuntime(ctx)
	mod, err := rt.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(namespace))
	if err != nil {
		return errors.Registration(namespace, "*", err)
	}

	defs := mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	slices.Sort(names)

	registered := 0
	for _, export := range names {
		def := defs[export]
		if !numericSignature(def) {
			Logger().Debug("skip wasm export",
				zap.String("module", namespace),
				zap.String("export", export))
			continue
		}
		name := namespace + "." + export
		params := def.ParamTypes()
		results := def.ResultTypes()
		r.Register(name, len(params), len(params), wasmImpl(mod, name, export, params, results))
		registered++
	}

	wasmModulesLoaded.Inc()
	Logger().Debug("wasm module loaded",
		zap.String("module", namespace),
		zap.Int("functions", registered))
	return nil
}

func (r *Registry) wasmRuntime(ctx context.Context) wazero.Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runtime == nil {
		cfg := wazero.NewRuntimeConfig()
		if r.cfg.MemoryLimitPages > 0 {
			cfg = cfg.WithMemoryLimitPages(r.cfg.MemoryLimitPages)
		}
		r.runtime = wazero.NewRuntimeWithConfig(ctx, cfg)
	}
	return r.runtime
}

func numericSignature(def api.FunctionDefinition) bool {
	if len(def.ResultTypes()) > 1 {
		return false
	}
	for _, t := range append(slices.Clone(def.ParamTypes()), def.ResultTypes()...) {
		switch t {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

func wasmImpl(mod api.Module, name, export string, params, results []api.ValueType) Impl {
	return func(ctx context.Context, args []any) (any, error) {
		stack := make([]uint64, len(params))
		for i, t := range params {
			v, err := encodeWasm(t, args[i])
			if err != nil {
				return nil, errors.New(errors.PhaseHost, errors.KindTypeMismatch).
					Func(name).
					Detail("argument %d: %v", i+1, err).
					Build()
			}
			stack[i] = v
		}

		// api.Function values are not safe for concurrent use
		fn := mod.ExportedFunction(export)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseHost, "wasm export", name)
		}
		wasmCalls.Inc()
		out, err := fn.Call(ctx, stack...)
		if err != nil {
			return nil, errors.New(errors.PhaseHost, errors.KindInvalidOperation).
				Func(name).
				Detail("wasm call failed").
				Cause(err).
				Build()
		}
		if len(results) == 0 {
			return nil, nil
		}
		return decodeWasm(results[0], out[0]), nil
	}
}

func encodeWasm(t api.ValueType, v any) (uint64, error) {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64:
		n, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("want int, got %s", TypeName(v))
		}
		if t == api.ValueTypeI32 {
			return api.EncodeI32(int32(n)), nil
		}
		return api.EncodeI64(n), nil
	case api.ValueTypeF32, api.ValueTypeF64:
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int64:
			f = float64(n)
		default:
			return 0, fmt.Errorf("want number, got %s", TypeName(v))
		}
		if t == api.ValueTypeF32 {
			return api.EncodeF32(float32(f)), nil
		}
		return api.EncodeF64(f), nil
	}
	return 0, fmt.Errorf("unsupported wasm type %s", api.ValueTypeName(t))
}

func decodeWasm(t api.ValueType, v uint64) any {
	switch t {
	case api.ValueTypeI32:
		return int64(api.DecodeI32(v))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	case api.ValueTypeF64:
		return api.DecodeF64(v)
	}
	return int64(v)
}
