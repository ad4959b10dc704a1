package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/wippyai/resumable/host"
)

// Manifest lists the host functions available to compiled functions beyond
// the builtins.
//
//	memory_limit_pages: 16
//	wasm:
//	  - namespace: m
//	    path: math.wasm
type Manifest struct {
	// MemoryLimitPages caps the memory of every wasm module in 64KB pages.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// Wasm modules whose numeric exports become namespace.export.
	Wasm []WasmModule `yaml:"wasm"`
}

type WasmModule struct {
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// ReadManifest reads and validates the manifest at path. Relative module
// paths are resolved against the manifest's directory.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("cannot parse manifest %q: %w", path, err)
	}

	seen := make(map[string]bool, len(m.Wasm))
	dir := filepath.Dir(path)
	for i := range m.Wasm {
		mod := &m.Wasm[i]
		if mod.Namespace == "" || mod.Path == "" {
			return nil, fmt.Errorf("manifest %q: wasm entry %d needs namespace and path", path, i)
		}
		if seen[mod.Namespace] {
			return nil, fmt.Errorf("manifest %q: duplicate namespace %q", path, mod.Namespace)
		}
		seen[mod.Namespace] = true
		if !filepath.IsAbs(mod.Path) {
			mod.Path = filepath.Join(dir, mod.Path)
		}
	}
	return &m, nil
}

// Registry creates a host registry printing to out and loads every listed
// wasm module into it.
func (m *Manifest) Registry(ctx context.Context, out io.Writer) (*host.Registry, error) {
	reg := host.New(host.Config{
		Output:           out,
		MemoryLimitPages: m.MemoryLimitPages,
	})
	for _, mod := range m.Wasm {
		bin, err := os.ReadFile(mod.Path)
		if err != nil {
			reg.Close(ctx)
			return nil, fmt.Errorf("read wasm module %q: %w", mod.Namespace, err)
		}
		if err := reg.LoadWasm(ctx, mod.Namespace, bin); err != nil {
			reg.Close(ctx)
			return nil, err
		}
	}
	return reg, nil
}
