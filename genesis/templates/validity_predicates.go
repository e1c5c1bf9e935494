package templates

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
)

const ValidityPredicatesFileName = "validity-predicates.toml"

type (
	// ValidityPredicates is the registry of the validity predicates available at genesis.
	ValidityPredicates struct {
		Wasm map[string]WasmPredicate `toml:"wasm"`
	}

	WasmPredicate struct {
		Filename string      `toml:"filename"`
		SHA256   types.Bytes `toml:"sha256,omitempty"`
	}
)

func LoadValidityPredicates(path string) (*ValidityPredicates, error) {
	return util.ReadTomlFile(path, &ValidityPredicates{})
}

// Contains returns true when there is validity predicate with given name.
func (vps *ValidityPredicates) Contains(name string) bool {
	if vps == nil {
		return false
	}
	_, ok := vps.Wasm[name]
	return ok
}

// Names returns the names of the validity predicates in sorted order.
func (vps *ValidityPredicates) Names() []string {
	names := maps.Keys(vps.Wasm)
	slices.Sort(names)
	return names
}

/*
VerifyCode loads the wasm code of every validity predicate from "dir", checks
that its hash matches (when set) and that it compiles.
*/
func (vps *ValidityPredicates) VerifyCode(ctx context.Context, dir string) error {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	var errs []error
	for _, name := range vps.Names() {
		if err := vps.Wasm[name].verify(ctx, rt, dir); err != nil {
			errs = append(errs, fmt.Errorf("validity predicate %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (wp WasmPredicate) verify(ctx context.Context, rt wazero.Runtime, dir string) error {
	if wp.Filename == "" {
		return errors.New("filename is not set")
	}
	// #nosec G304
	code, err := os.ReadFile(filepath.Join(dir, wp.Filename))
	if err != nil {
		return fmt.Errorf("reading wasm code: %w", err)
	}
	if len(wp.SHA256) != 0 {
		if h := sha256.Sum256(code); !bytes.Equal(h[:], wp.SHA256) {
			return fmt.Errorf("hash mismatch, expected %s got %X", wp.SHA256, h)
		}
	}
	m, err := rt.CompileModule(ctx, code)
	if err != nil {
		return fmt.Errorf("compiling wasm code: %w", err)
	}
	return m.Close(ctx)
}
