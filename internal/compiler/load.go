package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// ErrNoCUEFiles is returned by LoadDir for a directory without .cue files.
var ErrNoCUEFiles = errors.New("no CUE files found")

// LoadDir loads the CUE package in dir and compiles it as a network.
// Files in subdirectories are not part of the package.
func LoadDir(dir string) (*Network, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("network directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("network directory: not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCUEFiles)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	return CompileNetwork(v)
}
