package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/rungridgo/internal/config"
	"github.com/specialistvlad/rungridgo/internal/ctxlog"
	"github.com/specialistvlad/rungridgo/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL experiment loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from path and translates the single
// experiment block found among them into the config model. Zero or multiple
// experiment blocks are an error.
func (l *Loader) Load(ctx context.Context, path string) (*config.Experiment, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("error accessing experiment path %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}
	logger.Debug("Discovered experiment files.", "count", len(files))

	parser := hclparse.NewParser()
	var found *experimentBlock
	var foundFile string

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, block := range root.Experiments {
			if found != nil {
				return nil, fmt.Errorf("multiple experiment blocks: %q in %s and %q in %s", found.Name, foundFile, block.Name, file)
			}
			found = block
			foundFile = file
		}
	}

	if found == nil {
		return nil, fmt.Errorf("no experiment block found at %s", path)
	}

	experiment, err := l.translate(found)
	if err != nil {
		return nil, fmt.Errorf("invalid experiment %q in %s: %w", found.Name, foundFile, err)
	}
	logger.Debug("Experiment declaration loaded.", "name", experiment.Name, "factors", len(experiment.Factors))
	return experiment, nil
}
