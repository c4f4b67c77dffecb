package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arvonlabs/stepforge/pkg/cache"
	"github.com/arvonlabs/stepforge/pkg/cache/filecache"
	"github.com/arvonlabs/stepforge/pkg/step"
	"github.com/arvonlabs/stepforge/pkg/steps"
)

// defaultCacheRoot mirrors the teacher CLI's $HOME/.kubexm/clusters
// convention (cmd/cluster/list.go's clustersBaseDir), scaled down to one
// directory under the user's home for this engine's persistent cache.
func defaultCacheRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining default cache root: %w", err)
	}
	return filepath.Join(home, ".stepforge", "cache"), nil
}

// buildDemoGraph constructs a small worked graph — Mul(Add(2,3), Add(4,5))
// — used by plan, run and cache ensure-all.
func buildDemoGraph() (step.Step, error) {
	left, err := steps.Add(2, 3, step.WithName("left"))
	if err != nil {
		return nil, err
	}
	right, err := steps.Add(4, 5, step.WithName("right"))
	if err != nil {
		return nil, err
	}
	return steps.Mul(left, right, step.WithName("product"))
}

func openCache(root string) (cache.StepCache, error) {
	if root == "" {
		var err error
		root, err = defaultCacheRoot()
		if err != nil {
			return nil, err
		}
	}
	return filecache.New(root)
}
