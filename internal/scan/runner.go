package scan

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BlakeFelix/tree-updater/internal/filter"
	"github.com/BlakeFelix/tree-updater/internal/types"
)

// maxConcurrentRootScans caps the worker pool regardless of root count.
const maxConcurrentRootScans = 8

// RootSpec names one root to scan along with its resolved filter.
type RootSpec struct {
	Path   string
	Filter *filter.PathFilter
}

// Runner scans multiple roots concurrently and merges the results in
// their configured order.
type Runner struct {
	scanner *Scanner
	logger  *zap.Logger
}

// NewRunner constructs a Runner around a fresh Scanner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		scanner: NewScanner(logger),
		logger:  logger,
	}
}

// Run scans every root with a bounded worker pool and assembles the
// Forest in rootSpecs order regardless of completion order. A single
// root's failure is recorded on its Forest entry and logged; the call
// only returns an error, of type *Error, when every root failed.
func (runner *Runner) Run(ctx context.Context, rootSpecs []RootSpec, depthLimit int) (types.Forest, error) {
	forest := make(types.Forest, len(rootSpecs))

	group, groupCtx := errgroup.WithContext(ctx)
	workerLimit := len(rootSpecs)
	if workerLimit > maxConcurrentRootScans {
		workerLimit = maxConcurrentRootScans
	}
	if workerLimit > 0 {
		group.SetLimit(workerLimit)
	}

	for rootIndex, rootSpec := range rootSpecs {
		rootIndex, rootSpec := rootIndex, rootSpec
		group.Go(func() error {
			if contextError := groupCtx.Err(); contextError != nil {
				forest[rootIndex] = types.RootTree{Root: rootSpec.Path, Err: contextError}
				return nil
			}
			rootNode, scanError := runner.scanner.Scan(rootSpec.Path, rootSpec.Filter, depthLimit)
			if scanError != nil {
				runner.logger.Warn("root scan failed",
					zap.String("root", rootSpec.Path),
					zap.Error(scanError))
				forest[rootIndex] = types.RootTree{Root: rootSpec.Path, Err: scanError}
				return nil
			}
			forest[rootIndex] = types.RootTree{Root: rootSpec.Path, Node: rootNode}
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	if forest.AllFailed() {
		aggregated := &Error{}
		for _, rootTree := range forest {
			aggregated.Causes = append(aggregated.Causes, &RootError{Root: rootTree.Root, Err: rootTree.Err})
		}
		return nil, aggregated
	}
	return forest, nil
}
