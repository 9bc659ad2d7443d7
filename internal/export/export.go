// Package export runs the validate, extract, package pipeline that turns a
// document and a section list into a single archive.
package export

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/archive"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/sections"
	"github.com/Epistemic-Technology/pdf-sections-mcp/models"
)

// Document is the source an export reads pages from. It must not change
// during a run.
type Document interface {
	PageCount() int
	Extract(s models.Section) ([]byte, error)
}

// Options tune a single run. The zero value runs sequentially and logs nothing.
type Options struct {
	// Parallelism is the number of sections extracted at once. Values
	// below 2 mean strictly sequential extraction.
	Parallelism int
	Log         logger.Logger
	// Observe, if set, is called on every state transition.
	Observe func(State)
}

type run struct {
	state   State
	log     logger.Logger
	observe func(State)
}

func (r *run) transition(to State) {
	r.log.Debug("%s -> %s", r.state, to)
	r.state = to
	if r.observe != nil {
		r.observe(to)
	}
}

func (r *run) fail(err error) (*archive.Archive, error) {
	r.transition(StateFailed)
	r.log.Error("Export failed: %v", err)
	return nil, err
}

// RunExport validates list against doc, extracts every section in list
// order and packages the results under folderName. Either the complete
// archive is returned or an error; partial results are discarded.
//
// Errors are *sections.InvalidRangeError or sections.ErrEmptySectionList
// from validation, *ExtractionError, *PackagingError, or the context error
// when ctx is canceled between steps.
func RunExport(ctx context.Context, doc Document, list sections.List, folderName string, opts Options) (*archive.Archive, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &run{state: StateIdle, log: log.With("export"), observe: opts.Observe}

	r.transition(StateValidating)
	if err := sections.Validate(list, doc.PageCount()); err != nil {
		return r.fail(err)
	}

	r.transition(StateExtracting)
	var artifacts []archive.Artifact
	var err error
	if opts.Parallelism > 1 && len(list) > 1 {
		artifacts, err = extractParallel(ctx, doc, list, opts.Parallelism)
	} else {
		artifacts, err = extractSequential(ctx, doc, list, r.log)
	}
	if err != nil {
		return r.fail(err)
	}

	if err := ctx.Err(); err != nil {
		return r.fail(fmt.Errorf("export canceled: %w", err))
	}

	r.transition(StatePackaging)
	result, err := archive.Package(artifacts, folderName)
	if err != nil {
		return r.fail(&PackagingError{Cause: err})
	}

	r.transition(StateDone)
	r.log.Info("Exported %d sections into %s (%d bytes)", len(result.Entries), result.Name, len(result.Data))
	return result, nil
}

func extractSequential(ctx context.Context, doc Document, list sections.List, log logger.Logger) ([]archive.Artifact, error) {
	artifacts := make([]archive.Artifact, 0, len(list))
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export canceled: %w", err)
		}
		log.Debug("Extracting section %q (pages %d-%d)", s.Name, s.StartPage, s.EndPage)
		data, err := doc.Extract(s)
		if err != nil {
			return nil, &ExtractionError{SectionID: s.ID, SectionName: s.Name, Cause: err}
		}
		artifacts = append(artifacts, archive.Artifact{SectionName: s.Name, Data: data})
	}
	return artifacts, nil
}

// extractParallel dispatches sections in list order and stops dispatching
// after the first failure. Every section before a failing one has been
// dispatched by then, so the error reported (the first in list order) is
// the one sequential extraction would report.
func extractParallel(ctx context.Context, doc Document, list sections.List, workers int) ([]archive.Artifact, error) {
	pool := newWorkerPool(workers)
	results := make([][]byte, len(list))
	errs := make([]error, len(list))
	var failed atomic.Bool
	var wg sync.WaitGroup

	for i, s := range list {
		if failed.Load() {
			break
		}
		if err := pool.acquire(ctx); err != nil {
			errs[i] = fmt.Errorf("export canceled: %w", err)
			break
		}
		wg.Add(1)
		go func(i int, s models.Section) {
			defer wg.Done()
			defer pool.release()
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("export canceled: %w", err)
				failed.Store(true)
				return
			}
			data, err := doc.Extract(s)
			if err != nil {
				errs[i] = &ExtractionError{SectionID: s.ID, SectionName: s.Name, Cause: err}
				failed.Store(true)
				return
			}
			results[i] = data
		}(i, s)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	artifacts := make([]archive.Artifact, len(list))
	for i, s := range list {
		artifacts[i] = archive.Artifact{SectionName: s.Name, Data: results[i]}
	}
	return artifacts, nil
}
