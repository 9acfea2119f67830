package scan

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"winnow/internal/dedupe"
	"winnow/internal/fingerprint"
	"winnow/internal/ledger"
	"winnow/internal/logging"
	"winnow/internal/media"
	"winnow/internal/quarantine"
)

// task is one walker-produced candidate stamped with its traversal position.
type task struct {
	seq       uint64
	candidate media.Candidate
}

// result carries a finished fingerprint, or the failure, back to the
// coordinator.
type result struct {
	seq       uint64
	candidate media.Candidate
	fp        *fingerprint.Fingerprint
	err       error
}

// pipelineRun bundles the moving parts of one kind's pass over the tree.
type pipelineRun struct {
	kind        media.Kind
	compareSize int
	workers     int
	walker      *walker
	sink        *quarantine.Sink
	table       *dedupe.Table
	store       *ledger.Store
	run         *ledger.Run
	logger      *slog.Logger
	onFile      func(media.Candidate)
}

func (s *Scanner) runPipeline(ctx context.Context, kind media.Kind, root string, workers int, sink *quarantine.Sink, run *ledger.Run, opts Options) (PipelineSummary, error) {
	ctx = media.WithPipeline(ctx, string(kind))
	logger := logging.WithContext(ctx, s.logger)

	p := &pipelineRun{
		kind:        kind,
		compareSize: s.cfg.Scan.CompareSize,
		workers:     workers,
		walker: &walker{
			root:       root,
			kind:       kind,
			classifier: media.NewClassifier(s.cfg.Scan.ImageExtensions, s.cfg.Scan.VideoExtensions),
			prune:      s.cfg.Scan.QuarantineDirName,
			excludes:   s.cfg.Scan.Excludes,
			logger:     logger,
		},
		sink:   sink,
		table:  dedupe.NewTable(),
		store:  s.store,
		run:    run,
		logger: logger,
		onFile: opts.OnFile,
	}
	return p.execute(ctx)
}

// execute runs walker, workers, and coordinator for one pipeline. The
// coordinator (this goroutine) is the sole owner of the table, the sink, and
// ledger appends. Results are re-serialized into traversal order before they
// touch the table, so equal-depth ties do not depend on worker scheduling.
func (p *pipelineRun) execute(ctx context.Context) (PipelineSummary, error) {
	summary := PipelineSummary{Pipeline: string(p.kind)}

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan task, p.workers)
	results := make(chan result, p.workers)

	g.Go(func() error {
		defer close(tasks)
		return p.walker.run(gctx, tasks)
	})
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for t := range tasks {
				res := result{seq: t.seq, candidate: t.candidate}
				res.fp, res.err = p.fingerprintFile(t.candidate)
				select {
				case <-gctx.Done():
					return gctx.Err()
				case results <- res:
				}
			}
			return nil
		})
	}

	errc := make(chan error, 1)
	go func() {
		errc <- g.Wait()
		close(results)
	}()

	pending := make(map[uint64]result)
	var next uint64
	for res := range results {
		if gctx.Err() != nil {
			continue // drain: the pipeline is already failing
		}
		pending[res.seq] = res
		for {
			ordered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			p.process(gctx, ordered, &summary)
		}
	}

	summary.Errors += p.walker.failures.Load()
	if err := <-errc; err != nil {
		return summary, err
	}
	return summary, nil
}

// process applies a single in-order result.
func (p *pipelineRun) process(ctx context.Context, res result, summary *PipelineSummary) {
	if p.onFile != nil {
		p.onFile(res.candidate)
	}
	summary.Scanned++
	if res.err != nil {
		summary.Errors++
		p.logger.Warn("fingerprint failed; file skipped",
			logging.Error(res.err),
			logging.String(logging.FieldPath, res.candidate.Path),
		)
		return
	}
	if err := p.settle(ctx, res, summary); err != nil {
		summary.Errors++
		p.logger.Warn("duplicate left in place",
			logging.Error(err),
			logging.String(logging.FieldPath, res.candidate.Path),
		)
	}
}

// settle resolves one fingerprinted candidate against the survivor table.
// The table is committed only after a required move succeeded, so a failed
// move leaves both the table and the tree as they were.
func (p *pipelineRun) settle(ctx context.Context, res result, summary *PipelineSummary) error {
	decision := p.table.Observe(res.fp.Key(), res.candidate)
	if decision.Action == dedupe.ActionRecord {
		p.table.Commit(decision)
		return nil
	}

	loser := decision.Loser()
	movedTo, err := p.sink.Move(ctx, loser)
	if err != nil {
		return err
	}
	p.table.Commit(decision)
	summary.Duplicates++

	kept := survivorOf(decision)
	reason := reasonFor(decision)
	row := &ledger.Decision{
		RunID:       p.run.ID,
		Pipeline:    string(p.kind),
		Fingerprint: res.fp.ShortKey(),
		KeptPath:    kept.Path,
		MovedPath:   loser.Path,
		MovedTo:     movedTo,
		Reason:      reason,
	}
	if err := p.store.RecordDecision(ctx, row); err != nil {
		summary.Errors++
		p.logger.Warn("ledger append failed; move already applied",
			logging.Error(err),
			logging.String("moved", loser.Path),
		)
	}

	message := "duplicate quarantined"
	if p.sink.DryRun() {
		message = "duplicate found (dry run)"
	}
	p.logger.Info(message,
		logging.String("kept", kept.Path),
		logging.String("moved", loser.Path),
		logging.String("moved_to", movedTo),
		logging.String("reason", reason),
	)
	return nil
}

func (p *pipelineRun) fingerprintFile(candidate media.Candidate) (*fingerprint.Fingerprint, error) {
	switch candidate.Kind {
	case media.KindImage:
		return fingerprint.Image(candidate.Path, p.compareSize)
	case media.KindVideo:
		return fingerprint.Video(candidate.Path)
	default:
		return nil, media.Wrap(media.ErrInvalidArgument, string(p.kind), "fingerprint", fmt.Sprintf("unsupported kind %q", candidate.Kind), nil)
	}
}

// survivorOf returns the candidate the table keeps after the decision.
func survivorOf(d dedupe.Decision) media.Candidate {
	if d.Action == dedupe.ActionReplaceAndQuarantineOld {
		return d.Incoming
	}
	return d.Existing
}

// reasonFor names why the loser moved.
func reasonFor(d dedupe.Decision) string {
	switch d.Action {
	case dedupe.ActionReplaceAndQuarantineOld:
		return "duplicate of deeper copy"
	case dedupe.ActionQuarantineNew:
		if d.Incoming.Depth == d.Existing.Depth {
			return "duplicate at equal depth, first-seen copy kept"
		}
		return "duplicate of deeper copy"
	default:
		return ""
	}
}
