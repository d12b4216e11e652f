// Package service ties ingestion, diffing and aggregation together.
package service

import (
	"context"
	"fmt"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/clsprobe/internal/classtree"
	"github.com/agentic-research/clsprobe/internal/codec"
	"github.com/agentic-research/clsprobe/internal/diff"
	"github.com/agentic-research/clsprobe/internal/ingest"
	"github.com/agentic-research/clsprobe/internal/score"
)

// LoadReference decrypts the sealed reference file name on fs and builds
// its tree.
func LoadReference(fs billy.Basic, c *codec.Codec, l *ingest.Loader, name string) (*classtree.Tree, error) {
	plain, err := c.DecryptFile(fs, name)
	if err != nil {
		return nil, err
	}
	return l.LoadBytes(name, plain)
}

// Outcome is the scored result of one candidate.
type Outcome struct {
	Candidate string
	Report    *score.Report
}

// Scorer compares candidates against one reference tree. The reference is
// only read, so a Scorer is safe for concurrent use.
type Scorer struct {
	reference   *classtree.Tree
	matcher     diff.Matcher
	matcherName string
	loader      *ingest.Loader
	workers     int
	log         *zap.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithWorkers bounds how many candidates ScoreAll processes at once.
func WithWorkers(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scorer) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScorer returns a scorer using the named matcher.
func NewScorer(reference *classtree.Tree, matcher string, loader *ingest.Loader, opts ...Option) (*Scorer, error) {
	m, err := diff.Select(matcher)
	if err != nil {
		return nil, err
	}
	if matcher == "" {
		matcher = diff.MatcherPresence
	}
	s := &Scorer{
		reference:   reference,
		matcher:     m,
		matcherName: matcher,
		loader:      loader,
		workers:     1,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Reference returns the reference tree.
func (s *Scorer) Reference() *classtree.Tree { return s.reference }

// Matcher returns the name of the diff strategy in use.
func (s *Scorer) Matcher() string { return s.matcherName }

// ScoreTree diffs an already built candidate tree and aggregates the result.
func (s *Scorer) ScoreTree(candidate *classtree.Tree) (*score.Report, error) {
	res := s.matcher.Diff(s.reference, candidate)
	return score.Aggregate(res)
}

// Score loads the candidate file name and scores it.
func (s *Scorer) Score(ctx context.Context, name string) (*score.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := s.loader.Load(name)
	if err != nil {
		return nil, err
	}
	rep, err := s.ScoreTree(tree)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", name, err)
	}
	s.log.Debug("scored candidate",
		zap.String("candidate", name),
		zap.Int("matched", rep.Overall.Matched),
		zap.Int("total", rep.Overall.Total))
	return rep, nil
}

// ScoreAll scores every candidate with bounded concurrency. Outcomes keep
// the order of names. The first failure cancels the remaining work.
func (s *Scorer) ScoreAll(ctx context.Context, names []string) ([]Outcome, error) {
	out := make([]Outcome, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		g.Go(func() error {
			rep, err := s.Score(gctx, name)
			if err != nil {
				return err
			}
			out[i] = Outcome{Candidate: name, Report: rep}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
