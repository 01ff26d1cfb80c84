package retrieval

import (
	"time"

	"github.com/poiesic/hybrid/core"
)

// Monitor provides hooks to observe a retrieval as it moves through the
// pipeline. SourceCompleted and SourceFailed may be called concurrently;
// every other hook is called from the goroutine running Retrieve.
type Monitor interface {
	Start(retrievalID, query string)
	AfterAnalysis(analysis Analysis, elapsed time.Duration)
	SourceCompleted(source core.Source, results int, elapsed time.Duration)
	SourceFailed(source core.Source, err error, elapsed time.Duration)
	AfterFusion(candidates []*core.Candidate, elapsed time.Duration)
	AfterBoost(candidates []*core.Candidate, boosted int, elapsed time.Duration)
	AfterDedupe(candidates []*core.Candidate, elapsed time.Duration)
	AfterRerank(candidates []*core.Candidate, skipped bool, elapsed time.Duration)
	AfterCompress(candidates []*core.Candidate, skipped bool, elapsed time.Duration)
	Finish(response *Response, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                                          {}
func (n *noopMonitor) AfterAnalysis(_ Analysis, _ time.Duration)                  {}
func (n *noopMonitor) SourceCompleted(_ core.Source, _ int, _ time.Duration)      {}
func (n *noopMonitor) SourceFailed(_ core.Source, _ error, _ time.Duration)       {}
func (n *noopMonitor) AfterFusion(_ []*core.Candidate, _ time.Duration)           {}
func (n *noopMonitor) AfterBoost(_ []*core.Candidate, _ int, _ time.Duration)     {}
func (n *noopMonitor) AfterDedupe(_ []*core.Candidate, _ time.Duration)           {}
func (n *noopMonitor) AfterRerank(_ []*core.Candidate, _ bool, _ time.Duration)   {}
func (n *noopMonitor) AfterCompress(_ []*core.Candidate, _ bool, _ time.Duration) {}
func (n *noopMonitor) Finish(_ *Response, _ error)                                {}
