// Package classify implements the multi-signal deterministic classification
// engine for freight-forwarding emails. Five signal categories (attachment
// filenames, body indicators, PDF content markers, carrier subject rules,
// direction-gated subject tables) are consulted in a fixed priority order;
// an external AI classifier is the last resort. Repeated calls over
// identical input always produce the identical result.
package classify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Options tunes the orchestrator's confidence handling.
type Options struct {
	// ReplyPenalty is subtracted from deterministic confidence on thread
	// replies, reflecting lower trust in inherited subject context.
	ReplyPenalty int
	// ReplyFloor is the minimum confidence after the reply penalty.
	ReplyFloor int
	// ReviewThreshold flags results below it for manual review.
	ReviewThreshold int
	// SubjectShortCircuit is the minimum confidence a curated subject
	// pattern needs to short-circuit the chain.
	SubjectShortCircuit int
	// FallbackTimeout bounds the single AI fallback call.
	FallbackTimeout time.Duration
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		ReplyPenalty:        15,
		ReplyFloor:          40,
		ReviewThreshold:     60,
		SubjectShortCircuit: 85,
		FallbackTimeout:     20 * time.Second,
	}
}

func (o *Options) normalize() {
	d := DefaultOptions()
	if o.ReplyPenalty <= 0 {
		o.ReplyPenalty = d.ReplyPenalty
	}
	if o.ReplyFloor <= 0 {
		o.ReplyFloor = d.ReplyFloor
	}
	if o.ReviewThreshold <= 0 {
		o.ReviewThreshold = d.ReviewThreshold
	}
	if o.SubjectShortCircuit <= 0 {
		o.SubjectShortCircuit = d.SubjectShortCircuit
	}
	if o.FallbackTimeout <= 0 {
		o.FallbackTimeout = d.FallbackTimeout
	}
}

// Engine composes the direction detector and signal matchers into the
// classification orchestrator. Construct once per process; safe for
// concurrent use.
type Engine struct {
	patterns *PatternSet
	states   StateMapper
	fallback Fallback
	logger   *slog.Logger
	opts     Options

	attachments *AttachmentMatcher
	body        *BodyMatcher
	content     *ContentMatcher
	carrier     *CarrierMatcher
	subject     *SubjectMatcher
	internal    *SubjectMatcher
	partner     *SubjectMatcher
}

// NewEngine creates an Engine. states may be nil (results then carry no
// workflow state); fallback may be nil (unmatched emails resolve straight
// to general correspondence).
func NewEngine(
	patterns *PatternSet,
	states StateMapper,
	fallback Fallback,
	logger *slog.Logger,
	opts Options,
) *Engine {
	opts.normalize()
	return &Engine{
		patterns:    patterns,
		states:      states,
		fallback:    fallback,
		logger:      logger.With("system", "classify"),
		opts:        opts,
		attachments: &AttachmentMatcher{patterns: patterns},
		body:        &BodyMatcher{patterns: patterns},
		content:     &ContentMatcher{patterns: patterns},
		carrier:     &CarrierMatcher{patterns: patterns},
		subject:     &SubjectMatcher{rules: patterns.subject, source: SourceSubject},
		internal:    &SubjectMatcher{rules: patterns.internalSubject, source: SourceInternalSubject},
		partner:     &SubjectMatcher{rules: patterns.partnerSubject, source: SourcePartnerSubject},
	}
}

// PatternVersion returns the version of the loaded pattern configuration.
func (e *Engine) PatternVersion() string {
	return e.patterns.Version
}

// Classify produces one Result for the email. It never returns an error:
// AI fallback failures degrade to the no-match path, and the no-match path
// resolves to general correspondence flagged for manual review.
func (e *Engine) Classify(ctx context.Context, in Input) Result {
	direction := e.patterns.DetectDirection(in.Sender(), in.Subject)
	isReply := IsThreadReply(in.Subject)

	cand := e.matchDeterministic(&in, direction, isReply)

	var res Result
	switch {
	case cand != nil:
		res = Result{
			EmailID:        in.EmailID,
			DocumentType:   cand.DocumentType,
			CarrierID:      cand.CarrierID,
			Confidence:     cand.Confidence,
			Method:         MethodDeterministic,
			MatchedPattern: cand.Pattern,
			Reason:         cand.Reason,
		}
		if isReply {
			res.Confidence -= e.opts.ReplyPenalty
			if res.Confidence < e.opts.ReplyFloor {
				res.Confidence = e.opts.ReplyFloor
			}
		}
	default:
		res = e.classifyFallback(ctx, &in)
	}

	res.Direction = direction
	if res.CarrierID == "" {
		if c := e.patterns.CarrierByAddress(in.Sender()); c != nil {
			res.CarrierID = c.ID
		}
	}
	if res.SubType == "" {
		res.SubType = DetectSubType(in.Subject)
	}
	if e.states != nil {
		if state, ok := e.states.StateFor(res.DocumentType, string(direction)); ok {
			res.WorkflowState = state
		}
	}
	if res.Confidence < e.opts.ReviewThreshold {
		res.NeedsManualReview = true
	}

	e.logger.Debug("email classified",
		"email_id", in.EmailID,
		"document_type", res.DocumentType,
		"direction", res.Direction,
		"confidence", res.Confidence,
		"method", res.Method,
	)
	return res
}

// matchDeterministic walks the signal chain and returns the first decisive
// candidate. Thread replies skip every subject-based signal because the
// inherited subject is untrusted.
func (e *Engine) matchDeterministic(in *Input, direction Direction, isReply bool) *MatchCandidate {
	if isReply {
		return firstMatch(in, e.attachments, e.body, e.content)
	}

	if cand, ok := e.attachments.Match(in); ok {
		return cand
	}
	if cand, ok := e.body.Match(in); ok {
		return cand
	}
	if cand, ok := e.subject.Match(in); ok && cand.Confidence >= e.opts.SubjectShortCircuit {
		return cand
	}
	if cand, ok := e.carrier.Match(in); ok {
		return cand
	}

	gated := e.partner
	if direction == DirectionOutbound {
		gated = e.internal
	} else if e.patterns.CarrierByAddress(in.Sender()) != nil {
		// carrier mail that matched no carrier rule gets no partner-table pass
		return nil
	}
	if cand, ok := gated.Match(in); ok {
		return cand
	}

	return nil
}

func firstMatch(in *Input, matchers ...SignalMatcher) *MatchCandidate {
	for _, m := range matchers {
		if cand, ok := m.Match(in); ok {
			return cand
		}
	}
	return nil
}

// classifyFallback consults the AI classifier, degrading to general
// correspondence on absence, timeout, failure, or an empty answer.
func (e *Engine) classifyFallback(ctx context.Context, in *Input) Result {
	unmatched := Result{
		EmailID:           in.EmailID,
		DocumentType:      DocTypeGeneralCorrespondence,
		Confidence:        0,
		Method:            MethodDeterministic,
		NeedsManualReview: true,
		Reason:            "no deterministic signal matched",
	}

	if e.fallback == nil {
		return unmatched
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.FallbackTimeout)
	defer cancel()

	ai, err := e.fallback.Classify(callCtx, FallbackQuery{
		Subject:             in.Subject,
		SenderEmail:         in.Sender(),
		BodyText:            in.BodyText,
		AttachmentFilenames: in.AttachmentFilenames,
		AttachmentContent:   in.AttachmentContent,
	})
	if err != nil {
		e.logger.Warn("ai fallback failed", "email_id", in.EmailID, "error", err)
		return unmatched
	}
	if ai == nil || ai.DocumentType == "" {
		return unmatched
	}

	return Result{
		EmailID:      in.EmailID,
		DocumentType: ai.DocumentType,
		SubType:      ai.SubType,
		CarrierID:    ai.CarrierID,
		Confidence:   clampConfidence(ai.Confidence),
		Method:       MethodAI,
		Reason:       ai.Reasoning,
	}
}

// ClassifyBatch classifies independent emails with bounded concurrency.
// Result order matches input order. Operations touching the same shipment
// downstream must still be serialized by the caller.
func (e *Engine) ClassifyBatch(ctx context.Context, inputs []Input) []Result {
	results := make([]Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(inputs)))

	for i := range inputs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = e.Classify(gctx, inputs[i])
			return nil
		})
	}

	// Classify never errors; Wait only surfaces context cancellation
	if err := g.Wait(); err != nil {
		e.logger.Warn("batch classification interrupted", "error", err)
	}

	return results
}

func workerCount(n int) int {
	const maxWorkers = 8
	if n < 1 {
		return 1
	}
	if n > maxWorkers {
		return maxWorkers
	}
	return n
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
