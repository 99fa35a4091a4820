package faq

import (
	"context"
	"log/slog"

	"github.com/yanqian/faq-rag/pkg/metrics"
)

type state int

const (
	stateClassifying state = iota
	stateRetrieving
	stateDeciding
	stateUsingStored
	stateSynthesizing
	stateShortCircuit
	stateErrored
	stateDone
)

func (s state) String() string {
	switch s {
	case stateClassifying:
		return "classifying"
	case stateRetrieving:
		return "retrieving"
	case stateDeciding:
		return "deciding"
	case stateUsingStored:
		return "using_stored"
	case stateSynthesizing:
		return "synthesizing"
	case stateShortCircuit:
		return "short_circuit"
	case stateErrored:
		return "errored"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// transitions maps every non-terminal state to the function that runs it.
var transitions = map[state]func(*pipeline, context.Context) state{
	stateClassifying:  (*pipeline).classify,
	stateShortCircuit: (*pipeline).shortCircuit,
	stateRetrieving:   (*pipeline).retrieve,
	stateDeciding:     (*pipeline).decide,
	stateUsingStored:  (*pipeline).useStored,
	stateSynthesizing: (*pipeline).synthesize,
	stateErrored:      (*pipeline).fail,
}

// pipeline carries one request through the decision states.
type pipeline struct {
	cfg         Config
	classifier  *TopicClassifier
	variants    *VariantGenerator
	retrieval   *RetrievalEngine
	synthesizer *AnswerSynthesizer
	logger      *slog.Logger

	question         string
	generateVariants bool
	numVariants      int

	generated  []string
	matches    []MatchCandidate
	best       *MatchCandidate
	confidence float64
	answer     string
	source     AnswerSource
	usage      metrics.TokenUsage
	err        error
	trace      []state
}

func (p *pipeline) run(ctx context.Context) Response {
	current := stateClassifying
	for current != stateDone {
		p.trace = append(p.trace, current)
		step, ok := transitions[current]
		if !ok {
			p.logger.Error("no transition for state", "state", current)
			current = stateErrored
			continue
		}
		current = step(p, ctx)
	}
	return p.response()
}

func (p *pipeline) classify(ctx context.Context) state {
	classifyCtx, cancel := context.WithTimeout(ctx, p.cfg.ClassifyTimeout)
	defer cancel()
	topic, resp, err := p.classifier.Classify(classifyCtx, p.question)
	p.usage = p.usage.Add(resp.Usage)
	if err != nil {
		p.logger.Warn("topic classification failed, continuing with retrieval", "error", err)
		return stateRetrieving
	}
	p.logger.Debug("question classified", "topic", topic)
	if topic == TopicGeneral {
		return stateShortCircuit
	}
	return stateRetrieving
}

func (p *pipeline) shortCircuit(context.Context) state {
	p.answer = p.cfg.GeneralAnswer
	p.source = AnswerSourceLLM
	p.confidence = 1.0
	p.generated = nil
	p.matches = nil
	p.best = nil
	return stateDone
}

func (p *pipeline) retrieve(ctx context.Context) state {
	if p.generateVariants {
		variantCtx, cancel := context.WithTimeout(ctx, p.cfg.VariantTimeout)
		generated, resp := p.variants.generate(variantCtx, p.question, p.numVariants, p.cfg.VariantTemperature)
		cancel()
		p.usage = p.usage.Add(resp.Usage)
		p.generated = generated
		p.logger.Debug("variants generated", "count", len(generated))
	}

	matches, _, err := p.retrieval.SearchWithMetadata(ctx, p.question, p.generated, p.cfg.TopK)
	if err != nil {
		p.err = err
		return stateErrored
	}
	p.matches = matches
	return stateDeciding
}

func (p *pipeline) decide(context.Context) state {
	if len(p.matches) > 0 {
		best := p.matches[0]
		p.best = &best
		p.confidence = best.Similarity
	}
	p.logger.Debug("best match", "confidence", p.confidence, "threshold", p.cfg.ConfidenceThreshold)
	if p.best != nil && p.confidence >= p.cfg.ConfidenceThreshold {
		return stateUsingStored
	}
	return stateSynthesizing
}

func (p *pipeline) useStored(context.Context) state {
	p.answer = p.best.Answer
	p.source = AnswerSourceDatabase
	return stateDone
}

func (p *pipeline) synthesize(ctx context.Context) state {
	pairs := selectContext(p.matches, p.cfg.ContextThreshold, p.cfg.MaxContext)

	var (
		resp Completion
		err  error
	)
	if len(pairs) > 0 {
		p.logger.Debug("grounded synthesis", "context_size", len(pairs))
		resp, err = p.synthesizer.Grounded(ctx, p.question, pairs)
	} else {
		p.logger.Debug("ungrounded synthesis")
		resp, err = p.synthesizer.Ungrounded(ctx, p.question)
	}
	p.usage = p.usage.Add(resp.Usage)
	p.source = AnswerSourceLLM
	if err != nil {
		p.logger.Error("answer synthesis failed, using fallback answer", "error", err)
		p.answer = p.cfg.FallbackAnswer
		return stateDone
	}
	p.answer = resp.Text
	return stateDone
}

func (p *pipeline) fail(context.Context) state {
	p.logger.Error("question answering failed", "error", p.err)
	p.answer = p.cfg.ErrorAnswer
	p.source = AnswerSourceError
	p.confidence = 0
	p.generated = nil
	p.matches = nil
	p.best = nil
	return stateDone
}

func (p *pipeline) response() Response {
	matches := p.matches
	if matches == nil {
		matches = []MatchCandidate{}
	}
	return Response{
		Answer:            p.answer,
		Source:            p.source,
		Confidence:        p.confidence,
		MatchedFAQ:        p.best,
		AllMatches:        matches,
		GeneratedVariants: p.generated,
	}
}
