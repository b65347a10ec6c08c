package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/livecap/internal/logging"
	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
)

const DefaultConcurrency = 3

var errEmptyTranslation = errors.New("empty translation")

// Failure records a segment the translator could not handle.
type Failure struct {
	Index     int
	SegmentID string
	Err       error
}

// Result of one overlay pass. Segments is the input with successful
// translations filled in; Translations holds the same texts keyed by
// segment ID for merging into a live engine.
type Result struct {
	Segments     []subtitle.Segment
	Translations map[string]string
	Failures     []Failure
}

type OverlayOptions struct {
	Concurrency int
	BatchSize   int
	Logger      *logging.Logger
}

// Overlay fills in TranslatedText for a snapshot of segments.
type Overlay struct {
	translator  TextTranslator
	concurrency int
	batchSize   int
	logger      *logging.Logger
}

func NewOverlay(translator TextTranslator, opts OverlayOptions) *Overlay {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
		if b, ok := translator.(interface{ BatchSize() int }); ok {
			opts.BatchSize = b.BatchSize()
		}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Overlay{
		translator:  translator,
		concurrency: opts.Concurrency,
		batchSize:   opts.BatchSize,
		logger:      opts.Logger,
	}
}

// TranslateAll translates every segment with non-blank text. A failure on
// one segment is recorded and leaves that segment's existing translation in
// place; the rest of the pass continues.
func (o *Overlay) TranslateAll(
	ctx context.Context,
	segments []subtitle.Segment,
	sourceLang, targetLang string,
) Result {
	res := Result{
		Segments:     make([]subtitle.Segment, len(segments)),
		Translations: make(map[string]string),
	}
	copy(res.Segments, segments)

	var pending []int
	for i, seg := range segments {
		if strings.TrimSpace(seg.OriginalText) != "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return res
	}

	var mu sync.Mutex
	record := func(i int, text string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyTranslation
		}
		if err != nil {
			res.Failures = append(res.Failures, Failure{
				Index:     i,
				SegmentID: segments[i].ID,
				Err:       err,
			})
			o.logger.Warnw("Segment translation failed",
				"segment", segments[i].ID,
				"index", i,
				"error", err,
			)
			return
		}
		res.Segments[i].TranslatedText = text
		res.Translations[segments[i].ID] = text
	}

	translateOne := func(i int) {
		text, err := o.translator.TranslateText(
			ctx,
			segments[i].OriginalText,
			sourceLang,
			targetLang,
		)
		record(i, text, err)
	}

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	if batcher, ok := o.translator.(BatchTextTranslator); ok {
		for start := 0; start < len(pending); start += o.batchSize {
			end := min(start+o.batchSize, len(pending))
			batch := pending[start:end]

			g.Go(func() error {
				texts := make([]string, len(batch))
				for j, i := range batch {
					texts[j] = segments[i].OriginalText
				}

				out, err := batcher.TranslateTexts(ctx, texts, sourceLang, targetLang)
				if err == nil && len(out) != len(batch) {
					err = fmt.Errorf("batch reply has %d translations, expected %d", len(out), len(batch))
				}
				if err != nil {
					o.logger.Warnw("Batch translation failed, retrying per segment",
						"segments", len(batch),
						"error", err,
					)
					for _, i := range batch {
						translateOne(i)
					}
					return nil
				}
				for j, i := range batch {
					record(i, out[j], nil)
				}
				return nil
			})
		}
	} else {
		for _, i := range pending {
			g.Go(func() error {
				translateOne(i)
				return nil
			})
		}
	}

	_ = g.Wait()

	sort.Slice(res.Failures, func(a, b int) bool {
		return res.Failures[a].Index < res.Failures[b].Index
	})

	o.logger.Infow("Translation pass complete",
		"segments", len(pending),
		"translated", len(res.Translations),
		"failed", len(res.Failures),
		"target", targetLang,
	)
	return res
}

// Target is the engine side of a translation run.
type Target interface {
	BeginTranslation() segmenter.Batch
	ApplyTranslation(batch segmenter.Batch, translations map[string]string) bool
}

// Run translates the target's current segments and merges the result back.
// It reports whether the merge was accepted; a run overtaken by a newer one
// or by a reset is dropped.
func (o *Overlay) Run(
	ctx context.Context,
	target Target,
	sourceLang, targetLang string,
) (Result, bool) {
	batch := target.BeginTranslation()
	res := o.TranslateAll(ctx, batch.Segments, sourceLang, targetLang)

	applied := target.ApplyTranslation(batch, res.Translations)
	if !applied {
		o.logger.Infow("Translation result discarded as stale",
			"generation", batch.Generation,
		)
	}
	return res, applied
}
