package segmenting

import (
	"fmt"
	"sort"
	"strings"

	"shortpipe/internal/queue"
	"shortpipe/internal/services"
	"shortpipe/internal/textutil"
)

// Speech-density fitness peaks at a comfortable narration pace and
// penalizes spans that are nearly silent or too dense to caption.
const (
	idealWordsPerSecond = 2.5
	densitySpan         = 2.0
)

// textDuplicateThreshold catches spans that barely overlap in time but
// carry near-identical speech, e.g. a recap repeating an earlier beat.
const textDuplicateThreshold = 0.9

// Options control candidate extraction.
type Options struct {
	MinDuration      float64
	MaxDuration      float64
	Keywords         []string
	OverlapThreshold float64
}

// Span is one candidate clip cut from a transcript.
type Span struct {
	Start     float64
	End       float64
	Duration  float64
	Text      string
	Keywords  []string
	Relevance float64
}

// Segment extracts candidate spans from transcript segments. An empty
// transcript yields an empty result; invalid duration bounds are a
// configuration error.
func Segment(segments []queue.TranscriptSegment, opts Options) ([]Span, error) {
	if opts.MinDuration <= 0 || opts.MaxDuration <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "segmenting", "validate options",
			"duration bounds must be positive", nil)
	}
	if opts.MinDuration > opts.MaxDuration {
		return nil, services.Wrap(services.ErrConfiguration, "segmenting", "validate options",
			fmt.Sprintf("min_duration %g exceeds max_duration %g", opts.MinDuration, opts.MaxDuration), nil)
	}
	if opts.OverlapThreshold <= 0 || opts.OverlapThreshold > 1 {
		return nil, services.Wrap(services.ErrConfiguration, "segmenting", "validate options",
			fmt.Sprintf("overlap_threshold %g must be in (0, 1]", opts.OverlapThreshold), nil)
	}
	if len(segments) == 0 {
		return nil, nil
	}

	keywords := normalizeKeywords(opts.Keywords)
	spans := collectSpans(segments, opts, keywords)

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Relevance != spans[j].Relevance {
			return spans[i].Relevance > spans[j].Relevance
		}
		return spans[i].Start < spans[j].Start
	})

	var kept []Span
	var keptPrints []*textutil.Fingerprint
	for _, span := range spans {
		print := textutil.NewFingerprint(span.Text)
		if duplicatesKept(span, print, kept, keptPrints, opts.OverlapThreshold) {
			continue
		}
		kept = append(kept, span)
		keptPrints = append(keptPrints, print)
	}
	return kept, nil
}

// collectSpans slides a window over the transcript: for every start
// segment, the span grows one segment at a time and is emitted at each
// length where its duration falls inside the bounds.
func collectSpans(segments []queue.TranscriptSegment, opts Options, keywords []string) []Span {
	var spans []Span
	for i := range segments {
		for j := i; j < len(segments); j++ {
			duration := segments[j].End - segments[i].Start
			if duration > opts.MaxDuration {
				break
			}
			if duration < opts.MinDuration {
				continue
			}
			spans = append(spans, buildSpan(segments[i:j+1], duration, keywords))
		}
	}
	return spans
}

func buildSpan(window []queue.TranscriptSegment, duration float64, keywords []string) Span {
	var text strings.Builder
	for i, segment := range window {
		if i > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(strings.TrimSpace(segment.Text))
	}
	joined := text.String()
	lowered := strings.ToLower(joined)

	var matched []string
	hits := 0
	for _, keyword := range keywords {
		count := strings.Count(lowered, keyword)
		if count > 0 {
			matched = append(matched, keyword)
			hits += count
		}
	}

	words := len(strings.Fields(joined))
	return Span{
		Start:     window[0].Start,
		End:       window[len(window)-1].End,
		Duration:  duration,
		Text:      joined,
		Keywords:  matched,
		Relevance: relevance(hits, words, duration),
	}
}

// relevance rewards keyword hits plus how close the span's speech
// density sits to a comfortable narration pace.
func relevance(keywordHits, words int, duration float64) float64 {
	score := float64(keywordHits)
	if duration <= 0 {
		return score
	}
	wps := float64(words) / duration
	distance := wps - idealWordsPerSecond
	if distance < 0 {
		distance = -distance
	}
	if distance < densitySpan {
		score += 1 - distance/densitySpan
	}
	return score
}

// duplicatesKept reports whether span duplicates any kept span, either
// by time-range overlap (intersection over union reaching the
// threshold) or by near-identical transcript text.
func duplicatesKept(span Span, print *textutil.Fingerprint, kept []Span, keptPrints []*textutil.Fingerprint, threshold float64) bool {
	for i, other := range kept {
		if timeRangeOverlap(span, other) >= threshold {
			return true
		}
		if textutil.CosineSimilarity(print, keptPrints[i]) >= textDuplicateThreshold {
			return true
		}
	}
	return false
}

func timeRangeOverlap(a, b Span) float64 {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	intersection := end - start
	if intersection <= 0 {
		return 0
	}
	unionStart := a.Start
	if b.Start < unionStart {
		unionStart = b.Start
	}
	unionEnd := a.End
	if b.End > unionEnd {
		unionEnd = b.End
	}
	union := unionEnd - unionStart
	if union <= 0 {
		return 0
	}
	return intersection / union
}

func normalizeKeywords(keywords []string) []string {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.ToLower(strings.TrimSpace(keyword))
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
