package scoring

import (
	"encoding/json"
	"fmt"
	"math"

	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

// Per-metric caps. The four caps sum to 100.
const (
	AudioCap     = 30
	DurationCap  = 25
	SubtitlesCap = 25
	StabilityCap = 20
)

// Audio targets: full loudness points inside the target LUFS range with
// linear falloff, full noise points at or below the quiet floor.
const (
	loudnessTargetMin = -20.0
	loudnessTargetMax = -12.0
	loudnessFalloffLU = 10.0
	noiseFloorQuietDB = -55.0
	noiseFloorLoudDB  = -25.0
)

// Stability targets.
const (
	stabilityFullHeight    = 1080
	stabilityPartialHeight = 720
	motionVarianceCalm     = 0.02
	motionVarianceShaky    = 0.25
)

// Metric names used as breakdown keys.
const (
	MetricAudio     = "audio"
	MetricDuration  = "duration"
	MetricSubtitles = "subtitles"
	MetricStability = "stability"
)

// Breakdown maps metric name to awarded points.
type Breakdown map[string]int

// Total sums the awarded points.
func (b Breakdown) Total() int {
	total := 0
	for _, points := range b {
		total += points
	}
	if total > 100 {
		total = 100
	}
	return total
}

// JSON renders the breakdown for persistence.
func (b Breakdown) JSON() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("marshal breakdown: %w", err)
	}
	return string(data), nil
}

// Bounds are the candidate duration limits scoring measures fitness against.
type Bounds struct {
	MinDuration float64
	MaxDuration float64
}

// Score computes the quality score for one candidate from compositor
// probe signals. Identical inputs always produce identical output.
func Score(signals services.Signals, candidate queue.Candidate, bounds Bounds) (int, Breakdown, error) {
	if bounds.MinDuration <= 0 || bounds.MaxDuration <= 0 || bounds.MinDuration > bounds.MaxDuration {
		return 0, nil, services.Wrap(services.ErrConfiguration, "scoring", "validate bounds",
			fmt.Sprintf("invalid duration bounds [%g, %g]", bounds.MinDuration, bounds.MaxDuration), nil)
	}

	breakdown := Breakdown{
		MetricAudio:     audioPoints(signals),
		MetricDuration:  durationPoints(candidate.DurationSeconds, bounds),
		MetricSubtitles: subtitlePoints(signals),
		MetricStability: stabilityPoints(signals),
	}
	return breakdown.Total(), breakdown, nil
}

func audioPoints(signals services.Signals) int {
	// Loudness earns up to 2/3 of the cap, noise floor the rest.
	loudnessCap := AudioCap * 2.0 / 3.0
	noiseCap := float64(AudioCap) - loudnessCap

	var loudness float64
	switch {
	case signals.LoudnessLUFS >= loudnessTargetMin && signals.LoudnessLUFS <= loudnessTargetMax:
		loudness = loudnessCap
	case signals.LoudnessLUFS < loudnessTargetMin:
		loudness = loudnessCap * falloff(loudnessTargetMin-signals.LoudnessLUFS, loudnessFalloffLU)
	default:
		loudness = loudnessCap * falloff(signals.LoudnessLUFS-loudnessTargetMax, loudnessFalloffLU)
	}

	var noise float64
	switch {
	case signals.NoiseFloorDB <= noiseFloorQuietDB:
		noise = noiseCap
	case signals.NoiseFloorDB >= noiseFloorLoudDB:
		noise = 0
	default:
		noise = noiseCap * (noiseFloorLoudDB - signals.NoiseFloorDB) / (noiseFloorLoudDB - noiseFloorQuietDB)
	}

	return clampPoints(loudness+noise, AudioCap)
}

func durationPoints(duration float64, bounds Bounds) int {
	midpoint := (bounds.MinDuration + bounds.MaxDuration) / 2
	halfRange := (bounds.MaxDuration - bounds.MinDuration) / 2
	if halfRange <= 0 {
		// Degenerate single-value bounds: any in-bounds candidate is ideal.
		return DurationCap
	}
	distance := math.Abs(duration - midpoint)
	if distance >= halfRange {
		return 0
	}
	return clampPoints(float64(DurationCap)*(1-distance/halfRange), DurationCap)
}

func subtitlePoints(signals services.Signals) int {
	coverage := signals.CaptionCoverage
	if coverage < 0 {
		coverage = 0
	}
	if coverage > 1 {
		coverage = 1
	}
	return clampPoints(float64(SubtitlesCap)*coverage, SubtitlesCap)
}

func stabilityPoints(signals services.Signals) int {
	resolutionCap := StabilityCap / 2.0
	motionCap := float64(StabilityCap) - resolutionCap

	// Vertical output: the smaller axis bounds effective quality.
	edge := signals.Width
	if signals.Height < edge {
		edge = signals.Height
	}
	var resolution float64
	switch {
	case edge >= stabilityFullHeight:
		resolution = resolutionCap
	case edge >= stabilityPartialHeight:
		resolution = resolutionCap * 0.7
	case edge > 0:
		resolution = resolutionCap * 0.4
	}

	var motion float64
	switch {
	case signals.MotionVariance <= motionVarianceCalm:
		motion = motionCap
	case signals.MotionVariance >= motionVarianceShaky:
		motion = 0
	default:
		motion = motionCap * (motionVarianceShaky - signals.MotionVariance) / (motionVarianceShaky - motionVarianceCalm)
	}

	return clampPoints(resolution+motion, StabilityCap)
}

func falloff(excess, span float64) float64 {
	if excess <= 0 {
		return 1
	}
	if excess >= span {
		return 0
	}
	return 1 - excess/span
}

func clampPoints(value float64, limit int) int {
	if value < 0 {
		return 0
	}
	points := int(math.Round(value))
	if points > limit {
		return limit
	}
	return points
}
