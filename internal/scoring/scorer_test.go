package scoring

import (
	"testing"

	"shortpipe/internal/queue"
	"shortpipe/internal/services"
)

var defaultBounds = Bounds{MinDuration: 20, MaxDuration: 60}

func goodSignals() services.Signals {
	return services.Signals{
		LoudnessLUFS:    -16,
		NoiseFloorDB:    -60,
		Width:           1080,
		Height:          1920,
		MotionVariance:  0.01,
		CaptionCoverage: 1.0,
	}
}

func midCandidate() queue.Candidate {
	return queue.Candidate{ID: "cand-1", DurationSeconds: 40}
}

func TestScoreIdealSignalsMaxesEveryMetric(t *testing.T) {
	total, breakdown, err := Score(goodSignals(), midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := Breakdown{
		MetricAudio:     AudioCap,
		MetricDuration:  DurationCap,
		MetricSubtitles: SubtitlesCap,
		MetricStability: StabilityCap,
	}
	for metric, points := range want {
		if breakdown[metric] != points {
			t.Errorf("%s = %d, want %d", metric, breakdown[metric], points)
		}
	}
	if total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	signals := services.Signals{
		LoudnessLUFS:    -23.7,
		NoiseFloorDB:    -41.2,
		Width:           720,
		Height:          1280,
		MotionVariance:  0.11,
		CaptionCoverage: 0.63,
	}
	first, _, err := Score(signals, midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := Score(signals, midCandidate(), defaultBounds)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if again != first {
			t.Fatalf("run %d produced %d, first run produced %d", i, again, first)
		}
	}
}

func TestScoreDurationFitness(t *testing.T) {
	cases := []struct {
		duration float64
		want     int
	}{
		{40, DurationCap}, // midpoint
		{20, 0},           // at the edge
		{60, 0},
		{30, 13}, // halfway out: 25 * 0.5, rounded half away from zero
		{50, 13},
	}
	for _, tc := range cases {
		candidate := queue.Candidate{ID: "d", DurationSeconds: tc.duration}
		_, breakdown, err := Score(goodSignals(), candidate, defaultBounds)
		if err != nil {
			t.Fatalf("Score(%g): %v", tc.duration, err)
		}
		if breakdown[MetricDuration] != tc.want {
			t.Errorf("duration %gs = %d points, want %d", tc.duration, breakdown[MetricDuration], tc.want)
		}
	}
}

func TestScoreSubtitleCoverageScalesLinearly(t *testing.T) {
	signals := goodSignals()
	signals.CaptionCoverage = 0.5
	_, breakdown, err := Score(signals, midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// 25 * 0.5 rounds half away from zero.
	if breakdown[MetricSubtitles] != 13 {
		t.Fatalf("half coverage = %d points, want 13", breakdown[MetricSubtitles])
	}

	signals.CaptionCoverage = 1.5 // clamps to full
	_, breakdown, err = Score(signals, midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if breakdown[MetricSubtitles] != SubtitlesCap {
		t.Fatalf("over-coverage = %d points, want cap %d", breakdown[MetricSubtitles], SubtitlesCap)
	}
}

func TestScoreAudioDegradesAwayFromTarget(t *testing.T) {
	quiet := goodSignals()
	quiet.LoudnessLUFS = -28 // 8 LU below target range

	onTarget, _, err := Score(goodSignals(), midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	offTarget, _, err := Score(quiet, midCandidate(), defaultBounds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if offTarget >= onTarget {
		t.Fatalf("off-target loudness scored %d, on-target %d; expected lower", offTarget, onTarget)
	}
}

func TestScoreRejectsInvalidBounds(t *testing.T) {
	for _, bounds := range []Bounds{
		{MinDuration: 0, MaxDuration: 60},
		{MinDuration: 20, MaxDuration: 0},
		{MinDuration: 60, MaxDuration: 20},
	} {
		if _, _, err := Score(goodSignals(), midCandidate(), bounds); err == nil {
			t.Errorf("bounds %+v: expected error", bounds)
		}
	}
}
