package templating

import (
	"testing"

	"shortpipe/internal/config"
)

func testCatalog() *Catalog {
	return NewCatalog([]config.Template{
		{
			ID:           "tutorial-callout",
			ContentTypes: []string{"tutorial", "review"},
			MaxScore:     100,
			Priority:     5,
			Enabled:      true,
		},
		{
			ID:       "premium-frame",
			MinScore: 85,
			MaxScore: 100,
			Priority: 8,
			Enabled:  true,
		},
		{
			ID:          "quick-cut",
			MinDuration: 0,
			MaxDuration: 30,
			MaxScore:    100,
			Priority:    3,
			Enabled:     true,
		},
		{
			ID:       "plain",
			MaxScore: 100,
			Priority: 10,
			Enabled:  true,
		},
		{
			ID:           "retired",
			ContentTypes: []string{"tutorial"},
			MaxScore:     100,
			Priority:     100,
			Enabled:      false,
		},
	})
}

func TestSelectContentTypeWinsFirst(t *testing.T) {
	tmpl, err := testCatalog().Select(Attributes{ContentType: "tutorial", Score: 95, Duration: 25})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tmpl.ID != "tutorial-callout" {
		t.Fatalf("selected %s, want tutorial-callout", tmpl.ID)
	}
}

func TestSelectDisabledTemplatesNeverMatch(t *testing.T) {
	// "retired" has the highest priority and a tutorial tag but is
	// disabled.
	tmpl, err := testCatalog().Select(Attributes{ContentType: "tutorial"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tmpl.ID == "retired" {
		t.Fatal("disabled template was selected")
	}
}

func TestSelectScoreTier(t *testing.T) {
	tmpl, err := testCatalog().Select(Attributes{Score: 90, Duration: 45})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tmpl.ID != "premium-frame" {
		t.Fatalf("selected %s, want premium-frame", tmpl.ID)
	}
}

func TestSelectDurationTier(t *testing.T) {
	tmpl, err := testCatalog().Select(Attributes{Score: 50, Duration: 22})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tmpl.ID != "quick-cut" {
		t.Fatalf("selected %s, want quick-cut", tmpl.ID)
	}
}

func TestSelectFallsBackToHighestPriority(t *testing.T) {
	tmpl, err := testCatalog().Select(Attributes{Score: 50, Duration: 45})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if tmpl.ID != "plain" {
		t.Fatalf("selected %s, want plain (highest-priority fallback)", tmpl.ID)
	}
}

func TestSelectNoEnabledTemplatesErrors(t *testing.T) {
	catalog := NewCatalog([]config.Template{
		{ID: "off", Enabled: false},
	})
	if _, err := catalog.Select(Attributes{Score: 50}); err == nil {
		t.Fatal("expected configuration error with zero enabled templates")
	}
}

func TestDetectContentType(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"How To Sharpen a Chef's Knife", "tutorial"},
		{"iPhone 17 First Look", "review"},
		{"Unboxing the new console", "unboxing"},
		{"Celebrity Q&A session", "interview"},
		{"Elden Ring speedrun world record", "gameplay"},
		{"Big announcement tomorrow", "news"},
		{"Just a regular vlog", ""},
	}
	for _, tc := range cases {
		if got := DetectContentType(tc.title); got != tc.want {
			t.Errorf("DetectContentType(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
