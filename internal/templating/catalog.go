package templating

import (
	"sort"
	"strings"

	"shortpipe/internal/config"
	"shortpipe/internal/services"
)

// Attributes describe the clip the selector matches against the catalog.
type Attributes struct {
	ContentType string
	Score       int
	Duration    float64
}

// Catalog wraps the configured template list with selection logic.
type Catalog struct {
	templates []config.Template
}

// NewCatalog builds a catalog from configuration, preserving order.
func NewCatalog(templates []config.Template) *Catalog {
	cp := make([]config.Template, len(templates))
	copy(cp, templates)
	return &Catalog{templates: cp}
}

// Select picks a template for the given attributes. Strategies apply in
// order, first match wins: content-type tag, quality-score tier,
// duration tier, highest-priority enabled fallback. Disabled templates
// are never selected. With zero enabled templates Select returns a
// configuration error rather than a silent default.
func (c *Catalog) Select(attrs Attributes) (config.Template, error) {
	enabled := c.enabledByPriority()
	if len(enabled) == 0 {
		return config.Template{}, services.Wrap(services.ErrConfiguration, "templating", "select",
			"no enabled templates in catalog", nil)
	}

	if tag := strings.ToLower(strings.TrimSpace(attrs.ContentType)); tag != "" {
		for _, t := range enabled {
			if matchesContentType(t, tag) {
				return t, nil
			}
		}
	}

	for _, t := range enabled {
		if hasScoreTier(t) && attrs.Score >= t.MinScore && attrs.Score <= t.MaxScore {
			return t, nil
		}
	}

	for _, t := range enabled {
		if hasDurationTier(t) && matchesDuration(t, attrs.Duration) {
			return t, nil
		}
	}

	return enabled[0], nil
}

// enabledByPriority returns enabled templates sorted by priority
// descending, preserving catalog order among equal priorities.
func (c *Catalog) enabledByPriority() []config.Template {
	var enabled []config.Template
	for _, t := range c.templates {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})
	return enabled
}

func matchesContentType(t config.Template, tag string) bool {
	for _, contentType := range t.ContentTypes {
		if contentType == tag {
			return true
		}
	}
	return false
}

func hasScoreTier(t config.Template) bool {
	return t.MinScore > 0 || t.MaxScore < 100
}

func hasDurationTier(t config.Template) bool {
	return t.MinDuration > 0 || t.MaxDuration > 0
}

func matchesDuration(t config.Template, duration float64) bool {
	if duration < t.MinDuration {
		return false
	}
	if t.MaxDuration > 0 && duration > t.MaxDuration {
		return false
	}
	return true
}
