package templating

import "strings"

// contentTypeKeywords maps title phrases to content-type tags. Checked
// in declaration order; first hit wins.
var contentTypeKeywords = []struct {
	tag      string
	keywords []string
}{
	{"tutorial", []string{"tutorial", "how to", "howto", "guide", "walkthrough"}},
	{"review", []string{"review", "first look", "hands-on", "hands on"}},
	{"unboxing", []string{"unboxing", "unbox"}},
	{"interview", []string{"interview", "q&a", "ama"}},
	{"gameplay", []string{"gameplay", "playthrough", "speedrun"}},
	{"news", []string{"news", "announcement", "update"}},
}

// DetectContentType infers a content-type tag from a video title.
// Returns the empty string when no keyword matches.
func DetectContentType(title string) string {
	lowered := strings.ToLower(title)
	for _, entry := range contentTypeKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.tag
			}
		}
	}
	return ""
}
