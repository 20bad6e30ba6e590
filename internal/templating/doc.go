// Package templating selects a presentation template for a scored clip
// from the ordered catalog: content-type tag first, then quality tier,
// then duration tier, then the highest-priority enabled fallback.
package templating
