package model

import "strings"

// DefaultPlatforms is the platform set used when configuration supplies none.
var DefaultPlatforms = []string{"twitter", "linkedin", "instagram"}

// Platforms is the configured set of supported platform tags.
type Platforms struct {
	tags  []string
	index map[string]struct{}
}

// NewPlatforms builds a set from the given tags. Tags are lower-cased,
// blanks and duplicates are dropped.
func NewPlatforms(tags []string) Platforms {
	p := Platforms{index: make(map[string]struct{}, len(tags))}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := p.index[tag]; dup {
			continue
		}
		p.index[tag] = struct{}{}
		p.tags = append(p.tags, tag)
	}
	return p
}

// Contains reports whether tag (case-insensitive) is supported.
func (p Platforms) Contains(tag string) bool {
	_, ok := p.index[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Tags returns the supported tags in configuration order.
func (p Platforms) Tags() []string {
	out := make([]string, len(p.tags))
	copy(out, p.tags)
	return out
}
