package entity

import "ai-storycraft-be/internal/apperror"

// ProseChainEntry is one story section. Active is always a member of
// ProseFragments, and ProseFragments is never empty.
type ProseChainEntry struct {
	ProseFragments []string `json:"proseFragments"`
	Active         string   `json:"active"`
}

// ProseChain is the ordered list of story sections; the entry index is the
// section's canonical position in the story.
type ProseChain struct {
	Entries []ProseChainEntry `json:"entries"`
}

func NewProseChain(fragmentId string) *ProseChain {
	return &ProseChain{
		Entries: []ProseChainEntry{{
			ProseFragments: []string{fragmentId},
			Active:         fragmentId,
		}},
	}
}

// AddSection appends a new single-variation section.
func (pc *ProseChain) AddSection(fragmentId string) {
	pc.Entries = append(pc.Entries, ProseChainEntry{
		ProseFragments: []string{fragmentId},
		Active:         fragmentId,
	})
}

// InsertSection inserts a new section at position, shifting later sections.
// Position may equal len(Entries), which is equivalent to AddSection.
func (pc *ProseChain) InsertSection(fragmentId string, position int) error {
	if position < 0 || position > len(pc.Entries) {
		return apperror.IndexOutOfRange("insert position %d (chain has %d sections)", position, len(pc.Entries))
	}
	entry := ProseChainEntry{
		ProseFragments: []string{fragmentId},
		Active:         fragmentId,
	}
	pc.Entries = append(pc.Entries, ProseChainEntry{})
	copy(pc.Entries[position+1:], pc.Entries[position:])
	pc.Entries[position] = entry
	return nil
}

// AddVariation appends a fragment as a new variation of the section and
// makes it the active one.
func (pc *ProseChain) AddVariation(sectionIndex int, fragmentId string) error {
	if sectionIndex < 0 || sectionIndex >= len(pc.Entries) {
		return apperror.IndexOutOfRange("section %d (chain has %d sections)", sectionIndex, len(pc.Entries))
	}
	entry := &pc.Entries[sectionIndex]
	entry.ProseFragments = append(entry.ProseFragments, fragmentId)
	entry.Active = fragmentId
	return nil
}

// SwitchActive activates an existing variation of the section. The fragment
// must already be one of the section's variations.
func (pc *ProseChain) SwitchActive(sectionIndex int, fragmentId string) error {
	if sectionIndex < 0 || sectionIndex >= len(pc.Entries) {
		return apperror.IndexOutOfRange("section %d (chain has %d sections)", sectionIndex, len(pc.Entries))
	}
	entry := &pc.Entries[sectionIndex]
	for _, id := range entry.ProseFragments {
		if id == fragmentId {
			entry.Active = fragmentId
			return nil
		}
	}
	return apperror.Conflict("fragment %s is not a variation of section %d", fragmentId, sectionIndex)
}

// RemoveSection removes the section and returns its variation IDs so the
// caller can archive them.
func (pc *ProseChain) RemoveSection(sectionIndex int) ([]string, error) {
	if sectionIndex < 0 || sectionIndex >= len(pc.Entries) {
		return nil, apperror.IndexOutOfRange("section %d (chain has %d sections)", sectionIndex, len(pc.Entries))
	}
	removed := pc.Entries[sectionIndex].ProseFragments
	pc.Entries = append(pc.Entries[:sectionIndex], pc.Entries[sectionIndex+1:]...)
	return removed, nil
}

// FindSectionIndex returns the index of the section containing the fragment
// as any of its variations, or -1.
func (pc *ProseChain) FindSectionIndex(fragmentId string) int {
	for i, entry := range pc.Entries {
		for _, id := range entry.ProseFragments {
			if id == fragmentId {
				return i
			}
		}
	}
	return -1
}

// ActiveIds returns the ordered timeline: one fragment ID per section, always
// the active variation.
func (pc *ProseChain) ActiveIds() []string {
	ids := make([]string, 0, len(pc.Entries))
	for _, entry := range pc.Entries {
		ids = append(ids, entry.Active)
	}
	return ids
}

// Truncate keeps sections [0, afterIndex] inclusive. Used when forking a
// branch mid-story.
func (pc *ProseChain) Truncate(afterIndex int) {
	if afterIndex < 0 {
		pc.Entries = nil
		return
	}
	if afterIndex+1 < len(pc.Entries) {
		pc.Entries = pc.Entries[:afterIndex+1]
	}
}
