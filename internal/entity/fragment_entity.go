package entity

import "time"

// Fragment is a versioned content unit: prose, a character sheet, a
// world-building note, etc. A fragment belongs to exactly one branch's
// content root; branching copies it physically, never by reference.
type Fragment struct {
	Id          string                 `json:"id"`
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Content     string                 `json:"content"`
	Tags        []string               `json:"tags,omitempty"`
	Refs        []string               `json:"refs,omitempty"` // fragment IDs
	Sticky      bool                   `json:"sticky,omitempty"`
	Placement   string                 `json:"placement,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	Order       int                    `json:"order"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	Archived    bool                   `json:"archived,omitempty"`
	Version     int                    `json:"version"`
	Versions    []FragmentVersion      `json:"versions,omitempty"`
}

// FragmentVersion is a prior snapshot, pushed on every content-affecting
// update.
type FragmentVersion struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Reason      string    `json:"reason,omitempty"`
}

// Fragment types
const (
	FragmentTypeProse     = "prose"
	FragmentTypeCharacter = "character"
	FragmentTypeWorld     = "world"
	FragmentTypeNote      = "note"
)

// Snapshot captures the current content-affecting fields as a version entry.
func (f *Fragment) Snapshot(reason string) FragmentVersion {
	return FragmentVersion{
		Version:     f.Version,
		Name:        f.Name,
		Description: f.Description,
		Content:     f.Content,
		CreatedAt:   f.UpdatedAt,
		Reason:      reason,
	}
}

// ContentChanged reports whether applying the given fields would require a
// new version snapshot.
func (f *Fragment) ContentChanged(name, description, content string) bool {
	return f.Name != name || f.Description != description || f.Content != content
}
