package dto

// PublishFragmentSavedMessage is the payload on the fragment.saved topic.
// BranchId is captured when the fragment is saved so the librarian run stays
// on that branch even if the author switches branches during the debounce
// window.
type PublishFragmentSavedMessage struct {
	StoryId    string `json:"story_id"`
	BranchId   string `json:"branch_id"`
	FragmentId string `json:"fragment_id"`
}

type SaveFragmentRequest struct {
	Id          string   `json:"id,omitempty"`
	Type        string   `json:"type" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Refs        []string `json:"refs"`
	Reason      string   `json:"reason,omitempty"` // version snapshot reason
}

type CreateBranchRequest struct {
	Name           string `json:"name" validate:"required"`
	ParentBranchId string `json:"parent_branch_id" validate:"required"`
	ForkAfterIndex *int   `json:"fork_after_index,omitempty"`
}
