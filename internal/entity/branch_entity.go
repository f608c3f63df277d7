package entity

import "time"

// MainBranchId is created automatically for every story and can never be
// deleted.
const MainBranchId = "main"

type Branch struct {
	Id             string    `json:"id"`
	Name           string    `json:"name"`
	Order          int       `json:"order"` // display hint only
	ParentBranchId string    `json:"parentBranchId,omitempty"`
	ForkAfterIndex *int      `json:"forkAfterIndex,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BranchesIndex is the per-story branches.json. ActiveBranchId always names
// a branch present in Branches, and Branches always contains "main".
type BranchesIndex struct {
	Branches       []Branch `json:"branches"`
	ActiveBranchId string   `json:"activeBranchId"`
}

func (bi *BranchesIndex) Find(branchId string) *Branch {
	for i := range bi.Branches {
		if bi.Branches[i].Id == branchId {
			return &bi.Branches[i]
		}
	}
	return nil
}

func (bi *BranchesIndex) Contains(branchId string) bool {
	return bi.Find(branchId) != nil
}

func (bi *BranchesIndex) Remove(branchId string) {
	kept := bi.Branches[:0]
	for _, b := range bi.Branches {
		if b.Id != branchId {
			kept = append(kept, b)
		}
	}
	bi.Branches = kept
}
