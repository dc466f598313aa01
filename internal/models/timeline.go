package models

import "time"

// Timeline holds one parent's checklist. There is at most one per parent.
type Timeline struct {
	ParentID  string         `bson:"parentId" json:"parentId"`
	Tasks     []TimelineTask `bson:"tasks" json:"tasks"`
	UpdatedAt time.Time      `bson:"updatedAt" json:"updatedAt"`
}

type TimelineTask struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}
