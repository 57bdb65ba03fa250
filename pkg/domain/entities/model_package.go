package entities

import "time"

// ModelPackage is a registry entry produced by the training pipeline.
// The release workflow reads it and never mutates it.
type ModelPackage struct {
	Arn            string             `json:"arn"`
	GroupName      string             `json:"groupName"`
	Version        int                `json:"version,omitempty"`
	ApprovalStatus ApprovalStatus     `json:"approvalStatus"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
	CreationTime   time.Time          `json:"creationTime"`
}

func (p *ModelPackage) IsApproved() bool {
	return p != nil && p.ApprovalStatus == ApprovalStatusApproved
}
