package commands

import (
	"fmt"
	"io"
	"strings"

	"careerflow/domain/core/valueobjects"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/utils"
)

// NodeKey is the in-flight key of an existing node
func NodeKey(id valueobjects.NodeID) string {
	return "node:" + id.String()
}

// LabelKey is the in-flight key of a node about to be created
func LabelKey(parent valueobjects.NodeID, label string) string {
	return fmt.Sprintf("label:%s:%s", parent, valueobjects.LabelKey(label))
}

// CreateCompanyCommand adds a company under the base node and mirrors it to the backend
type CreateCompanyCommand struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Description string `json:"description"`
	Website     string `json:"website" validate:"omitempty,url"`
	Industry    string `json:"industry" validate:"max=100"`
}

func (c CreateCompanyCommand) Validate() error { return utils.ValidateStruct(c) }
func (c CreateCompanyCommand) Keys() []string {
	return []string{LabelKey(valueobjects.RootID, c.Name)}
}

// CreateRoleCommand adds a role under a company and mirrors it as a job
type CreateRoleCommand struct {
	CompanyNodeID valueobjects.NodeID `json:"company_node_id" validate:"required"`
	Title         string              `json:"title" validate:"notblank,max=255"`
	Description   string              `json:"description"`
	Requirements  string              `json:"requirements"`
	Location      string              `json:"location" validate:"max=255"`
	SalaryRange   string              `json:"salary_range" validate:"max=100"`
	JobType       string              `json:"job_type" validate:"omitempty,oneof=full-time part-time contract internship"`
}

func (c CreateRoleCommand) Validate() error { return utils.ValidateStruct(c) }
func (c CreateRoleCommand) Keys() []string {
	return []string{LabelKey(c.CompanyNodeID, c.Title)}
}

// RenameNodeCommand relabels a node and its backend record
type RenameNodeCommand struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
	Label  string              `json:"label" validate:"notblank"`
}

func (c RenameNodeCommand) Validate() error { return utils.ValidateStruct(c) }
func (c RenameNodeCommand) Keys() []string  { return []string{NodeKey(c.NodeID)} }

// DeleteNodeCommand removes a node, its subtree and its backend record
type DeleteNodeCommand struct {
	NodeID valueobjects.NodeID `json:"node_id" validate:"required"`
}

func (c DeleteNodeCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.NodeID.IsRoot() {
		return pkgerrors.ErrProtectedNode.Clone().WithDetail("node_id", c.NodeID.String())
	}
	return nil
}
func (c DeleteNodeCommand) Keys() []string { return []string{NodeKey(c.NodeID)} }

// DeleteSelectionCommand removes several nodes at once. Each node is
// mirrored and rolled back on its own.
type DeleteSelectionCommand struct {
	NodeIDs []valueobjects.NodeID `json:"node_ids" validate:"required,min=1,dive,required"`
}

func (c DeleteSelectionCommand) Validate() error {
	if len(c.NodeIDs) == 0 {
		return pkgerrors.ErrEmptySelection.Clone()
	}
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	for _, id := range c.NodeIDs {
		if id.IsRoot() {
			return pkgerrors.ErrProtectedNode.Clone().WithDetail("node_id", id.String())
		}
	}
	return nil
}
func (c DeleteSelectionCommand) Keys() []string {
	keys := make([]string, 0, len(c.NodeIDs))
	for _, id := range c.NodeIDs {
		keys = append(keys, NodeKey(id))
	}
	return keys
}

// GenerateTailoredResumeCommand asks the backend for a new resume version of a role
type GenerateTailoredResumeCommand struct {
	RoleNodeID valueobjects.NodeID `json:"role_node_id" validate:"required"`
	Feedback   string              `json:"feedback" validate:"max=5000"`
}

func (c GenerateTailoredResumeCommand) Validate() error { return utils.ValidateStruct(c) }
func (c GenerateTailoredResumeCommand) Keys() []string  { return []string{NodeKey(c.RoleNodeID)} }

// UploadCVCommand replaces the base CV
type UploadCVCommand struct {
	Filename string    `validate:"required,cvfile"`
	Size     int64     `validate:"gt=0,lte=10485760"`
	Content  io.Reader `validate:"required"`
}

func (c UploadCVCommand) Validate() error { return utils.ValidateStruct(c) }
func (c UploadCVCommand) Keys() []string  { return []string{NodeKey(valueobjects.RootID)} }

// UpdateCVTextCommand stores an edited text of the base CV
type UpdateCVTextCommand struct {
	Text string `json:"text" validate:"notblank"`
}

func (c UpdateCVTextCommand) Validate() error { return utils.ValidateStruct(c) }
func (c UpdateCVTextCommand) Keys() []string  { return []string{NodeKey(valueobjects.RootID)} }

// Normalize trims the free-text fields the way the backend serializers do
func (c CreateCompanyCommand) Normalize() CreateCompanyCommand {
	c.Name = strings.TrimSpace(c.Name)
	c.Website = strings.TrimSpace(c.Website)
	c.Industry = strings.TrimSpace(c.Industry)
	return c
}

// Normalize trims the free-text fields and defaults the job type
func (c CreateRoleCommand) Normalize() CreateRoleCommand {
	c.Title = strings.TrimSpace(c.Title)
	c.Location = strings.TrimSpace(c.Location)
	if c.JobType == "" {
		c.JobType = "full-time"
	}
	return c
}
