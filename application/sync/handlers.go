package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"careerflow/application/commands"
	"careerflow/application/commands/bus"
	"careerflow/application/ports"
	"careerflow/domain/core/aggregates"
	"careerflow/domain/core/entities"
	"careerflow/domain/core/valueobjects"
	"careerflow/domain/workspace"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/utils"
)

func (a *Adapter) handleCreateCompany(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.CreateCompanyCommand).Normalize()
	ctx, span := a.startSpan(ctx, "CreateCompany", attribute.String("company.name", c.Name))
	defer func() { endSpan(span, err) }()

	fields := ports.CompanyFields{
		Name:        c.Name,
		Description: c.Description,
		Website:     c.Website,
		Industry:    c.Industry,
	}
	res, err := a.run(ctx, mirror{
		op: "create company",
		apply: workspace.AddChild{
			ParentID: valueobjects.RootID,
			Label:    c.Name,
			Details:  entities.CompanyDetails{Description: c.Description, Website: c.Website, Industry: c.Industry},
		},
		remote: func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error) {
			company, err := a.backend.CreateCompany(ctx, fields)
			if err != nil {
				return nil, err
			}
			return []workspace.Action{workspace.LinkBackend{ID: applied.Node.ID(), BackendID: company.ID}}, nil
		},
		revert:  deleteApplied,
		creates: true,
	})
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

func (a *Adapter) handleCreateRole(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.CreateRoleCommand).Normalize()
	ctx, span := a.startSpan(ctx, "CreateRole",
		attribute.Int64("company.node_id", int64(c.CompanyNodeID)),
		attribute.String("role.title", c.Title),
	)
	defer func() { endSpan(span, err) }()

	company, err := a.workspace.Snapshot().Tree.Get(c.CompanyNodeID)
	if err != nil {
		return nil, err
	}
	if company.Kind() != entities.KindCompany {
		return nil, pkgerrors.ErrUnsupportedChild.Clone().
			WithMessage("roles can only be added to companies").
			WithDetail("parent_type", company.Kind().String())
	}
	if a.backend != nil && !company.IsSynced() {
		return nil, pkgerrors.ErrNotSynchronized.Clone().WithDetail("node_id", company.ID().String())
	}

	details := entities.RoleDetails{
		Description:  c.Description,
		Requirements: c.Requirements,
		Location:     c.Location,
		SalaryRange:  c.SalaryRange,
		JobType:      c.JobType,
	}
	res, err := a.run(ctx, mirror{
		op:    "create role",
		apply: workspace.AddChild{ParentID: company.ID(), Label: c.Title, Details: details},
		remote: func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error) {
			job, err := a.backend.CreateJob(ctx, jobFields(c.Title, company.BackendID(), details))
			if err != nil {
				return nil, err
			}
			return []workspace.Action{workspace.LinkBackend{ID: applied.Node.ID(), BackendID: job.ID}}, nil
		},
		revert:  deleteApplied,
		creates: true,
	})
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

func (a *Adapter) handleRenameNode(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.RenameNodeCommand)
	ctx, span := a.startSpan(ctx, "RenameNode", attribute.Int64("node.id", int64(c.NodeID)))
	defer func() { endSpan(span, err) }()

	snap := a.workspace.Snapshot().Tree
	node, err := snap.Get(c.NodeID)
	if err != nil {
		return nil, err
	}

	m := mirror{
		op:    "rename " + node.Kind().String(),
		apply: workspace.Rename{ID: node.ID(), Label: c.Label},
		revert: func(workspace.Result) workspace.Action {
			return workspace.Rename{ID: node.ID(), Label: node.Label()}
		},
	}
	// Unsynced nodes and the base label live only in the tree.
	if node.IsSynced() {
		switch node.Kind() {
		case entities.KindCompany:
			m.remote = func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error) {
				d, _ := applied.Node.Details().(entities.CompanyDetails)
				_, err := a.backend.UpdateCompany(ctx, node.BackendID(), ports.CompanyFields{
					Name:        applied.Node.Label(),
					Description: d.Description,
					Website:     d.Website,
					Industry:    d.Industry,
				})
				return nil, err
			}
		case entities.KindRole:
			parent, err := snap.Get(node.ParentID())
			if err != nil {
				return nil, err
			}
			m.remote = func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error) {
				d, _ := applied.Node.Details().(entities.RoleDetails)
				_, err := a.backend.UpdateJob(ctx, node.BackendID(), jobFields(applied.Node.Label(), parent.BackendID(), d))
				return nil, err
			}
		}
	}

	res, err := a.run(ctx, m)
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

func (a *Adapter) handleDeleteNode(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.DeleteNodeCommand)
	ctx, span := a.startSpan(ctx, "DeleteNode", attribute.Int64("node.id", int64(c.NodeID)))
	defer func() { endSpan(span, err) }()

	removal, err := a.deleteOne(ctx, c.NodeID)
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: removal.IDs}, nil
}

// handleDeleteSelection deletes each node on its own so one backend failure
// only restores that node's subtree. Nodes already removed with an ancestor
// are skipped.
func (a *Adapter) handleDeleteSelection(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.DeleteSelectionCommand)
	ctx, span := a.startSpan(ctx, "DeleteSelection", attribute.Int("nodes.count", len(c.NodeIDs)))
	defer func() { endSpan(span, err) }()

	var (
		removed []valueobjects.NodeID
		errs    []error
	)
	for _, id := range c.NodeIDs {
		if !a.workspace.Snapshot().Tree.Has(id) {
			if containsID(removed, id) {
				continue
			}
			errs = append(errs, pkgerrors.NewNodeNotFoundError(id))
			continue
		}
		removal, err := a.deleteOne(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete node %s: %w", id, err))
			continue
		}
		removed = append(removed, removal.IDs...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &bus.Result{Data: removed}, nil
}

func (a *Adapter) deleteOne(ctx context.Context, id valueobjects.NodeID) (aggregates.Removal, error) {
	node, err := a.workspace.Snapshot().Tree.Get(id)
	if err != nil {
		return aggregates.Removal{}, err
	}

	m := mirror{
		op:    "delete " + node.Kind().String(),
		apply: workspace.Delete{ID: id},
		revert: func(applied workspace.Result) workspace.Action {
			return workspace.Restore{Nodes: applied.Removal.Nodes}
		},
	}
	if node.IsSynced() {
		remove := a.remoteDelete(node)
		m.remote = func(ctx context.Context, _ workspace.Result) ([]workspace.Action, error) {
			err := remove(ctx)
			if pkgerrors.IsNotFound(err) {
				// Already gone on the backend.
				return nil, nil
			}
			return nil, err
		}
	}

	res, err := a.run(ctx, m)
	if err != nil {
		return aggregates.Removal{}, err
	}
	return res.Removal, nil
}

func (a *Adapter) remoteDelete(node entities.Node) func(ctx context.Context) error {
	id := node.BackendID()
	switch node.Kind() {
	case entities.KindCompany:
		return func(ctx context.Context) error { return a.backend.DeleteCompany(ctx, id) }
	case entities.KindRole:
		return func(ctx context.Context) error { return a.backend.DeleteJob(ctx, id) }
	case entities.KindTailored:
		return func(ctx context.Context) error { return a.backend.DeleteTailoredResume(ctx, id) }
	default:
		return func(context.Context) error { return nil }
	}
}

func (a *Adapter) handleGenerateTailoredResume(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.GenerateTailoredResumeCommand)
	ctx, span := a.startSpan(ctx, "GenerateTailoredResume", attribute.Int64("role.node_id", int64(c.RoleNodeID)))
	defer func() { endSpan(span, err) }()

	if a.backend == nil {
		return nil, pkgerrors.NewUnavailableError("resume tailoring backend")
	}

	snap := a.workspace.Snapshot().Tree
	role, err := snap.Get(c.RoleNodeID)
	if err != nil {
		return nil, err
	}
	if role.Kind() != entities.KindRole {
		return nil, pkgerrors.ErrUnsupportedChild.Clone().
			WithMessage("tailored resumes can only be generated for roles").
			WithDetail("node_type", role.Kind().String())
	}
	if !role.IsSynced() {
		return nil, pkgerrors.ErrNotSynchronized.Clone().WithDetail("node_id", role.ID().String())
	}
	company, err := snap.Get(role.ParentID())
	if err != nil {
		return nil, err
	}

	cv, _ := snap.Root().Details().(entities.BaseDetails)
	cvText, err := a.cvText(ctx, cv)
	if err != nil {
		return nil, err
	}

	roleDetails, _ := role.Details().(entities.RoleDetails)
	req := ports.TailorRequest{
		JobID:          role.BackendID(),
		CVText:         cvText,
		Company:        company.Label(),
		JobDescription: jobDescription(role.Label(), roleDetails),
		Feedback:       c.Feedback,
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	res, err := a.run(ctx, mirror{
		op: "tailor resume",
		apply: workspace.AddTailoredVersion{
			RoleID:  role.ID(),
			Details: entities.TailoredDetails{Feedback: c.Feedback, CreatedAt: createdAt},
		},
		remote: func(ctx context.Context, applied workspace.Result) ([]workspace.Action, error) {
			out, err := a.backend.TailorResume(ctx, req)
			if err != nil {
				return nil, err
			}
			commit := []workspace.Action{workspace.UpdateDetails{
				ID: applied.Node.ID(),
				Details: entities.TailoredDetails{
					Content:   out.TailoredContent,
					FilePath:  out.FilePath,
					Feedback:  c.Feedback,
					CreatedAt: createdAt,
				},
			}}
			if out.ID != 0 {
				commit = append(commit, workspace.LinkBackend{ID: applied.Node.ID(), BackendID: out.ID})
			}
			return commit, nil
		},
		revert:  deleteApplied,
		creates: true,
	})
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

// cvText prefers the text stored on the base node and falls back to asking
// the backend to extract it from the uploaded file.
func (a *Adapter) cvText(ctx context.Context, cv entities.BaseDetails) (string, error) {
	if strings.TrimSpace(cv.Text) != "" {
		return cv.Text, nil
	}
	if cv.CVID == 0 {
		return "", pkgerrors.NewValidationError("upload a base CV before generating a tailored resume")
	}
	text, err := a.backend.ExtractCVText(ctx, cv.CVID)
	if err != nil {
		return "", backendError("extract cv text", err)
	}
	if strings.TrimSpace(text.Text) == "" {
		return "", pkgerrors.NewValidationError("the base CV has no extractable text")
	}
	return text.Text, nil
}

func (a *Adapter) handleUploadCV(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.UploadCVCommand)
	ctx, span := a.startSpan(ctx, "UploadCV",
		attribute.String("cv.filename", c.Filename),
		attribute.Int64("cv.size", c.Size),
	)
	defer func() { endSpan(span, err) }()

	previous, _ := a.workspace.Snapshot().Tree.Root().Details().(entities.BaseDetails)
	pending := entities.BaseDetails{Filename: c.Filename, UploadedAt: time.Now().UTC()}

	if a.backend == nil {
		// Plain text files can be read locally; other formats need the backend extractor.
		if strings.EqualFold(filepath.Ext(c.Filename), ".txt") {
			data, err := io.ReadAll(io.LimitReader(c.Content, utils.MaxCVSize))
			if err != nil {
				return nil, pkgerrors.Wrap(err, "read cv")
			}
			pending.Text = string(bytes.ToValidUTF8(data, nil))
		}
	}

	res, err := a.run(ctx, mirror{
		op:    "upload cv",
		apply: workspace.UpdateDetails{ID: valueobjects.RootID, Details: pending},
		remote: func(ctx context.Context, _ workspace.Result) ([]workspace.Action, error) {
			meta, err := a.backend.UploadCV(ctx, ports.CVUpload{Filename: c.Filename, Size: c.Size, Content: c.Content})
			if err != nil {
				return nil, err
			}
			details := entities.BaseDetails{
				CVID:       meta.ID,
				Filename:   firstNonEmpty(meta.Filename, c.Filename),
				UploadedAt: meta.UploadedAt,
			}
			if details.UploadedAt.IsZero() {
				details.UploadedAt = pending.UploadedAt
			}
			text, err := a.backend.ExtractCVText(ctx, meta.ID)
			if err != nil {
				a.logger.Warn("CV uploaded but text extraction failed",
					zap.Int64("cv_id", meta.ID),
					zap.Error(err),
				)
			} else {
				details.Text = text.Text
			}
			return []workspace.Action{workspace.UpdateDetails{ID: valueobjects.RootID, Details: details}}, nil
		},
		revert: func(workspace.Result) workspace.Action {
			return workspace.UpdateDetails{ID: valueobjects.RootID, Details: previous}
		},
	})
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

func (a *Adapter) handleUpdateCVText(ctx context.Context, cmd bus.Command) (_ *bus.Result, err error) {
	c := cmd.(commands.UpdateCVTextCommand)
	ctx, span := a.startSpan(ctx, "UpdateCVText", attribute.Int("cv.text_length", len(c.Text)))
	defer func() { endSpan(span, err) }()

	previous, _ := a.workspace.Snapshot().Tree.Root().Details().(entities.BaseDetails)
	if a.backend != nil && previous.CVID == 0 {
		return nil, pkgerrors.ErrNotSynchronized.Clone().
			WithMessage("upload a base CV before editing its text")
	}
	updated := previous
	updated.Text = c.Text

	res, err := a.run(ctx, mirror{
		op:    "update cv text",
		apply: workspace.UpdateDetails{ID: valueobjects.RootID, Details: updated},
		remote: func(ctx context.Context, _ workspace.Result) ([]workspace.Action, error) {
			_, err := a.backend.UpdateCVText(ctx, previous.CVID, c.Text)
			return nil, err
		},
		revert: func(workspace.Result) workspace.Action {
			return workspace.UpdateDetails{ID: valueobjects.RootID, Details: previous}
		},
	})
	if err != nil {
		return nil, err
	}
	return &bus.Result{Data: res.Node}, nil
}

func deleteApplied(applied workspace.Result) workspace.Action {
	return workspace.Delete{ID: applied.Node.ID()}
}

func jobFields(title string, companyID int64, d entities.RoleDetails) ports.JobFields {
	jobType := d.JobType
	if jobType == "" {
		jobType = ports.JobTypeFullTime
	}
	return ports.JobFields{
		Title:        title,
		CompanyID:    companyID,
		Description:  d.Description,
		Requirements: d.Requirements,
		Location:     d.Location,
		SalaryRange:  d.SalaryRange,
		JobType:      jobType,
	}
}

// jobDescription is what the tailoring model reads about the role
func jobDescription(title string, d entities.RoleDetails) string {
	parts := []string{title}
	if s := strings.TrimSpace(d.Description); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(d.Requirements); s != "" {
		parts = append(parts, "Requirements:\n"+s)
	}
	return strings.Join(parts, "\n\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsID(ids []valueobjects.NodeID, id valueobjects.NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
