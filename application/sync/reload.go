package sync

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"careerflow/application/ports"
	"careerflow/domain/core/entities"
	"careerflow/domain/workspace"
)

// Reload fetches every backend record and reconciles the tree with it. It
// is the recovery path after a failed commit or rollback. Local-only
// workspaces have nothing to reload.
func (a *Adapter) Reload(ctx context.Context) (_ *workspace.ReconcileReport, err error) {
	if a.backend == nil {
		return &workspace.ReconcileReport{}, nil
	}
	ctx, span := a.startSpan(ctx, "Reload")
	defer func() { endSpan(span, err) }()

	companies, err := a.backend.ListCompanies(ctx)
	if err != nil {
		return nil, backendError("list companies", err)
	}
	jobs, err := a.backend.ListJobs(ctx)
	if err != nil {
		return nil, backendError("list jobs", err)
	}
	resumes, err := a.backend.ListTailoredResumes(ctx, 0)
	if err != nil {
		return nil, backendError("list tailored resumes", err)
	}
	latest, err := a.backend.GetLatestCV(ctx)
	if err != nil {
		return nil, backendError("get latest cv", err)
	}

	action := workspace.Reconcile{
		Entities: remoteEntities(companies, jobs, resumes),
		CV:       a.cvDetails(ctx, latest),
	}
	span.SetAttributes(
		attribute.Int("remote.companies", len(companies)),
		attribute.Int("remote.jobs", len(jobs)),
		attribute.Int("remote.tailored", len(resumes)),
	)

	res, err := a.workspace.Dispatch(action)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	a.logger.Info("Workspace reloaded from backend",
		zap.Int("added", res.Report.Added),
		zap.Int("updated", res.Report.Updated),
		zap.Int("adopted", res.Report.Adopted),
		zap.Int("removed", res.Report.Removed),
		zap.Strings("skipped", res.Report.Skipped),
	)
	return res.Report, nil
}

// cvDetails keeps the text already on the base node when the latest CV is
// the same upload, and extracts it otherwise. A missing CV leaves the base
// node untouched.
func (a *Adapter) cvDetails(ctx context.Context, latest *ports.CVMeta) *entities.BaseDetails {
	if latest == nil {
		return nil
	}
	details := entities.BaseDetails{
		CVID:       latest.ID,
		Filename:   latest.Filename,
		UploadedAt: latest.UploadedAt,
	}
	current, _ := a.workspace.Snapshot().Tree.Root().Details().(entities.BaseDetails)
	if current.CVID == latest.ID && current.Text != "" {
		details.Text = current.Text
		return &details
	}
	text, err := a.backend.ExtractCVText(ctx, latest.ID)
	if err != nil {
		a.logger.Warn("Could not extract text of the latest CV",
			zap.Int64("cv_id", latest.ID),
			zap.Error(err),
		)
		return &details
	}
	details.Text = text.Text
	if details.Filename == "" {
		details.Filename = text.Filename
	}
	return &details
}

func remoteEntities(companies []ports.Company, jobs []ports.Job, resumes []ports.TailoredResume) []workspace.RemoteEntity {
	out := make([]workspace.RemoteEntity, 0, len(companies)+len(jobs)+len(resumes))
	for _, c := range companies {
		out = append(out, workspace.RemoteEntity{
			Kind:      entities.KindCompany,
			BackendID: c.ID,
			Label:     c.Name,
			Details: entities.CompanyDetails{
				Description: c.Description,
				Website:     c.Website,
				Industry:    c.Industry,
			},
			CreatedAt: c.CreatedAt,
		})
	}
	for _, j := range jobs {
		out = append(out, workspace.RemoteEntity{
			Kind:            entities.KindRole,
			BackendID:       j.ID,
			ParentBackendID: j.CompanyID,
			Label:           j.Title,
			Details: entities.RoleDetails{
				Description:  j.Description,
				Requirements: j.Requirements,
				Location:     j.Location,
				SalaryRange:  j.SalaryRange,
				JobType:      j.JobType,
			},
			CreatedAt: j.CreatedAt,
		})
	}
	for _, r := range resumes {
		out = append(out, workspace.RemoteEntity{
			Kind:            entities.KindTailored,
			BackendID:       r.ID,
			ParentBackendID: r.JobID,
			Details: entities.TailoredDetails{
				Content:   r.TailoredContent,
				FilePath:  r.FilePath,
				Feedback:  r.Feedback,
				CreatedAt: r.CreatedAt,
			},
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
