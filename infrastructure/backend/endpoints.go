package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"

	"careerflow/application/ports"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/utils"
)

// ListCompanies returns every company record
func (c *Client) ListCompanies(ctx context.Context) ([]ports.Company, error) {
	return listAll[ports.Company](ctx, c, "list_companies", "/companies/")
}

// CreateCompany stores a new company
func (c *Client) CreateCompany(ctx context.Context, fields ports.CompanyFields) (ports.Company, error) {
	var out ports.Company
	r, err := jsonRequest("create_company", http.MethodPost, "/companies/", fields)
	if err != nil {
		return out, err
	}
	return out, c.do(ctx, r, &out)
}

// UpdateCompany replaces the writable fields of a company
func (c *Client) UpdateCompany(ctx context.Context, id int64, fields ports.CompanyFields) (ports.Company, error) {
	var out ports.Company
	r, err := jsonRequest("update_company", http.MethodPut, fmt.Sprintf("/companies/%d/", id), fields)
	if err != nil {
		return out, err
	}
	return out, c.do(ctx, r, &out)
}

// DeleteCompany removes a company; the backend cascades to its jobs
func (c *Client) DeleteCompany(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete_company", method: http.MethodDelete, path: fmt.Sprintf("/companies/%d/", id)}, nil)
}

// ListJobs returns every job record
func (c *Client) ListJobs(ctx context.Context) ([]ports.Job, error) {
	return listAll[ports.Job](ctx, c, "list_jobs", "/jobs/")
}

// CreateJob stores a new job under an existing company
func (c *Client) CreateJob(ctx context.Context, fields ports.JobFields) (ports.Job, error) {
	var out ports.Job
	r, err := jsonRequest("create_job", http.MethodPost, "/jobs/", fields)
	if err != nil {
		return out, err
	}
	return out, c.do(ctx, r, &out)
}

// UpdateJob replaces the writable fields of a job
func (c *Client) UpdateJob(ctx context.Context, id int64, fields ports.JobFields) (ports.Job, error) {
	var out ports.Job
	r, err := jsonRequest("update_job", http.MethodPut, fmt.Sprintf("/jobs/%d/", id), fields)
	if err != nil {
		return out, err
	}
	return out, c.do(ctx, r, &out)
}

// DeleteJob removes a job
func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete_job", method: http.MethodDelete, path: fmt.Sprintf("/jobs/%d/", id)}, nil)
}

// GetLatestCV returns the most recent base CV, or nil when none exists
func (c *Client) GetLatestCV(ctx context.Context) (*ports.CVMeta, error) {
	var out ports.CVMeta
	err := c.do(ctx, request{op: "latest_cv", method: http.MethodGet, path: "/resumes/base-cv/latest/"}, &out)
	if pkgerrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Filename == "" {
		out.Filename = path.Base(out.File)
	}
	return &out, nil
}

// UploadCV sends a CV file as multipart field "file"
func (c *Client) UploadCV(ctx context.Context, upload ports.CVUpload) (ports.CVMeta, error) {
	var out ports.CVMeta
	body, contentType, err := encodeMultipart(nil, map[string]*ports.CVUpload{"file": &upload})
	if err != nil {
		return out, pkgerrors.NewBackendError("upload_cv", "the CV could not be prepared for upload", err)
	}
	r := request{op: "upload_cv", method: http.MethodPost, path: "/resumes/base-cv/upload/", body: body, contentType: contentType}
	if err := c.do(ctx, r, &out); err != nil {
		return out, err
	}
	if out.Filename == "" {
		out.Filename = upload.Filename
	}
	return out, nil
}

// ExtractCVText asks the backend to pull plain text out of a stored CV
func (c *Client) ExtractCVText(ctx context.Context, id int64) (ports.CVText, error) {
	var out ports.CVText
	r := request{op: "extract_cv_text", method: http.MethodPost, path: fmt.Sprintf("/resumes/base-cv/%d/extract-text/", id)}
	return out, c.do(ctx, r, &out)
}

// UpdateCVText stores an edited CV text
func (c *Client) UpdateCVText(ctx context.Context, id int64, text string) (ports.CVText, error) {
	var out ports.CVText
	r, err := jsonRequest("update_cv_text", http.MethodPut, fmt.Sprintf("/resumes/base-cv/%d/text/", id), map[string]string{"text": text})
	if err != nil {
		return out, err
	}
	if err := c.do(ctx, r, &out); err != nil {
		return out, err
	}
	if out.Text == "" {
		out.Text = text
	}
	return out, nil
}

// ListTailoredResumes lists generated resumes, optionally for one job
func (c *Client) ListTailoredResumes(ctx context.Context, jobID int64) ([]ports.TailoredResume, error) {
	p := "/resumes/tailored/"
	if jobID != 0 {
		p += "?" + url.Values{"job": {strconv.FormatInt(jobID, 10)}}.Encode()
	}
	return listAll[ports.TailoredResume](ctx, c, "list_tailored_resumes", p)
}

// TailorResume generates a resume for one job. It uses the longer tailoring
// deadline since generation runs a language model on the backend.
func (c *Client) TailorResume(ctx context.Context, req ports.TailorRequest) (ports.TailorResult, error) {
	var out ports.TailorResult
	if err := utils.ValidateStruct(req); err != nil {
		return out, err
	}

	fields := map[string]string{
		"job_id":          strconv.FormatInt(req.JobID, 10),
		"company":         req.Company,
		"job_description": req.JobDescription,
	}
	if req.Feedback != "" {
		fields["feedback"] = req.Feedback
	}
	files := map[string]*ports.CVUpload{}
	if req.CVFile != nil {
		files["cv_file"] = req.CVFile
	} else {
		fields["cv_text"] = req.CVText
	}

	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return out, pkgerrors.NewBackendError("tailor_resume", "the tailoring request could not be prepared", err)
	}
	r := request{
		op:          "tailor_resume",
		method:      http.MethodPost,
		path:        "/resumes/tailor-resume/",
		body:        body,
		contentType: contentType,
		timeout:     c.tailorTimeout,
	}
	if err := c.do(ctx, r, &out); err != nil {
		return out, err
	}
	if out.Company == "" {
		out.Company = req.Company
	}
	return out, nil
}

// DeleteTailoredResume removes a generated resume
func (c *Client) DeleteTailoredResume(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete_tailored_resume", method: http.MethodDelete, path: fmt.Sprintf("/resumes/tailored/%d/", id)}, nil)
}

// encodeMultipart buffers a multipart form. Files are capped at the CV size
// limit so the body can be replayed by the breaker without streaming.
func encodeMultipart(fields map[string]string, files map[string]*ports.CVUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if err := w.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(files)) {
		f := files[name]
		if f == nil || f.Content == nil {
			return nil, "", fmt.Errorf("file %q has no content", name)
		}
		part, err := w.CreateFormFile(name, path.Base(f.Filename))
		if err != nil {
			return nil, "", err
		}
		n, err := io.Copy(part, io.LimitReader(f.Content, utils.MaxCVSize+1))
		if err != nil {
			return nil, "", err
		}
		if n > utils.MaxCVSize {
			return nil, "", fmt.Errorf("file %q exceeds %d bytes", f.Filename, utils.MaxCVSize)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
