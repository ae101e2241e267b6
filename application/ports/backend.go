package ports

import (
	"context"
	"io"
	"time"
)

// Backend is the REST collaborator owning companies, jobs, CVs and tailored
// resumes. This is a port in hexagonal architecture; infrastructure/backend
// provides the HTTP implementation.
type Backend interface {
	// Companies
	ListCompanies(ctx context.Context) ([]Company, error)
	CreateCompany(ctx context.Context, fields CompanyFields) (Company, error)
	UpdateCompany(ctx context.Context, id int64, fields CompanyFields) (Company, error)
	DeleteCompany(ctx context.Context, id int64) error

	// Jobs
	ListJobs(ctx context.Context) ([]Job, error)
	CreateJob(ctx context.Context, fields JobFields) (Job, error)
	UpdateJob(ctx context.Context, id int64, fields JobFields) (Job, error)
	DeleteJob(ctx context.Context, id int64) error

	// Base CV. GetLatestCV returns nil when nothing was uploaded yet.
	GetLatestCV(ctx context.Context) (*CVMeta, error)
	UploadCV(ctx context.Context, upload CVUpload) (CVMeta, error)
	ExtractCVText(ctx context.Context, id int64) (CVText, error)
	UpdateCVText(ctx context.Context, id int64, text string) (CVText, error)

	// Tailored resumes. A zero jobID lists all of them.
	ListTailoredResumes(ctx context.Context, jobID int64) ([]TailoredResume, error)
	TailorResume(ctx context.Context, req TailorRequest) (TailorResult, error)
	DeleteTailoredResume(ctx context.Context, id int64) error
}

// Job types accepted by the backend
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
)

// Company is a backend company record
type Company struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	Industry    string    `json:"industry"`
	CreatedAt   time.Time `json:"created_at"`
}

// CompanyFields is the writable part of a company
type CompanyFields struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Website     string `json:"website" validate:"omitempty,url"`
	Industry    string `json:"industry" validate:"max=100"`
}

// Job is a backend job record
type Job struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CompanyID    int64     `json:"company"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Location     string    `json:"location"`
	SalaryRange  string    `json:"salary_range"`
	JobType      string    `json:"job_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// JobFields is the writable part of a job
type JobFields struct {
	Title        string `json:"title" validate:"required,max=255"`
	CompanyID    int64  `json:"company" validate:"required,gt=0"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Location     string `json:"location" validate:"max=255"`
	SalaryRange  string `json:"salary_range" validate:"max=100"`
	JobType      string `json:"job_type" validate:"required,oneof=full-time part-time contract internship"`
}

// CVMeta describes an uploaded base CV
type CVMeta struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	File       string    `json:"file"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CVText is the extracted or edited text of a CV
type CVText struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// CVUpload is a CV file on its way to the backend
type CVUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// TailoredResume is a stored generated resume
type TailoredResume struct {
	ID              int64     `json:"id"`
	JobID           int64     `json:"job"`
	Company         string    `json:"company"`
	TailoredContent string    `json:"tailored_content"`
	FilePath        string    `json:"file_path"`
	Feedback        string    `json:"feedback"`
	CreatedAt       time.Time `json:"created_at"`
}

// TailorRequest asks the backend to generate a resume for one job. Either a
// CV file or CV text must be set.
type TailorRequest struct {
	JobID          int64     `validate:"required,gt=0"`
	CVFile         *CVUpload `validate:"required_without=CVText"`
	CVText         string    `validate:"required_without=CVFile"`
	Company        string    `validate:"required"`
	JobDescription string    `validate:"required"`
	Feedback       string
}

// TailorResult is the generated resume
type TailorResult struct {
	ID              int64  `json:"id"`
	TailoredContent string `json:"tailored_content"`
	FilePath        string `json:"file_path"`
	Company         string `json:"company"`
}
