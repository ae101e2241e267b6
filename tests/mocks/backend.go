package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"careerflow/application/ports"
)

// MockBackend is a testify mock of ports.Backend
type MockBackend struct {
	mock.Mock
}

var _ ports.Backend = (*MockBackend)(nil)

func (m *MockBackend) ListCompanies(ctx context.Context) ([]ports.Company, error) {
	args := m.Called(ctx)
	companies, _ := args.Get(0).([]ports.Company)
	return companies, args.Error(1)
}

func (m *MockBackend) CreateCompany(ctx context.Context, fields ports.CompanyFields) (ports.Company, error) {
	args := m.Called(ctx, fields)
	company, _ := args.Get(0).(ports.Company)
	return company, args.Error(1)
}

func (m *MockBackend) UpdateCompany(ctx context.Context, id int64, fields ports.CompanyFields) (ports.Company, error) {
	args := m.Called(ctx, id, fields)
	company, _ := args.Get(0).(ports.Company)
	return company, args.Error(1)
}

func (m *MockBackend) DeleteCompany(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) ListJobs(ctx context.Context) ([]ports.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]ports.Job)
	return jobs, args.Error(1)
}

func (m *MockBackend) CreateJob(ctx context.Context, fields ports.JobFields) (ports.Job, error) {
	args := m.Called(ctx, fields)
	job, _ := args.Get(0).(ports.Job)
	return job, args.Error(1)
}

func (m *MockBackend) UpdateJob(ctx context.Context, id int64, fields ports.JobFields) (ports.Job, error) {
	args := m.Called(ctx, id, fields)
	job, _ := args.Get(0).(ports.Job)
	return job, args.Error(1)
}

func (m *MockBackend) DeleteJob(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) GetLatestCV(ctx context.Context) (*ports.CVMeta, error) {
	args := m.Called(ctx)
	meta, _ := args.Get(0).(*ports.CVMeta)
	return meta, args.Error(1)
}

func (m *MockBackend) UploadCV(ctx context.Context, upload ports.CVUpload) (ports.CVMeta, error) {
	args := m.Called(ctx, upload)
	meta, _ := args.Get(0).(ports.CVMeta)
	return meta, args.Error(1)
}

func (m *MockBackend) ExtractCVText(ctx context.Context, id int64) (ports.CVText, error) {
	args := m.Called(ctx, id)
	text, _ := args.Get(0).(ports.CVText)
	return text, args.Error(1)
}

func (m *MockBackend) UpdateCVText(ctx context.Context, id int64, text string) (ports.CVText, error) {
	args := m.Called(ctx, id, text)
	out, _ := args.Get(0).(ports.CVText)
	return out, args.Error(1)
}

func (m *MockBackend) ListTailoredResumes(ctx context.Context, jobID int64) ([]ports.TailoredResume, error) {
	args := m.Called(ctx, jobID)
	resumes, _ := args.Get(0).([]ports.TailoredResume)
	return resumes, args.Error(1)
}

func (m *MockBackend) TailorResume(ctx context.Context, req ports.TailorRequest) (ports.TailorResult, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(ports.TailorResult)
	return out, args.Error(1)
}

func (m *MockBackend) DeleteTailoredResume(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
