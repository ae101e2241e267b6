package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Details mirrors the backend record behind a node. Each kind has exactly one
// concrete details type.
type Details interface {
	Kind() Kind
	isDetails()
}

// BaseDetails holds metadata about the uploaded base CV
type BaseDetails struct {
	CVID       int64     `json:"cv_id,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	Text       string    `json:"text,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

// CompanyDetails mirrors a backend company record
type CompanyDetails struct {
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
}

// RoleDetails mirrors a backend job record
type RoleDetails struct {
	Description  string `json:"description,omitempty"`
	Requirements string `json:"requirements,omitempty"`
	Location     string `json:"location,omitempty"`
	SalaryRange  string `json:"salary_range,omitempty"`
	JobType      string `json:"job_type,omitempty"`
}

// TailoredDetails carries the generated resume for one version
type TailoredDetails struct {
	Content   string    `json:"content,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (BaseDetails) Kind() Kind     { return KindBase }
func (CompanyDetails) Kind() Kind  { return KindCompany }
func (RoleDetails) Kind() Kind     { return KindRole }
func (TailoredDetails) Kind() Kind { return KindTailored }

func (BaseDetails) isDetails()     {}
func (CompanyDetails) isDetails()  {}
func (RoleDetails) isDetails()     {}
func (TailoredDetails) isDetails() {}

// EmptyDetails returns the zero details value for a kind
func EmptyDetails(k Kind) Details {
	switch k {
	case KindBase:
		return BaseDetails{}
	case KindCompany:
		return CompanyDetails{}
	case KindRole:
		return RoleDetails{}
	case KindTailored:
		return TailoredDetails{}
	default:
		return nil
	}
}

func decodeDetails(k Kind, raw json.RawMessage) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return EmptyDetails(k), nil
	}
	var (
		d   Details
		err error
	)
	switch k {
	case KindBase:
		var v BaseDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case KindCompany:
		var v CompanyDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case KindRole:
		var v RoleDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case KindTailored:
		var v TailoredDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("no details type for kind %q", k)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s details: %w", k, err)
	}
	return d, nil
}
