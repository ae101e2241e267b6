package utils

import (
	"testing"

	pkgerrors "careerflow/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `validate:"notblank,max=10"`
	JobType string `validate:"oneof=full-time part-time"`
	File    string `validate:"cvfile"`
	Size    int64  `validate:"lte=10485760"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(sample{Name: "Acme", JobType: "full-time", File: "cv.PDF", Size: 100}))

	err := ValidateStruct(sample{Name: "   ", JobType: "gig", File: "cv.exe", Size: MaxCVSize + 1})
	require.Error(t, err)

	var verrs *pkgerrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 4)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "jobtype must be one of: full-time part-time")
	assert.Contains(t, err.Error(), ".docx")
}

func TestIsAllowedCVFile(t *testing.T) {
	for _, ok := range []string{"cv.pdf", "CV.DOCX", "notes.txt", "resume.doc"} {
		assert.True(t, IsAllowedCVFile(ok), ok)
	}
	for _, bad := range []string{"cv", "cv.png", "cv.pdf.exe"} {
		assert.False(t, IsAllowedCVFile(bad), bad)
	}
}
