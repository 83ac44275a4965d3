package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// DecodeJobCursor parses the opaque cursor returned by job search.
func DecodeJobCursor(cursorStr string) (*domain.JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, domain.NewValidationError("cursor", "is not valid base64")
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, domain.NewValidationError("cursor", "has an invalid format")
	}

	var createdAt, jobID int64
	if _, err := fmt.Sscanf(parts[0], "%d", &createdAt); err != nil {
		return nil, domain.NewValidationError("cursor", "has an invalid timestamp")
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &jobID); err != nil || jobID <= 0 {
		return nil, domain.NewValidationError("cursor", "has an invalid job id")
	}

	return &domain.JobCursor{
		CreatedAt: time.Unix(0, createdAt).UTC(),
		JobID:     jobID,
	}, nil
}

// EncodeJobCursor renders the cursor that resumes after job.
func EncodeJobCursor(job *domain.Job) string {
	cs := fmt.Sprintf("%d|%d", job.CreatedAt.UnixNano(), job.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
