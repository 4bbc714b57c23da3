package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/honeypot/internal/models"
)

// Source supplies the captured attempts, usually an AttemptRepository
type Source interface {
	LoadAll(ctx context.Context) ([]*models.LoginAttempt, error)
	JSONPath() string
}

// Dataset is the loaded record set. Notice explains why it is empty when the
// log could not be read.
type Dataset struct {
	Records []*models.LoginAttempt
	Notice  string
}

// LoadAll reads every record from src. A missing or unreadable log is not a
// failure: it yields an empty dataset with a Notice. Only context errors are returned.
func LoadAll(ctx context.Context, src Source) (*Dataset, error) {
	records, err := src.LoadAll(ctx)
	switch {
	case err == nil:
		return &Dataset{Records: records}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case errors.Is(err, models.ErrLogNotFound):
		return &Dataset{Notice: fmt.Sprintf("No log file found at %s", src.JSONPath())}, nil
	default:
		return &Dataset{Notice: fmt.Sprintf("Error reading logs: %v", err)}, nil
	}
}
