// Package apply implements the founder-side application form: local
// validation of the descriptive field set and submission to the backend. A
// form that fails validation never reaches the network.
package apply

import (
	"context"
	"sync"

	"combinator-portal/internal/api"
	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
)

// Form carries every field of the application questionnaire. JSON tags match
// the backend's create payload.
type Form struct {
	CompanyName   string  `json:"companyName"`
	Industry      string  `json:"industry"`
	Website       string  `json:"website,omitempty"`
	FoundedDate   string  `json:"foundedDate,omitempty"`
	Location      string  `json:"location"`
	TeamSize      int     `json:"teamSize"`
	Pitch         string  `json:"pitch"`
	Problem       string  `json:"problem"`
	Solution      string  `json:"solution"`
	MarketSize    string  `json:"marketSize,omitempty"`
	Competition   string  `json:"competition,omitempty"`
	BusinessModel string  `json:"businessModel,omitempty"`
	FundingStage  string  `json:"fundingStage"`
	FundingNeeded float64 `json:"fundingNeeded"`
	Logo          string  `json:"logo,omitempty"`
	Banner        string  `json:"banner,omitempty"`
}

// Validate checks the form locally and reports every failing field at once,
// so a founder can fix the whole form in one pass.
func (f *Form) Validate() error {
	var fields []errors.FieldError

	if f.CompanyName == "" {
		fields = append(fields, errors.FieldError{Field: "companyName", Message: "company name is required"})
	}
	if !models.ValidIndustry(f.Industry) {
		fields = append(fields, errors.FieldError{Field: "industry", Message: "unknown industry"})
	}
	if f.Location == "" {
		fields = append(fields, errors.FieldError{Field: "location", Message: "location is required"})
	}
	if f.TeamSize < 1 {
		fields = append(fields, errors.FieldError{Field: "teamSize", Message: "team size must be at least 1"})
	}
	if f.Pitch == "" {
		fields = append(fields, errors.FieldError{Field: "pitch", Message: "pitch is required"})
	}
	if f.Problem == "" {
		fields = append(fields, errors.FieldError{Field: "problem", Message: "problem statement is required"})
	}
	if f.Solution == "" {
		fields = append(fields, errors.FieldError{Field: "solution", Message: "solution description is required"})
	}
	if !models.ValidFundingStage(f.FundingStage) {
		fields = append(fields, errors.FieldError{Field: "fundingStage", Message: "unknown funding stage"})
	}
	if f.FundingNeeded < 0 {
		fields = append(fields, errors.FieldError{Field: "fundingNeeded", Message: "funding needed cannot be negative"})
	}

	if len(fields) > 0 {
		return errors.NewValidationError("application form is invalid", fields...)
	}
	return nil
}

// Submitter posts validated forms. It refuses to double-submit a form whose
// request is still in flight.
type Submitter struct {
	api *api.Client
	log logger.Logger

	mu       sync.Mutex
	inFlight bool
}

func NewSubmitter(client *api.Client, log logger.Logger) *Submitter {
	return &Submitter{api: client, log: log}
}

// Submit validates the form and posts it. The created application comes back
// with the initial submitted status assigned by the backend.
func (s *Submitter) Submit(ctx context.Context, form *Form) (*models.Application, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, errors.NewValidationError("submission already in progress")
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	app, err := s.api.CreateApplication(ctx, form)
	if err != nil {
		return nil, err
	}
	s.log.Info("application submitted", map[string]interface{}{
		"application_id": app.ID,
		"company":        app.CompanyName,
	})
	return app, nil
}
