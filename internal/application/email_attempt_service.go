package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/persistence"
)

// DefaultMaxAttempts is the number of outreach emails a person may receive.
const DefaultMaxAttempts = 3

// EmailAttemptRepository captures the persistence operations needed by the service.
type EmailAttemptRepository interface {
	CreateEmailAttempt(ctx context.Context, attempt EmailAttempt) (EmailAttempt, error)
	GetEmailAttempt(ctx context.Context, id string) (EmailAttempt, error)
	ListEmailAttempts(ctx context.Context, filter EmailAttemptFilter) ([]EmailAttempt, error)
	RecordEngagement(ctx context.Context, id string, kind EngagementKind) (EmailAttempt, error)
	DeleteEmailAttempt(ctx context.Context, id string) error
}

// PersonReader resolves a single person.
type PersonReader interface {
	GetPerson(ctx context.Context, id string) (Person, error)
}

// EmailAttemptService records outreach emails and the engagement they receive.
type EmailAttemptService struct {
	attempts    EmailAttemptRepository
	people      PersonReader
	idGenerator func() string
	now         func() time.Time
	maxAttempts int
	logger      *slog.Logger
}

// NewEmailAttemptService constructs an email attempt service with the provided dependencies.
func NewEmailAttemptService(attempts EmailAttemptRepository, people PersonReader, idGenerator func() string, now func() time.Time) *EmailAttemptService {
	return NewEmailAttemptServiceWithLogger(attempts, people, idGenerator, now, DefaultMaxAttempts, nil)
}

// NewEmailAttemptServiceWithLogger constructs an email attempt service with an
// attempt cap and a specified logger. A non-positive cap uses DefaultMaxAttempts.
func NewEmailAttemptServiceWithLogger(attempts EmailAttemptRepository, people PersonReader, idGenerator func() string, now func() time.Time, maxAttempts int, logger *slog.Logger) *EmailAttemptService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &EmailAttemptService{
		attempts:    attempts,
		people:      people,
		idGenerator: idGenerator,
		now:         now,
		maxAttempts: maxAttempts,
		logger:      defaultLogger(logger),
	}
}

func (s *EmailAttemptService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmailAttemptService", operation, attrs...)
}

// CreateEmailAttempt validates input and appends the next attempt for a person.
func (s *EmailAttemptService) CreateEmailAttempt(ctx context.Context, input EmailAttemptInput) (attempt EmailAttempt, err error) {
	if s == nil {
		err = fmt.Errorf("EmailAttemptService is nil")
		return
	}
	if s.attempts == nil {
		err = fmt.Errorf("email attempt repository not configured")
		return
	}

	input.PersonID = strings.TrimSpace(input.PersonID)
	input.CompanyID = strings.TrimSpace(input.CompanyID)
	input.SentDate = strings.TrimSpace(input.SentDate)
	input.Subject = strings.TrimSpace(input.Subject)

	logger := s.loggerWith(ctx, "CreateEmailAttempt",
		"person_id", input.PersonID,
		"attempt_number", input.AttemptNumber,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create email attempt", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("email_attempt_id", attempt.ID, "company_id", attempt.CompanyID).InfoContext(ctx, "email attempt recorded")
	}()

	vErr := validateInput(input)
	if input.AttemptNumber > s.maxAttempts {
		vErr.add("attemptNumber", fmt.Sprintf("attemptNumber must be at most %d", s.maxAttempts))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	created := s.now()
	attempt, err = createWithUniqueID(s.idGenerator, func(id string) (EmailAttempt, error) {
		return s.attempts.CreateEmailAttempt(ctx, EmailAttempt{
			ID:              id,
			PersonID:        input.PersonID,
			CompanyID:       input.CompanyID,
			AttemptNumber:   input.AttemptNumber,
			SentDate:        input.SentDate,
			Subject:         input.Subject,
			OpenCount:       input.OpenCount,
			ClickCount:      input.ClickCount,
			ResumeOpenCount: input.ResumeOpenCount,
			Responded:       input.Responded,
			CreatedAt:       created,
		})
	})
	err = mapRepoError(err)
	return
}

// GetEmailAttempt returns a single email attempt.
func (s *EmailAttemptService) GetEmailAttempt(ctx context.Context, id string) (EmailAttempt, error) {
	if s == nil {
		return EmailAttempt{}, fmt.Errorf("EmailAttemptService is nil")
	}
	if s.attempts == nil {
		return EmailAttempt{}, fmt.Errorf("email attempt repository not configured")
	}

	attempt, err := s.attempts.GetEmailAttempt(ctx, id)
	if err != nil {
		return EmailAttempt{}, mapRepoError(err)
	}
	return attempt, nil
}

// ListEmailAttempts returns attempts in creation order. Filtering by person requires
// the person to exist.
func (s *EmailAttemptService) ListEmailAttempts(ctx context.Context, filter EmailAttemptFilter) (attempts []EmailAttempt, err error) {
	if s == nil {
		err = fmt.Errorf("EmailAttemptService is nil")
		return
	}
	if s.attempts == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListEmailAttempts",
		"company_id", filter.CompanyID,
		"person_id", filter.PersonID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list email attempts", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(attempts)).InfoContext(ctx, "email attempts listed")
	}()

	if filter.PersonID != "" && s.people != nil {
		if _, err = s.people.GetPerson(ctx, filter.PersonID); err != nil {
			err = mapRepoError(err)
			return
		}
	}

	attempts, err = s.attempts.ListEmailAttempts(ctx, filter)
	err = mapRepoError(err)
	return
}

// RecordEngagement registers an open, click, resume open, or response on an attempt.
func (s *EmailAttemptService) RecordEngagement(ctx context.Context, id string, kind EngagementKind) (attempt EmailAttempt, err error) {
	if s == nil {
		err = fmt.Errorf("EmailAttemptService is nil")
		return
	}
	if s.attempts == nil {
		err = fmt.Errorf("email attempt repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RecordEngagement",
		"email_attempt_id", id,
		"kind", string(kind),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record engagement", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "engagement recorded")
	}()

	if !kind.Valid() {
		err = NewValidationError("kind", "kind must be one of: open, click, resume_open, response")
		return
	}

	attempt, err = s.attempts.RecordEngagement(ctx, id, kind)
	err = mapRepoError(err)
	return
}

// DeleteEmailAttempt removes the latest attempt of a person.
func (s *EmailAttemptService) DeleteEmailAttempt(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("EmailAttemptService is nil")
	}
	if s.attempts == nil {
		return fmt.Errorf("email attempt repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEmailAttempt", "email_attempt_id", id)

	if err := s.attempts.DeleteEmailAttempt(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrOutOfSequence) {
			err = NewValidationError("id", "only the latest attempt of a person can be deleted")
		} else {
			err = mapRepoError(err)
		}
		logger.ErrorContext(ctx, "failed to delete email attempt", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "email attempt deleted")
	return nil
}
