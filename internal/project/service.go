package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/config"
	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

const maxBeneficiaries = 99999999

var (
	errNameRequired  = errors.New("name is required")
	errNameTooLong   = errors.New("name must be at most 100 characters")
	errNumberRange   = fmt.Errorf("number must be between 0 and %d", maxBeneficiaries)
	errHoursNegative = errors.New("hours must not be negative")
	errTaskRequired  = errors.New("task is required")
	errPartyRequired = errors.New("project and organisation are required")
	errUnknownRole   = errors.New("unknown organisation role")
)

// Service writes project resources with their lifecycle callbacks, each
// write in its own transaction.
type Service struct {
	db       *gorm.DB
	settings config.Project
	logger   *zap.Logger
}

func NewService(db *gorm.DB, settings config.Project, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, settings: settings, logger: logger}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) CommunityActivity() bool { return s.settings.CommunityActivity }

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Service) SaveProject(ctx context.Context, p *models.Project) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return SaveProject(tx, p) })
}

func (s *Service) SaveProjectOrganisation(ctx context.Context, po *models.ProjectOrganisation) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return SaveProjectOrganisation(tx, po) })
}

func (s *Service) SaveActivity(ctx context.Context, a *models.Activity) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return SaveActivity(tx, a, s.settings.CommunityActivity) })
}

func (s *Service) SaveBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return SaveBeneficiary(tx, b) })
}

func (s *Service) SaveMilestone(ctx context.Context, m *models.Milestone) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return SaveMilestone(tx, m) })
}

// CreateTask creates t and links it to the project and activity when given.
func (s *Service) CreateTask(ctx context.Context, t *models.Task, projectID, activityID *uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return CreateTask(tx, t, projectID, activityID) })
}

func (s *Service) UpdateTask(ctx context.Context, t *models.Task) error {
	return s.tx(ctx, func(tx *gorm.DB) error { return UpdateTask(tx, t) })
}

func (s *Service) LogTime(ctx context.Context, entry *models.Time) error {
	err := s.tx(ctx, func(tx *gorm.DB) error { return LogTime(tx, entry) })
	if err == nil {
		s.logger.Debug("time logged", zap.Uint("task_id", entry.TaskID), zap.Float64("hours", entry.Hours))
	}
	return err
}

// DeleteTime removes an entry and re-totals its task and activity.
func (s *Service) DeleteTime(ctx context.Context, id uint) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		var entry models.Time
		if err := tx.First(&entry, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return TimeOnAccept(tx, &entry)
	})
}

func save(tx *gorm.DB, record interface{}, id uint) error {
	if id == 0 {
		return tx.Create(record).Error
	}
	return tx.Save(record).Error
}

func SaveProject(tx *gorm.DB, p *models.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return FormErrors{"name": errNameRequired}
	}
	if err := ProjectOnValidation(p); err != nil {
		return err
	}
	if err := save(tx, p, p.ID); err != nil {
		return err
	}
	return ProjectOnAccept(tx, p)
}

func SaveProjectOrganisation(tx *gorm.DB, po *models.ProjectOrganisation) error {
	if po.ProjectID == 0 || po.OrganisationID == 0 {
		return FormErrors{"organisation_id": errPartyRequired}
	}
	if po.Role != nil && OrganisationRoleRepresent(po.Role) == Unknown {
		return FormErrors{"role": errUnknownRole}
	}
	if err := OrganisationOnValidation(tx, po); err != nil {
		return err
	}
	return save(tx, po, po.ID)
}

func SaveActivity(tx *gorm.DB, a *models.Activity, communityActivity bool) error {
	if err := save(tx, a, a.ID); err != nil {
		return err
	}
	return ActivityOnAccept(tx, a, communityActivity)
}

func SaveBeneficiary(tx *gorm.DB, b *models.Beneficiary) error {
	if b.Number != nil && (*b.Number < 0 || *b.Number > maxBeneficiaries) {
		return FormErrors{"number": errNumberRange}
	}
	if err := save(tx, b, b.ID); err != nil {
		return err
	}
	return BeneficiaryOnAccept(tx, b)
}

func SaveMilestone(tx *gorm.DB, m *models.Milestone) error {
	if strings.TrimSpace(m.Name) == "" {
		return FormErrors{"name": errNameRequired}
	}
	return save(tx, m, m.ID)
}

func validateTask(t *models.Task) error {
	errs := FormErrors{}
	switch {
	case strings.TrimSpace(t.Name) == "":
		errs["name"] = errNameRequired
	case len([]rune(t.Name)) > 100:
		errs["name"] = errNameTooLong
	}

	var callbackErrs FormErrors
	if err := TaskOnValidation(t); errors.As(err, &callbackErrs) {
		for field, e := range callbackErrs {
			errs[field] = e
		}
	}
	return errs.orNil()
}

func CreateTask(tx *gorm.DB, t *models.Task, projectID, activityID *uint) error {
	if t.Status == 0 {
		t.Status = types.TaskStatusNew
	}
	if t.Priority == 0 {
		t.Priority = types.PriorityNormal
	}
	if err := validateTask(t); err != nil {
		return err
	}
	if err := tx.Create(t).Error; err != nil {
		return err
	}

	if projectID != nil {
		if err := tx.Create(&models.TaskProject{TaskID: t.ID, ProjectID: *projectID}).Error; err != nil {
			return err
		}
	}
	if activityID != nil {
		if err := tx.Create(&models.TaskActivity{TaskID: t.ID, ActivityID: *activityID}).Error; err != nil {
			return err
		}
	}

	return TaskCreateOnAccept(tx, t)
}

func UpdateTask(tx *gorm.DB, t *models.Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	return tx.Save(t).Error
}

func LogTime(tx *gorm.DB, entry *models.Time) error {
	if entry.TaskID == 0 {
		return FormErrors{"task_id": errTaskRequired}
	}
	if entry.Hours < 0 {
		return FormErrors{"hours": errHoursNegative}
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	if err := save(tx, entry, entry.ID); err != nil {
		return err
	}
	return TimeOnAccept(tx, entry)
}
