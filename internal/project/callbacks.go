package project

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

// Lifecycle callbacks of the project resources. OnValidation runs before a
// record is written and may reject it with FormErrors; OnAccept runs after
// the write, inside the same transaction; Deduplicate matches an import
// item against existing records.

func ProjectOnValidation(p *models.Project) error {
	if p.Code == "" {
		p.Code = p.Name
	}
	return nil
}

// ProjectOnAccept makes the project owned by its organisation's realm.
func ProjectOnAccept(tx *gorm.DB, p *models.Project) error {
	if p.OrganisationID == nil {
		return nil
	}

	owner, found, err := organisationOwner(tx, *p.OrganisationID)
	if err != nil || !found {
		return err
	}

	p.OwnedByOrganisation = owner
	return tx.Model(&models.Project{}).Where("id = ?", p.ID).
		Update("owned_by_organisation", owner).Error
}

func ProjectDeduplicate(tx *gorm.DB, item *types.ImportItem) error {
	if item.ID != 0 || !item.Has("name") {
		return nil
	}

	name, _ := item.Data["name"].(string)
	return matchFirst(tx, item, &models.Project{}, "LOWER(name) = ?", strings.ToLower(name))
}

// OrganisationOnValidation allows one lead implementer per project.
func OrganisationOnValidation(tx *gorm.DB, po *models.ProjectOrganisation) error {
	if po.Role == nil || *po.Role != types.LeadRole || po.ProjectID == 0 {
		return nil
	}

	var count int64
	err := tx.Model(&models.ProjectOrganisation{}).
		Where("project_id = ? AND role = ? AND organisation_id <> ?", po.ProjectID, types.LeadRole, po.OrganisationID).
		Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return FormErrors{"role": ErrLeadRoleTaken}
	}
	return nil
}

func OrganisationDeduplicate(tx *gorm.DB, item *types.ImportItem) error {
	if item.ID != 0 || !item.Has("project_id") || !item.Has("organisation_id") {
		return nil
	}

	return matchFirst(tx, item, &models.ProjectOrganisation{},
		"project_id = ? AND organisation_id = ?", item.Data["project_id"], item.Data["organisation_id"])
}

// ActivityOnAccept names a specific (non-administrative) location after the
// activity that takes place there. Community activities are identified by
// their location, so the location keeps its own name.
func ActivityOnAccept(tx *gorm.DB, a *models.Activity, communityActivity bool) error {
	if communityActivity || a.Name == "" || a.LocationID == nil {
		return nil
	}

	var location models.Location
	err := tx.Select("id", "level").First(&location, *a.LocationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if location.Level != "" {
		return nil
	}

	return tx.Model(&models.Location{}).Where("id = ?", location.ID).Update("name", a.Name).Error
}

func ActivityDeduplicate(tx *gorm.DB, item *types.ImportItem, communityActivity bool) error {
	if item.ID != 0 || !item.Has("project_id") {
		return nil
	}

	if communityActivity {
		if !item.Has("location_id") {
			return nil
		}
		return matchFirst(tx, item, &models.Activity{},
			"project_id = ? AND location_id = ?", item.Data["project_id"], item.Data["location_id"])
	}

	if !item.Has("name") {
		return nil
	}
	return matchFirst(tx, item, &models.Activity{},
		"project_id = ? AND name = ?", item.Data["project_id"], item.Data["name"])
}

// BeneficiaryOnAccept files the beneficiaries under their activity's project.
func BeneficiaryOnAccept(tx *gorm.DB, b *models.Beneficiary) error {
	if b.ActivityID == nil {
		return nil
	}

	var activity models.Activity
	err := tx.Select("id", "project_id").First(&activity, *b.ActivityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	b.ProjectID = activity.ProjectID
	return tx.Model(&models.Beneficiary{}).Where("id = ?", b.ID).
		Update("project_id", activity.ProjectID).Error
}

func BeneficiaryDeduplicate(tx *gorm.DB, item *types.ImportItem) error {
	if item.ID != 0 || !item.Has("bnf_type") || !item.Has("activity_id") {
		return nil
	}

	return matchFirst(tx, item, &models.Beneficiary{},
		"type_id = ? AND activity_id = ?", item.Data["bnf_type"], item.Data["activity_id"])
}

func TaskOnValidation(t *models.Task) error {
	errs := FormErrors{}
	if t.Status == types.TaskStatusAssigned && t.PersonID == nil {
		errs["pe_id"] = ErrAssigneeRequired
	}
	return errs.orNil()
}

// TaskCreateOnAccept makes a new task owned by the realm of the
// organisation running its project.
func TaskCreateOnAccept(tx *gorm.DB, t *models.Task) error {
	var project models.Project
	err := tx.Model(&models.Project{}).
		Select("projects.id", "projects.organisation_id").
		Joins("JOIN task_projects ON task_projects.project_id = projects.id AND task_projects.deleted_at IS NULL").
		Where("task_projects.task_id = ?", t.ID).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if project.OrganisationID == nil {
		return nil
	}

	owner, found, err := organisationOwner(tx, *project.OrganisationID)
	if err != nil || !found {
		return err
	}

	t.OwnedByOrganisation = owner
	return tx.Model(&models.Task{}).Where("id = ?", t.ID).
		Update("owned_by_organisation", owner).Error
}

// TimeOnAccept totals the hours logged on the entry's task, then the hours
// of all tasks of the task's activity.
func TimeOnAccept(tx *gorm.DB, entry *models.Time) error {
	taskID := entry.TaskID
	if taskID == 0 {
		var saved models.Time
		if err := tx.Select("id", "task_id").First(&saved, entry.ID).Error; err != nil {
			return err
		}
		taskID = saved.TaskID
	}

	var hours float64
	err := tx.Model(&models.Time{}).
		Where("task_id = ?", taskID).
		Select("COALESCE(SUM(hours), 0)").
		Scan(&hours).Error
	if err != nil {
		return err
	}

	if err := tx.Model(&models.Task{}).Where("id = ?", taskID).Update("time_actual", hours).Error; err != nil {
		return err
	}

	var link models.TaskActivity
	err = tx.Where("task_id = ?", taskID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var activityHours float64
	err = tx.Model(&models.Task{}).
		Joins("JOIN task_activities ON task_activities.task_id = tasks.id AND task_activities.deleted_at IS NULL").
		Where("task_activities.activity_id = ?", link.ActivityID).
		Select("COALESCE(SUM(tasks.time_actual), 0)").
		Scan(&activityHours).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Activity{}).Where("id = ?", link.ActivityID).
		Update("time_actual", activityHours).Error
}

func organisationOwner(tx *gorm.DB, organisationID uint) (*uint, bool, error) {
	var org models.Organisation
	err := tx.Select("id", "owned_by_organisation").First(&org, organisationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return org.OwnedByOrganisation, true, nil
}

// matchFirst marks item as an update of the first record of model matching
// the condition.
func matchFirst(tx *gorm.DB, item *types.ImportItem, model interface{}, query string, args ...interface{}) error {
	var ids []uint
	err := tx.Model(model).Where(query, args...).Order("id").Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return err
	}

	if len(ids) > 0 {
		item.Match(ids[0])
	}
	return nil
}
