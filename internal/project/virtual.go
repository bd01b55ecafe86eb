package project

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

// ActivityLeadOrganisation returns the name of the lead implementer of the
// activity's project, "" when there is none.
func ActivityLeadOrganisation(tx *gorm.DB, a *models.Activity) (string, error) {
	if a.ProjectID == nil {
		return "", nil
	}

	var names []string
	err := tx.Model(&models.Organisation{}).
		Joins("JOIN project_organisations ON project_organisations.organisation_id = organisations.id AND project_organisations.deleted_at IS NULL").
		Where("project_organisations.project_id = ? AND project_organisations.role = ?", *a.ProjectID, types.LeadRole).
		Limit(1).
		Pluck("organisations.name", &names).Error
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

// LocationLevels names the administrative areas (L0, L1, ...) containing
// the location, including the location itself when it is one.
func LocationLevels(tx *gorm.DB, locationID *uint) (map[string]string, error) {
	levels := map[string]string{}
	if locationID == nil {
		return levels, nil
	}

	id := *locationID
	// the hierarchy is at most L0..L5 plus the specific place
	for depth := 0; depth < 8; depth++ {
		var location models.Location
		err := tx.Select("id", "name", "level", "parent_id").First(&location, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		if location.Level != "" {
			if _, seen := levels[location.Level]; !seen {
				levels[location.Level] = location.Name
			}
		}

		if location.ParentID == nil {
			break
		}
		id = *location.ParentID
	}

	return levels, nil
}

// TimeProject returns the name of the project of the entry's task, "" when
// the task is not linked to one.
func TimeProject(tx *gorm.DB, entry *models.Time) (string, error) {
	var names []string
	err := tx.Model(&models.Project{}).
		Joins("JOIN task_projects ON task_projects.project_id = projects.id AND task_projects.deleted_at IS NULL").
		Where("task_projects.task_id = ?", entry.TaskID).
		Limit(1).
		Pluck("projects.name", &names).Error
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

// TimeDay labels an entry of the last week with its day, e.g. "02 January";
// older or undated entries get None.
func TimeDay(entry *models.Time, now time.Time) string {
	if entry.Date.IsZero() {
		return None
	}
	if entry.Date.Before(now.Add(-7 * 24 * time.Hour)) {
		return None
	}
	return entry.Date.Format("02 January")
}
