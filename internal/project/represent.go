package project

import (
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

const (
	None    = "-"
	Unknown = "Unknown"
)

func ProjectRepresent(tx *gorm.DB, id *uint) string {
	return nameOf(tx, &models.Project{}, id)
}

func MilestoneRepresent(tx *gorm.DB, id *uint) string {
	return nameOf(tx, &models.Milestone{}, id)
}

// BeneficiaryTypeRepresent names a beneficiary type, Unknown when the id
// does not resolve.
func BeneficiaryTypeRepresent(tx *gorm.DB, id *uint) string {
	if id == nil {
		return Unknown
	}
	if name := nameOf(tx, &models.BeneficiaryType{}, id); name != None {
		return name
	}
	return Unknown
}

func OrganisationRoleRepresent(role *int) string {
	return optionRepresent(types.OrganisationRoles, role)
}

func TaskStatusRepresent(status *int) string {
	return optionRepresent(types.TaskStatuses, status)
}

func PriorityRepresent(priority *int) string {
	return optionRepresent(types.TaskPriorities, priority)
}

// HFARepresent lists the HFA priorities stored on a project, each unknown
// number shown as None.
func HFARepresent(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return None
	}

	var opts []int
	if err := json.Unmarshal(raw, &opts); err != nil {
		var single int
		if err := json.Unmarshal(raw, &single); err != nil {
			return None
		}
		opts = []int{single}
	}
	if len(opts) == 0 {
		return None
	}

	vals := make([]string, 0, len(opts))
	for _, opt := range opts {
		if text, ok := types.HFAPriorities[opt]; ok {
			vals = append(vals, text)
		} else {
			vals = append(vals, None)
		}
	}
	return strings.Join(vals, ", ")
}

// MultiRefRepresent names each referenced record of model in the given
// order, Unknown for ids that do not resolve.
func MultiRefRepresent(tx *gorm.DB, model interface{}, ids []uint) string {
	if len(ids) == 0 {
		return ""
	}

	var rows []struct {
		ID   uint
		Name string
	}
	if err := tx.Model(model).Select("id", "name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return Unknown
	}

	names := make(map[uint]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}

	vals := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			vals = append(vals, name)
		} else {
			vals = append(vals, Unknown)
		}
	}
	return strings.Join(vals, ", ")
}

func optionRepresent(opts map[int]string, value *int) string {
	if value == nil {
		return None
	}
	if text, ok := opts[*value]; ok {
		return text
	}
	return Unknown
}

func nameOf(tx *gorm.DB, model interface{}, id *uint) string {
	if id == nil || *id == 0 {
		return None
	}

	var names []string
	if err := tx.Model(model).Where("id = ?", *id).Limit(1).Pluck("name", &names).Error; err != nil || len(names) == 0 {
		return None
	}
	return names[0]
}
