package models

import (
	"time"

	"gorm.io/datatypes"
)

type Theme struct {
	BaseModel

	Name     string `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Comments string `json:"comments"`
}

type Hazard struct {
	BaseModel

	Name     string `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Comments string `json:"comments"`
}

type Project struct {
	BaseModel

	OrganisationID *uint          `gorm:"index" json:"organisation_id"`
	Name           string         `gorm:"not null;uniqueIndex" json:"name"`
	Code           string         `json:"code"`
	Description    string         `gorm:"type:text" json:"description"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	Duration       string         `json:"duration"`
	Currency       string         `gorm:"size:3" json:"currency"`
	Budget         *float64       `json:"budget"`
	HFA            datatypes.JSON `json:"hfa"` // list of HFA priority numbers
	Objectives     string         `gorm:"type:text" json:"objectives"`

	OwnedByOrganisation *uint `json:"owned_by_organisation"`

	// Relationships
	Organisation  *Organisation         `gorm:"foreignKey:OrganisationID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
	Hazards       []Hazard              `gorm:"many2many:project_project_hazards;constraint:OnDelete:RESTRICT" json:"hazards,omitempty"`
	Themes        []Theme               `gorm:"many2many:project_project_themes;constraint:OnDelete:RESTRICT" json:"themes,omitempty"`
	Organisations []ProjectOrganisation `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Activities    []Activity            `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Milestones    []Milestone           `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Beneficiaries []Beneficiary         `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// ProjectOrganisation links an organisation to a project in a role.
type ProjectOrganisation struct {
	BaseModel

	ProjectID      uint     `gorm:"not null;index" json:"project_id"`
	OrganisationID uint     `gorm:"not null;index" json:"organisation_id"`
	Role           *int     `json:"role"`
	Amount         *float64 `json:"amount"`
	Currency       string   `gorm:"size:3" json:"currency"`

	// Relationships
	Project      Project      `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Organisation Organisation `gorm:"foreignKey:OrganisationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

type Milestone struct {
	BaseModel

	ProjectID uint       `gorm:"not null;index" json:"project_id"`
	Name      string     `gorm:"not null" json:"name"`
	Date      *time.Time `json:"date"`
	Comments  string     `json:"comments"`
}
