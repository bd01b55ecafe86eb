package models

import "time"

type Task struct {
	BaseModel

	Template      bool       `gorm:"default:false" json:"template"`
	Status        int        `gorm:"not null;default:2" json:"status"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Source        string     `json:"source"`
	Description   string     `gorm:"type:text" json:"description"`
	Priority      int        `gorm:"not null;default:3" json:"priority"`
	PersonID      *uint      `gorm:"index" json:"pe_id"`
	DateDue       *time.Time `json:"date_due"`
	TimeEstimated *float64   `json:"time_estimated"`
	// TimeActual is the total of the hours logged against the task.
	TimeActual float64 `json:"time_actual"`

	OwnedByOrganisation *uint `json:"owned_by_organisation"`

	// Relationships
	Comments    []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	TimeEntries []Time    `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// TaskProject links a task to a project.
type TaskProject struct {
	BaseModel

	TaskID    uint `gorm:"not null;index" json:"task_id"`
	ProjectID uint `gorm:"not null;index" json:"project_id"`

	Task    Task    `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// TaskActivity links a task to an activity.
type TaskActivity struct {
	BaseModel

	TaskID     uint `gorm:"not null;index" json:"task_id"`
	ActivityID uint `gorm:"not null;index" json:"activity_id"`

	Task     Task     `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Activity Activity `gorm:"foreignKey:ActivityID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// Comment is a threaded discussion entry on a task.
type Comment struct {
	BaseModel

	ParentID  *uint  `gorm:"index" json:"parent"`
	TaskID    uint   `gorm:"not null;index" json:"task_id"`
	Body      string `gorm:"type:text;not null" json:"body"`
	CreatedBy *uint  `json:"created_by"`
}

// Time is an entry of hours spent on a task.
type Time struct {
	BaseModel

	TaskID   uint      `gorm:"not null;index" json:"task_id"`
	PersonID *uint     `gorm:"index" json:"person_id"`
	Date     time.Time `gorm:"not null" json:"date"`
	Hours    float64   `json:"hours"`
	Comments string    `json:"comments"`
}
