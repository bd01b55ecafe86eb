package models

// User is an account holder. Users double as the persons who are assigned
// tasks and log time against them.
type User struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relationships
	AssignedTasks []Task `gorm:"foreignKey:PersonID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
	TimeEntries   []Time `gorm:"foreignKey:PersonID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
}
