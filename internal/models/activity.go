package models

type ActivityType struct {
	BaseModel

	Name string `gorm:"size:128;not null;uniqueIndex" json:"name"`
}

type Activity struct {
	BaseModel

	ProjectID     *uint    `gorm:"index" json:"project_id"`
	Name          string   `json:"name"`
	LocationID    *uint    `gorm:"index" json:"location_id"`
	TimeEstimated *float64 `json:"time_estimated"`
	// TimeActual is the total of the hours logged against the activity's tasks.
	TimeActual float64 `json:"time_actual"`
	Comments   string  `json:"comments"`

	// Relationships
	Project       *Project       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Location      *Location      `gorm:"foreignKey:LocationID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"-"`
	ActivityTypes []ActivityType `gorm:"many2many:project_activity_types;constraint:OnDelete:RESTRICT" json:"activity_types,omitempty"`
	Beneficiaries []Beneficiary  `gorm:"foreignKey:ActivityID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

type BeneficiaryType struct {
	BaseModel

	Name string `gorm:"uniqueIndex" json:"name"`
}

type Beneficiary struct {
	BaseModel

	// ProjectID is filled in from the activity on accept.
	ProjectID  *uint  `gorm:"index" json:"project_id"`
	ActivityID *uint  `gorm:"index" json:"activity_id"`
	TypeID     *uint  `gorm:"index" json:"bnf_type"`
	Number     *int   `json:"number"`
	Comments   string `json:"comments"`

	Type *BeneficiaryType `gorm:"foreignKey:TypeID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT" json:"-"`
}
