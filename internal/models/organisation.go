package models

type Organisation struct {
	BaseModel

	Name string `gorm:"not null;uniqueIndex" json:"name"`
	// OwnedByOrganisation is the realm records linked to this organisation
	// inherit.
	OwnedByOrganisation *uint `json:"owned_by_organisation"`
}

// Location is a node of the geographic hierarchy. Level is empty for
// specific places and "L0".."L5" for administrative areas.
type Location struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Level    string `json:"level"`
	ParentID *uint  `gorm:"index" json:"parent_id"`
}
