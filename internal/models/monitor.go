package models

import (
	"time"

	"gorm.io/datatypes"
)

// Deployment is an installed copy of the application being monitored.
type Deployment struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`

	// Relationships
	Instances []Instance `gorm:"foreignKey:DeploymentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"instances,omitempty"`
	Servers   []Server   `gorm:"foreignKey:DeploymentID;constraint:OnUpdate:Cascade,OnDelete:SET NULL" json:"servers,omitempty"`
}

// Instance is one published site of a deployment.
type Instance struct {
	BaseModel

	DeploymentID uint   `gorm:"not null;index" json:"deployment_id"`
	Type         int    `gorm:"not null" json:"type"` // 1 = production, 2 = setup, 3 = test, 4 = demo
	URL          string `json:"url"`
}

// Server is a host a deployment runs on.
type Server struct {
	BaseModel

	DeploymentID *uint  `gorm:"index" json:"deployment_id"`
	Name         string `gorm:"not null" json:"name"` // host name
	HostIP       string `json:"host_ip"`
}

// MonitorTask is a configured recurring check against a server.
type MonitorTask struct {
	BaseModel

	ServerID     *uint          `gorm:"index" json:"server_id"`
	DeploymentID *uint          `gorm:"index" json:"deployment_id"`
	Function     string         `gorm:"not null" json:"function"` // check name, e.g. "eden", "ping"
	Options      datatypes.JSON `gorm:"type:jsonb" json:"options"`
	Period       int            `gorm:"not null;default:300" json:"period"` // seconds between runs, 0 = manual only
	Enabled      bool           `gorm:"default:true" json:"enabled"`
	Status       int            `json:"status"` // status of the latest run
	Result       string         `json:"result"`

	// Relationships
	Server *Server      `gorm:"foreignKey:ServerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Runs   []MonitorRun `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// MonitorRun is one execution of a MonitorTask.
type MonitorRun struct {
	BaseModel

	TaskID     uint       `gorm:"not null;index" json:"task_id"`
	Status     int        `json:"status"`
	Result     string     `json:"result"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	// RepliedAt is set when an email round-trip reply for this run arrives.
	RepliedAt *time.Time `json:"replied_at"`
}

// ScheduledTask is a queued one-shot (or limited-repeat) delayed job.
type ScheduledTask struct {
	BaseModel

	Function   string         `gorm:"not null;index" json:"function"`
	Args       datatypes.JSON `json:"args"`
	StartTime  time.Time      `gorm:"not null;index" json:"start_time"`
	Timeout    int            `gorm:"not null" json:"timeout"`           // seconds
	Repeats    int            `gorm:"not null;default:1" json:"repeats"` // runs left, including the next one
	Period     int            `gorm:"not null;default:60" json:"period"` // seconds between repeats
	Status     string         `gorm:"not null;index" json:"status"`
	LastError  string         `json:"last_error"`
	ClaimedAt  *time.Time     `json:"claimed_at"`
	FinishedAt *time.Time     `json:"finished_at"`
}
