package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sahana/eden/internal/models"
)

// Models lists every table in migration order.
var Models = []interface{}{
	&models.User{},
	&models.Organisation{},
	&models.Location{},
	&models.Theme{},
	&models.Hazard{},
	&models.Project{},
	&models.ProjectOrganisation{},
	&models.Milestone{},
	&models.ActivityType{},
	&models.Activity{},
	&models.BeneficiaryType{},
	&models.Beneficiary{},
	&models.Task{},
	&models.TaskProject{},
	&models.TaskActivity{},
	&models.Comment{},
	&models.Time{},
	&models.Deployment{},
	&models.Instance{},
	&models.Server{},
	&models.MonitorTask{},
	&models.MonitorRun{},
	&models.ScheduledTask{},
}

func ConnectDatabase(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func MigrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
