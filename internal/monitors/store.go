package monitors

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sahana/eden/internal/models"
	"github.com/sahana/eden/internal/types"
)

// GormStore is the database-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetTask(ctx context.Context, id uint) (*models.MonitorTask, error) {
	var task models.MonitorTask
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *GormStore) GetServer(ctx context.Context, id uint) (*models.Server, error) {
	var server models.Server
	if err := s.db.WithContext(ctx).First(&server, id).Error; err != nil {
		return nil, err
	}
	return &server, nil
}

func (s *GormStore) ProductionURL(ctx context.Context, deploymentID uint) (string, error) {
	var instance models.Instance

	err := s.db.WithContext(ctx).
		Where("deployment_id = ? AND type = ?", deploymentID, types.InstanceProduction).
		First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return instance.URL, nil
}

func (s *GormStore) GetRun(ctx context.Context, id uint) (*models.MonitorRun, error) {
	var run models.MonitorRun
	if err := s.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRun opens a run of the task, started now.
func (s *GormStore) CreateRun(ctx context.Context, taskID uint) (*models.MonitorRun, error) {
	run := models.MonitorRun{TaskID: taskID, StartedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// RecordResult finishes the run and copies its outcome onto the task.
func (s *GormStore) RecordResult(ctx context.Context, taskID, runID uint, result Result) error {
	now := time.Now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.MonitorRun{}).Where("id = ?", runID).Updates(map[string]interface{}{
			"status":      int(result.Status),
			"result":      result.Message,
			"finished_at": now,
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.MonitorTask{}).Where("id = ?", taskID).Updates(map[string]interface{}{
			"status": int(result.Status),
			"result": result.Message,
		}).Error
	})
}

// MarkReplied stamps the run as having received its round-trip reply. It
// reports false when no such run exists.
func (s *GormStore) MarkReplied(ctx context.Context, runID uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.MonitorRun{}).
		Where("id = ?", runID).
		Update("replied_at", time.Now().UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
