package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

type CallRepository interface {
	CreateCall(call *models.Call) (*models.Call, error)
	FindCallByID(id uuid.UUID) (*models.Call, error)
	UpdateCall(call *models.Call) error
	FindByParticipant(userID uuid.UUID) ([]models.Call, error)
	FindCallsByGroup(groupID uuid.UUID) ([]models.Call, error)
}

type callRepo struct {
	DB *gorm.DB
}

func NewCallRepo(db *GormDB) CallRepository {
	return &callRepo{db.DB}
}

func (r *callRepo) CreateCall(call *models.Call) (*models.Call, error) {
	if err := r.DB.Create(call).Error; err != nil {
		return nil, errors.Wrap(err, "could not create call")
	}
	return call, nil
}

func (r *callRepo) FindCallByID(id uuid.UUID) (*models.Call, error) {
	var call models.Call
	if err := r.DB.Where("id = ?", id).First(&call).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *callRepo) UpdateCall(call *models.Call) error {
	if err := r.DB.Save(call).Error; err != nil {
		return errors.Wrap(err, "could not update call")
	}
	return nil
}

// FindByParticipant returns calls where userID is the caller or appears in
// the participant set, newest first.
func (r *callRepo) FindByParticipant(userID uuid.UUID) ([]models.Call, error) {
	var calls []models.Call
	err := r.DB.Where("caller_id = ? OR participant_ids::text LIKE ?",
		userID, "%"+userID.String()+"%").
		Order("start_at desc").Find(&calls).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load call history")
	}
	return calls, nil
}

func (r *callRepo) FindCallsByGroup(groupID uuid.UUID) ([]models.Call, error) {
	var calls []models.Call
	err := r.DB.Where("group_id = ?", groupID).Order("start_at desc").Find(&calls).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load group calls")
	}
	return calls, nil
}
