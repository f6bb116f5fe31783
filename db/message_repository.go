package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

// MessageRepository exposes only the lookups the engines actually use.
type MessageRepository interface {
	CreateMessage(message *models.Message) (*models.Message, error)
	FindMessageByID(id uuid.UUID) (*models.Message, error)
	UpdateMessage(message *models.Message) error
	FindMessageByTempID(tempID string) (*models.Message, error)
	FindByParticipantPair(a, b uuid.UUID) ([]models.Message, error)
	FindByGroup(groupID uuid.UUID) ([]models.Message, error)
	FindPinnedByPair(a, b uuid.UUID) ([]models.Message, error)
	FindPinnedByGroup(groupID uuid.UUID) ([]models.Message, error)
	SearchPair(a, b uuid.UUID, keyword string) ([]models.Message, error)
	SearchGroup(groupID uuid.UUID, keyword string) ([]models.Message, error)
}

type messageRepo struct {
	DB *gorm.DB
}

func NewMessageRepo(db *GormDB) MessageRepository {
	return &messageRepo{db.DB}
}

func (r *messageRepo) CreateMessage(message *models.Message) (*models.Message, error) {
	if err := r.DB.Create(message).Error; err != nil {
		return nil, errors.Wrap(err, "could not create message")
	}
	return message, nil
}

func (r *messageRepo) FindMessageByID(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := r.DB.Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepo) UpdateMessage(message *models.Message) error {
	if err := r.DB.Save(message).Error; err != nil {
		return errors.Wrap(err, "could not update message")
	}
	return nil
}

func (r *messageRepo) FindMessageByTempID(tempID string) (*models.Message, error) {
	var message models.Message
	if err := r.DB.Where("temp_id = ?", tempID).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepo) pairScope(a, b uuid.UUID) *gorm.DB {
	return r.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	)
}

func (r *messageRepo) FindByParticipantPair(a, b uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.pairScope(a, b).Order("created_at asc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load pair history")
	}
	return messages, nil
}

func (r *messageRepo) FindByGroup(groupID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("group_id = ?", groupID).Order("created_at asc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load group history")
	}
	return messages, nil
}

func (r *messageRepo) FindPinnedByPair(a, b uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.pairScope(a, b).Where("pinned = ?", true).
		Order("pinned_at desc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load pinned messages")
	}
	return messages, nil
}

func (r *messageRepo) FindPinnedByGroup(groupID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB.Where("group_id = ? AND pinned = ?", groupID, true).
		Order("pinned_at desc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not load pinned messages")
	}
	return messages, nil
}

func (r *messageRepo) SearchPair(a, b uuid.UUID, keyword string) ([]models.Message, error) {
	var messages []models.Message
	pattern := "%" + keyword + "%"
	err := r.pairScope(a, b).
		Where("content ILIKE ? OR file_name ILIKE ?", pattern, pattern).
		Order("created_at desc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not search messages")
	}
	return messages, nil
}

func (r *messageRepo) SearchGroup(groupID uuid.UUID, keyword string) ([]models.Message, error) {
	var messages []models.Message
	pattern := "%" + keyword + "%"
	err := r.DB.Where("group_id = ?", groupID).
		Where("content ILIKE ? OR file_name ILIKE ?", pattern, pattern).
		Order("created_at desc").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not search group messages")
	}
	return messages, nil
}
