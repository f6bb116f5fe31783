package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

// FriendRepository is the relationship graph: friendship and block edges
// between user pairs. The engines only read it; the friend flows mutate it.
type FriendRepository interface {
	CreateFriend(friend *models.Friend) (*models.Friend, error)
	UpdateFriend(friend *models.Friend) error
	DeleteFriend(id uuid.UUID) error
	FindPair(a, b uuid.UUID) (*models.Friend, error)
	IsBlocked(a, b uuid.UUID) (bool, error)
	IsConnected(a, b uuid.UUID) (bool, error)
	ListFriends(userID uuid.UUID) ([]models.Friend, error)
	ListPending(userID uuid.UUID) ([]models.Friend, error)
}

type friendRepo struct {
	DB *gorm.DB
}

func NewFriendRepo(db *GormDB) FriendRepository {
	return &friendRepo{db.DB}
}

func (r *friendRepo) CreateFriend(friend *models.Friend) (*models.Friend, error) {
	if err := r.DB.Create(friend).Error; err != nil {
		return nil, errors.Wrap(err, "could not create friend edge")
	}
	return friend, nil
}

func (r *friendRepo) UpdateFriend(friend *models.Friend) error {
	if err := r.DB.Save(friend).Error; err != nil {
		return errors.Wrap(err, "could not update friend edge")
	}
	return nil
}

func (r *friendRepo) DeleteFriend(id uuid.UUID) error {
	if err := r.DB.Delete(&models.Friend{}, "id = ?", id).Error; err != nil {
		return errors.Wrap(err, "could not delete friend edge")
	}
	return nil
}

func (r *friendRepo) pairScope(a, b uuid.UUID) *gorm.DB {
	return r.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	)
}

// FindPair returns the edge between a and b regardless of direction, or
// gorm.ErrRecordNotFound when none exists.
func (r *friendRepo) FindPair(a, b uuid.UUID) (*models.Friend, error) {
	var friend models.Friend
	if err := r.pairScope(a, b).First(&friend).Error; err != nil {
		return nil, err
	}
	return &friend, nil
}

// IsBlocked reports whether either side of the pair has blocked the other.
func (r *friendRepo) IsBlocked(a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.pairScope(a, b).Model(&models.Friend{}).
		Where("status = ?", models.FriendStatusBlocked).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "could not check block status")
	}
	return count > 0, nil
}

// IsConnected reports whether a and b are accepted friends.
func (r *friendRepo) IsConnected(a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.pairScope(a, b).Model(&models.Friend{}).
		Where("status = ?", models.FriendStatusAccepted).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "could not check friendship")
	}
	return count > 0, nil
}

func (r *friendRepo) ListFriends(userID uuid.UUID) ([]models.Friend, error) {
	var friends []models.Friend
	err := r.DB.Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
		userID, userID, models.FriendStatusAccepted).Find(&friends).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list friends")
	}
	return friends, nil
}

func (r *friendRepo) ListPending(userID uuid.UUID) ([]models.Friend, error) {
	var friends []models.Friend
	err := r.DB.Where("receiver_id = ? AND status = ?",
		userID, models.FriendStatusPending).Find(&friends).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list pending requests")
	}
	return friends, nil
}
