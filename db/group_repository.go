package db

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/techagentng/chatline/models"
	"gorm.io/gorm"
)

// GroupRepository is the membership directory the engines consult at
// dispatch and authorization time.
type GroupRepository interface {
	CreateGroup(group *models.Group) (*models.Group, error)
	FindGroupByID(id uuid.UUID) (*models.Group, error)
	UpdateGroup(group *models.Group) error
	Members(groupID uuid.UUID) ([]uuid.UUID, error)
	Role(groupID, userID uuid.UUID) (models.GroupRole, error)
	ListGroupsForUser(userID uuid.UUID) ([]models.Group, error)
}

type groupRepo struct {
	DB *gorm.DB
}

func NewGroupRepo(db *GormDB) GroupRepository {
	return &groupRepo{db.DB}
}

func (r *groupRepo) CreateGroup(group *models.Group) (*models.Group, error) {
	if err := r.DB.Create(group).Error; err != nil {
		return nil, errors.Wrap(err, "could not create group")
	}
	return group, nil
}

func (r *groupRepo) FindGroupByID(id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.DB.Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) UpdateGroup(group *models.Group) error {
	if err := r.DB.Save(group).Error; err != nil {
		return errors.Wrap(err, "could not update group")
	}
	return nil
}

// Members resolves the live member set for groupID.
func (r *groupRepo) Members(groupID uuid.UUID) ([]uuid.UUID, error) {
	group, err := r.FindGroupByID(groupID)
	if err != nil {
		return nil, err
	}
	members := make([]uuid.UUID, 0, len(group.MemberIDs))
	for _, m := range group.MemberIDs {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		members = append(members, id)
	}
	return members, nil
}

// Role returns the member's role, or "" when userID is not a member.
func (r *groupRepo) Role(groupID, userID uuid.UUID) (models.GroupRole, error) {
	group, err := r.FindGroupByID(groupID)
	if err != nil {
		return "", err
	}
	return group.RoleOf(userID), nil
}

func (r *groupRepo) ListGroupsForUser(userID uuid.UUID) ([]models.Group, error) {
	var groups []models.Group
	err := r.DB.Where("member_ids::text LIKE ?", "%"+userID.String()+"%").
		Order("updated_at desc").Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list groups")
	}
	return groups, nil
}
