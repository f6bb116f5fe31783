package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/config"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
)

// GroupService mutates the membership directory the engines read.
type GroupService interface {
	CreateGroup(creatorID uuid.UUID, req *models.CreateGroupRequest) (*models.Group, *apiError.Error)
	GetGroup(groupID, callerID uuid.UUID) (*models.Group, *apiError.Error)
	AddMember(groupID, callerID, userID uuid.UUID) (*models.Group, *apiError.Error)
	RemoveMember(groupID, callerID, userID uuid.UUID) (*models.Group, *apiError.Error)
	DeactivateGroup(groupID, callerID uuid.UUID) *apiError.Error
	ListGroups(userID uuid.UUID) ([]models.Group, *apiError.Error)
}

type groupService struct {
	Config    *config.Config
	groupRepo db.GroupRepository
	authRepo  db.AuthRepository
}

func NewGroupService(groupRepo db.GroupRepository, authRepo db.AuthRepository, conf *config.Config) GroupService {
	return &groupService{
		Config:    conf,
		groupRepo: groupRepo,
		authRepo:  authRepo,
	}
}

func (s *groupService) CreateGroup(creatorID uuid.UUID, req *models.CreateGroupRequest) (*models.Group, *apiError.Error) {
	group := &models.Group{
		Name:      req.Name,
		CreatorID: creatorID,
		AvatarURL: req.AvatarURL,
		Active:    true,
	}
	group.AddMember(creatorID, models.GroupRoleAdmin)
	for _, memberID := range req.MemberIDs {
		if memberID == creatorID {
			continue
		}
		exists, err := s.authRepo.UserExists(memberID)
		if err != nil {
			return nil, apiError.ErrInternalServerError
		}
		if !exists {
			return nil, apiError.NotFound("user not found: " + memberID.String())
		}
		group.AddMember(memberID, models.GroupRoleMember)
	}

	created, err := s.groupRepo.CreateGroup(group)
	if err != nil {
		log.Printf("error creating group for %s: %v", creatorID, err)
		return nil, apiError.ErrInternalServerError
	}
	return created, nil
}

func (s *groupService) GetGroup(groupID, callerID uuid.UUID) (*models.Group, *apiError.Error) {
	group, err := s.groupRepo.FindGroupByID(groupID)
	if err != nil {
		return nil, apiError.NotFound("group not found")
	}
	if !group.IsMember(callerID) {
		return nil, apiError.Forbidden("user not in group")
	}
	return group, nil
}

func (s *groupService) AddMember(groupID, callerID, userID uuid.UUID) (*models.Group, *apiError.Error) {
	group, aerr := s.requireAdmin(groupID, callerID)
	if aerr != nil {
		return nil, aerr
	}
	exists, err := s.authRepo.UserExists(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	if !exists {
		return nil, apiError.NotFound("user not found")
	}
	if group.IsMember(userID) {
		return nil, apiError.Conflict("user is already a member")
	}

	group.AddMember(userID, models.GroupRoleMember)
	if err := s.groupRepo.UpdateGroup(group); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return group, nil
}

// RemoveMember drops userID from the group. Admins can remove anyone;
// members can only remove themselves (leave).
func (s *groupService) RemoveMember(groupID, callerID, userID uuid.UUID) (*models.Group, *apiError.Error) {
	group, err := s.groupRepo.FindGroupByID(groupID)
	if err != nil {
		return nil, apiError.NotFound("group not found")
	}
	if !group.IsMember(userID) {
		return nil, apiError.NotFound("user is not a member")
	}
	if callerID != userID && group.RoleOf(callerID) != models.GroupRoleAdmin {
		return nil, apiError.Forbidden("only admins can remove other members")
	}

	group.RemoveMember(userID)
	if err := s.groupRepo.UpdateGroup(group); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return group, nil
}

func (s *groupService) DeactivateGroup(groupID, callerID uuid.UUID) *apiError.Error {
	group, aerr := s.requireAdmin(groupID, callerID)
	if aerr != nil {
		return aerr
	}
	if !group.Active {
		return apiError.Conflict("group is already inactive")
	}
	group.Active = false
	if err := s.groupRepo.UpdateGroup(group); err != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *groupService) ListGroups(userID uuid.UUID) ([]models.Group, *apiError.Error) {
	groups, err := s.groupRepo.ListGroupsForUser(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return groups, nil
}

func (s *groupService) requireAdmin(groupID, callerID uuid.UUID) (*models.Group, *apiError.Error) {
	group, err := s.groupRepo.FindGroupByID(groupID)
	if err != nil {
		return nil, apiError.NotFound("group not found")
	}
	if group.RoleOf(callerID) != models.GroupRoleAdmin {
		return nil, apiError.Forbidden("admin role required")
	}
	return group, nil
}
