package services

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/techagentng/chatline/db"
	apiError "github.com/techagentng/chatline/errors"
	"github.com/techagentng/chatline/models"
)

// relationshipChecker bundles the authorization reads shared by the message
// and call engines: identity existence, block edges, group membership.
type relationshipChecker struct {
	authRepo   db.AuthRepository
	friendRepo db.FriendRepository
	groupRepo  db.GroupRepository
}

// validateDirectTarget ensures both sides of a direct conversation exist and
// that neither has blocked the other.
func (rc *relationshipChecker) validateDirectTarget(senderID, receiverID uuid.UUID) *apiError.Error {
	for _, id := range []uuid.UUID{senderID, receiverID} {
		exists, err := rc.authRepo.UserExists(id)
		if err != nil {
			return apiError.ErrInternalServerError
		}
		if !exists {
			return apiError.NotFound("user not found")
		}
	}
	blocked, err := rc.friendRepo.IsBlocked(senderID, receiverID)
	if err != nil {
		return apiError.ErrInternalServerError
	}
	if blocked {
		return apiError.Forbidden("you cannot contact this user")
	}
	return nil
}

// validateGroupTarget ensures the group exists, is active, and that userID is
// a current member.
func (rc *relationshipChecker) validateGroupTarget(groupID, userID uuid.UUID) (*models.Group, *apiError.Error) {
	group, err := rc.groupRepo.FindGroupByID(groupID)
	if err != nil {
		return nil, apiError.NotFound("group not found")
	}
	if !group.Active {
		return nil, apiError.New("group is no longer active", http.StatusConflict)
	}
	if !group.IsMember(userID) {
		return nil, apiError.Forbidden("user not in group")
	}
	return group, nil
}

// exactlyOneTarget rejects requests that address neither or both of a
// receiver and a group.
func exactlyOneTarget(receiverID, groupID *uuid.UUID) *apiError.Error {
	if (receiverID == nil) == (groupID == nil) {
		return apiError.BadRequest("exactly one of receiver_id or group_id must be set")
	}
	return nil
}
