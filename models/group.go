package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GroupRole string

const (
	GroupRoleAdmin  GroupRole = "ADMIN"
	GroupRoleMember GroupRole = "MEMBER"
)

type Group struct {
	Model
	Name      string                      `json:"name" binding:"required,min=2"`
	CreatorID uuid.UUID                   `gorm:"type:uuid;not null" json:"creator_id"`
	MemberIDs datatypes.JSONSlice[string] `json:"member_ids"`
	Roles     map[string]GroupRole        `gorm:"serializer:json" json:"roles"`
	AvatarURL string                      `json:"avatar_url,omitempty"`
	Active    bool                        `gorm:"default:true" json:"active"`
}

// IsMember reports whether userID is a current member of the group.
func (g *Group) IsMember(userID uuid.UUID) bool {
	id := userID.String()
	for _, m := range g.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// RoleOf returns the role of userID in the group, or "" when not a member.
func (g *Group) RoleOf(userID uuid.UUID) GroupRole {
	if !g.IsMember(userID) {
		return ""
	}
	if r, ok := g.Roles[userID.String()]; ok {
		return r
	}
	return GroupRoleMember
}

// AddMember records userID with the given role. Idempotent on membership.
func (g *Group) AddMember(userID uuid.UUID, role GroupRole) {
	if g.Roles == nil {
		g.Roles = make(map[string]GroupRole)
	}
	g.Roles[userID.String()] = role
	if !g.IsMember(userID) {
		g.MemberIDs = append(g.MemberIDs, userID.String())
	}
}

// RemoveMember drops userID from the membership and role map.
func (g *Group) RemoveMember(userID uuid.UUID) {
	id := userID.String()
	members := g.MemberIDs[:0]
	for _, m := range g.MemberIDs {
		if m != id {
			members = append(members, m)
		}
	}
	g.MemberIDs = members
	delete(g.Roles, id)
}

// CreateGroupRequest creates a group owned by the caller.
type CreateGroupRequest struct {
	Name      string      `json:"name" binding:"required,min=2"`
	MemberIDs []uuid.UUID `json:"member_ids"`
	AvatarURL string      `json:"avatar_url,omitempty"`
}

// GroupMemberRequest names a member to add or remove.
type GroupMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
