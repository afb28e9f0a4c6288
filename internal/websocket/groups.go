// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package websocket

import (
	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/models"
)

// Group names a notification audience. Connections join groups once at
// register time based on their authenticated identity; membership is fixed
// for the connection's lifetime (a role or station change requires a
// reconnect).
type Group string

// StationGroup returns the group for a station's dispatchers.
func StationGroup(stationID uuid.UUID) Group {
	return Group("station_" + stationID.String())
}

// RoleGroup returns the group shared by every user of a role.
func RoleGroup(role models.Role) Group {
	return Group("role_" + string(role))
}

// UserGroup returns the group addressing a single user's connections.
func UserGroup(userID uuid.UUID) Group {
	return Group("user_" + userID.String())
}

// Identity is the authenticated principal attached to a connection.
type Identity struct {
	UserID    uuid.UUID
	Username  string
	Role      models.Role
	StationID *uuid.UUID
}

// GroupsForIdentity derives the groups a connection belongs to. Every
// connection joins its role and user groups; the station group is joined
// only by station-scoped roles with a station assignment.
func GroupsForIdentity(identity Identity) []Group {
	groups := []Group{
		RoleGroup(identity.Role),
		UserGroup(identity.UserID),
	}
	if identity.Role.StationScoped() && identity.StationID != nil {
		groups = append(groups, StationGroup(*identity.StationID))
	}
	return groups
}
