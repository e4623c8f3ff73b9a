package domain

import (
	"strconv"
	"strings"
)

// Role is one of the four fixed caller categories.
type Role string

const (
	RoleHotelManager  Role = "hotel_manager"
	RoleTraveler      Role = "traveler"
	RoleAdministrator Role = "administrator"
	RoleDataOperator  Role = "data_operator"
)

// role ids as issued by the identity service
var roleByID = map[int]Role{
	1: RoleHotelManager,
	2: RoleTraveler,
	3: RoleAdministrator,
	4: RoleDataOperator,
}

// ParseRole accepts canonical names, display names ("Hotel Manager") or numeric ids.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return RoleFromID(n)
	}
	norm := strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(s))
	switch Role(norm) {
	case RoleHotelManager, RoleTraveler, RoleAdministrator, RoleDataOperator:
		return Role(norm), true
	}
	return "", false
}

// RoleFromID maps the legacy numeric role id.
func RoleFromID(id int) (Role, bool) {
	r, ok := roleByID[id]
	return r, ok
}

// Caller is the already-authenticated identity of a request.
type Caller struct {
	UserID  int64
	Role    Role
	HotelID *int64 // hotel bound to a manager token, if any
}

// SystemCaller is used for internally triggered recomputations.
var SystemCaller = Caller{Role: RoleDataOperator}
