package accounts

// CanManageUsers reports whether this role grants access to account
// management endpoints: listing accounts, changing roles, deleting.
func (r Role) CanManageUsers() bool {
	switch r {
	case RoleAdmin, RoleSubAdmin:
		return true
	case RoleSubscriber:
		return false
	default:
		return false
	}
}

// CanUpdateAndDeleteUser reports whether an actor may change or delete the
// target account. Admins may act on anyone; every other manager is limited
// to plain subscribers.
func CanUpdateAndDeleteUser(actor, target Role) bool {
	if actor == RoleAdmin {
		return true
	}
	return target == RoleSubscriber
}

// AllRoles returns the closed set of assignable roles.
func AllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleSubAdmin,
		RoleSubscriber,
	}
}
