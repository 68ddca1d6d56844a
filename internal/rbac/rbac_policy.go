package rbac

import "go-leave/internal/identity"

const (
	ResourceLeaveRequest = "leave_request"
	ResourceLeaveBalance = "leave_balance"
	ResourceAttendance   = "attendance"
	ResourceCalendarSync = "calendar_sync"

	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionClock  = "clock"
	ActionForce  = "force"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type Permission struct {
	Role     identity.Role
	Resource string
	Action   string
}

// DefaultPermissions is the route level policy. Ownership rules (an employee
// may only cancel their own request) are enforced by the services.
var DefaultPermissions = []Permission{
	{identity.RoleEmployee, ResourceLeaveRequest, ActionCreate},
	{identity.RoleEmployee, ResourceLeaveRequest, ActionRead},
	{identity.RoleEmployee, ResourceLeaveRequest, ActionUpdate},
	{identity.RoleEmployee, ResourceLeaveBalance, ActionRead},
	{identity.RoleEmployee, ResourceAttendance, ActionClock},
	{identity.RoleEmployee, ResourceAttendance, ActionRead},

	{identity.RoleAdmin, ResourceAttendance, ActionForce},
	{identity.RoleAdmin, ResourceCalendarSync, ActionCreate},
}

// RoleInheritance lists child, parent pairs.
var RoleInheritance = [][2]identity.Role{
	{identity.RoleAdmin, identity.RoleEmployee},
}
