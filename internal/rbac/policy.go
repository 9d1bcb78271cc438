package rbac

// Resource names the console collections.
type Resource string

const (
	ResourceDashboard   Resource = "dashboard"
	ResourceProducts    Resource = "products"
	ResourceStores      Resource = "stores"
	ResourceSupervisors Resource = "supervisors"
	ResourceSales       Resource = "sales"
	ResourceCustomers   Resource = "customers"
)

type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// policy maps resource -> action -> roles. Writes cover create, update and delete.
var policy = map[Resource]map[Action][]Role{
	ResourceDashboard: {
		ActionRead: {RoleManager},
	},
	ResourceProducts: {
		ActionRead:  {RoleManager, RoleSupervisor, RoleSales, RoleServiceCenter},
		ActionWrite: {RoleManager},
	},
	ResourceStores: {
		ActionRead:  {RoleManager, RoleSupervisor},
		ActionWrite: {RoleManager},
	},
	ResourceSupervisors: {
		ActionRead:  {RoleManager},
		ActionWrite: {RoleManager},
	},
	ResourceSales: {
		ActionRead:  {RoleManager, RoleSupervisor},
		ActionWrite: {RoleManager, RoleSupervisor},
	},
	ResourceCustomers: {
		ActionRead:  {RoleManager, RoleSupervisor, RoleSales, RoleServiceCenter},
		ActionWrite: {RoleSales},
	},
}

// Can reports whether role may perform action on resource.
func Can(role Role, res Resource, act Action) bool {
	return contains(policy[res][act], role)
}

// AllowedRoles returns the roles that may perform action on resource.
func AllowedRoles(res Resource, act Action) []Role {
	roles := policy[res][act]
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}
