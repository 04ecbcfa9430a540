package rbac

import "github.com/omnivet/vetpms/internal/models"

// staticGrants maps each system-defined role to its permission set.
// These roles are compiled in and not editable at runtime.
var staticGrants = map[models.Role][]Permission{
	models.RoleSuperAdmin: {
		{ResourceAll, ActionManage},
	},
	models.RoleAdministrator: {
		{ResourceAll, ActionManage},
	},
	models.RolePracticeAdministrator: {
		{ResourceAppointments, ActionManage},
		{ResourceMedicalRecords, ActionManage},
		{ResourceBilling, ActionManage},
		{ResourceInventory, ActionManage},
		{ResourceReferrals, ActionManage},
		{ResourceBoarding, ActionManage},
		{ResourceCustomFields, ActionManage},
		{ResourcePatients, ActionManage},
		{ResourceUsers, ActionManage},
		{ResourceRoles, ActionManage},
		{ResourceReports, ActionRead},
	},
	models.RoleVeterinarian: {
		{ResourceAppointments, ActionManage},
		{ResourceMedicalRecords, ActionManage},
		{ResourcePatients, ActionManage},
		{ResourceReferrals, ActionManage},
		{ResourceBilling, ActionRead},
		{ResourceInventory, ActionRead},
	},
	models.RoleTechnician: {
		{ResourceAppointments, ActionRead},
		{ResourceAppointments, ActionUpdate},
		{ResourceMedicalRecords, ActionCreate},
		{ResourceMedicalRecords, ActionRead},
		{ResourcePatients, ActionRead},
		{ResourcePatients, ActionUpdate},
		{ResourceInventory, ActionRead},
		{ResourceInventory, ActionUpdate},
	},
	models.RoleReceptionist: {
		{ResourceAppointments, ActionManage},
		{ResourcePatients, ActionCreate},
		{ResourcePatients, ActionRead},
		{ResourcePatients, ActionUpdate},
		{ResourceBilling, ActionCreate},
		{ResourceBilling, ActionRead},
		{ResourceBoarding, ActionManage},
	},
	models.RoleAccountant: {
		{ResourceBilling, ActionManage},
		{ResourceReports, ActionRead},
		{ResourceInventory, ActionRead},
	},
	models.RoleClient: {
		{ResourceAppointments, ActionCreate},
		{ResourceAppointments, ActionRead},
		{ResourcePatients, ActionRead},
	},
}

// StaticGrants returns the compiled-in permission set for a role. The
// returned slice must not be mutated.
func StaticGrants(role models.Role) []Permission {
	return staticGrants[role]
}
