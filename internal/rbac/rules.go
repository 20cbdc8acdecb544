package rbac

// Permission names follow "resource:action". A grant ending in "*" covers
// every action with that prefix; "*" alone covers everything.
type Permission string

const (
	PermClassCreate       Permission = "class:create"
	PermClassView         Permission = "class:view"
	PermClassManage       Permission = "class:manage"
	PermStudentsProvision Permission = "students:provision"
	PermStudentsRemove    Permission = "students:remove"
	PermWorksheetCreate   Permission = "worksheet:create"
	PermWorksheetView     Permission = "worksheet:view"
	PermAssignmentCreate  Permission = "assignment:create"
	PermAssignmentView    Permission = "assignment:view"
	PermProgressSaveOwn   Permission = "progress:save-own"
	PermProgressViewOwn   Permission = "progress:view-own"
	PermProgressViewAll   Permission = "progress:view-all"
	PermPasswordReset     Permission = "users:reset_password"
	PermPasswordChange    Permission = "user:change_password"
	PermExportCSV         Permission = "export:csv"

	PermAll Permission = "*"
)

// Default policy for the three roles.
var RolePermissions = map[string][]Permission{
	"student": {
		PermWorksheetView,
		PermAssignmentView,
		PermProgressSaveOwn,
		PermProgressViewOwn,
		PermPasswordChange,
	},
	"teacher": {
		PermClassCreate,
		PermClassView,
		PermClassManage,
		PermStudentsProvision,
		PermStudentsRemove,
		PermWorksheetCreate,
		PermWorksheetView,
		PermAssignmentCreate,
		PermAssignmentView,
		PermProgressViewAll,
		PermPasswordReset,
		PermExportCSV,
	},
	"admin": {
		PermAll,
	},
}
