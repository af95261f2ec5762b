package constants

import "fmt"

// Client-side routes the UI navigates to. The session manager emits
// RouteLogin on forced redirect; the rest are provided for consumers that
// build outbound links.
const (
	RouteHome      = "/"
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"

	RouteAdminTables      = "/admin/database/tables"
	RouteAdminTableCreate = "/admin/database/tables/create"
)

// RouteAdminTableEdit returns the edit route for a table
func RouteAdminTableEdit(tableID string) string {
	return fmt.Sprintf("/admin/database/tables/%s/edit", tableID)
}

// RouteAdminTableFields returns the field management route for a table
func RouteAdminTableFields(tableID string) string {
	return fmt.Sprintf("/admin/database/tables/%s/fields", tableID)
}

// RouteAdminTableRecords returns the record list route for a table
func RouteAdminTableRecords(tableID string) string {
	return fmt.Sprintf("/admin/database/tables/%s/records", tableID)
}

// RouteAdminRecordCreate returns the record creation route for a table
func RouteAdminRecordCreate(tableID string) string {
	return fmt.Sprintf("/admin/database/tables/%s/records/create", tableID)
}

// RouteAdminRecordEdit returns the edit route for a record
func RouteAdminRecordEdit(tableID, recordID string) string {
	return fmt.Sprintf("/admin/database/tables/%s/records/%s/edit", tableID, recordID)
}
