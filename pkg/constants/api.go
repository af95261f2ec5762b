package constants

import "fmt"

// Backend API paths. The base path is empty; requests are proxied to the
// backend as-is.
const (
	APIAuthCSRF   = "/api/auth/csrf/"
	APIAuthCheck  = "/api/auth/check/"
	APIAuthLogin  = "/api/auth/login/"
	APIAuthLogout = "/api/auth/logout/"

	APITables         = "/api/database/tables/"
	APIRecordsByTable = "/api/database/records/by_table/"

	APIRecordCreateWithValues = "/api/database/records/create_with_values/"

	APIBackupUploadRestore = "/api/backup/upload-restore-external/"
)

// APITable returns the detail path for a table
func APITable(id string) string {
	return fmt.Sprintf("/api/database/tables/%s/", id)
}

// APITableAddField returns the add_field path for a table
func APITableAddField(id string) string {
	return fmt.Sprintf("/api/database/tables/%s/add_field/", id)
}

// APIRecord returns the detail path for a record
func APIRecord(id string) string {
	return fmt.Sprintf("/api/database/records/%s/", id)
}

// APIRecordUpdateWithValues returns the update_with_values path for a record
func APIRecordUpdateWithValues(id string) string {
	return fmt.Sprintf("/api/database/records/%s/update_with_values/", id)
}
