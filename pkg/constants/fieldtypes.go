package constants

// FieldType represents the type of a user-defined table field
type FieldType string

const (
	FieldTypeText       FieldType = "text"
	FieldTypeLongText   FieldType = "long_text"
	FieldTypeNumber     FieldType = "number"
	FieldTypeDecimal    FieldType = "decimal"
	FieldTypeDate       FieldType = "date"
	FieldTypeDateTime   FieldType = "datetime"
	FieldTypeBoolean    FieldType = "boolean"
	FieldTypeChoice     FieldType = "choice"
	FieldTypeForeignKey FieldType = "foreign_key"
)

// GetAllFieldTypes returns all valid field types as a slice of strings
func GetAllFieldTypes() []string {
	return []string{
		string(FieldTypeText),
		string(FieldTypeLongText),
		string(FieldTypeNumber),
		string(FieldTypeDecimal),
		string(FieldTypeDate),
		string(FieldTypeDateTime),
		string(FieldTypeBoolean),
		string(FieldTypeChoice),
		string(FieldTypeForeignKey),
	}
}

// IsValidFieldType checks whether the given name is a known field type
func IsValidFieldType(name string) bool {
	for _, t := range GetAllFieldTypes() {
		if t == name {
			return true
		}
	}
	return false
}
