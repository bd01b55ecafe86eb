package types

// ImportMethod is what an import item will do to the database.
type ImportMethod string

const (
	MethodCreate ImportMethod = "create"
	MethodUpdate ImportMethod = "update"
)

// ImportItem is one incoming record of an import.
type ImportItem struct {
	Resource string
	// ID is set when the item matches an existing record.
	ID     uint
	Method ImportMethod
	Data   map[string]interface{}
}

// Has reports whether the incoming data carries a non-empty value for key.
func (i *ImportItem) Has(key string) bool {
	v, ok := i.Data[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// Match marks the item as an update of the record id.
func (i *ImportItem) Match(id uint) {
	i.ID = id
	i.Method = MethodUpdate
}
