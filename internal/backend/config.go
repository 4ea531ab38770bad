package backend

// Kind represents the type of backing store.
type Kind string

const (
	SQLiteKind Kind = "sqlite"
	MemoryKind Kind = "memory"
)

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the store kind is valid
func (k Kind) IsValid() bool {
	switch k {
	case SQLiteKind, MemoryKind:
		return true
	default:
		return false
	}
}

// Config holds configuration for store creation
type Config struct {
	Kind Kind

	// SQLite specific
	SQLiteDBPath string
}
