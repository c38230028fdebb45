package scope

// Scope is the district matching mode.
type Scope string

// District scope constants.
const (
	// All applies no district filtering.
	All Scope = "all"
	// Only keeps rows whose district or location text mentions the district.
	Only Scope = "only"
	// Nearby keeps rows within a radius of an origin point.
	Nearby Scope = "nearby"
)

// IsValid checks if the scope is one of the supported values.
func (s Scope) IsValid() bool {
	return s == All || s == Only || s == Nearby
}
