// Package pizza holds the JWT Pizza API data model and the fixture data the
// mock backend serves.
package pizza

// Role gates authorization checks. Values match the frontend's wire format.
type Role string

const (
	RoleDiner      Role = "diner"
	RoleFranchisee Role = "franchisee"
	RoleAdmin      Role = "admin"
)

// RoleAssignment grants a role, optionally scoped to an object such as a franchise.
type RoleAssignment struct {
	Role     Role   `json:"role" yaml:"role" validate:"oneof=diner franchisee admin"`
	ObjectID string `json:"objectId,omitempty" yaml:"objectId,omitempty"`
}

// Account is a directory entry. Password is plaintext test data.
type Account struct {
	ID       string           `json:"id" yaml:"id" validate:"required"`
	Name     string           `json:"name" yaml:"name" validate:"required"`
	Email    string           `json:"email" yaml:"email" validate:"required,email"`
	Password string           `json:"password,omitempty" yaml:"password"`
	Roles    []RoleAssignment `json:"roles" yaml:"roles" validate:"dive"`
}

// HasRole reports whether any assignment grants role.
func (a Account) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// Summary returns the listing view of the account.
func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Name: a.Name, Email: a.Email, Roles: cloneRoles(a.Roles)}
}

// Clone returns a deep copy so callers cannot alias role slices.
func (a Account) Clone() Account {
	a.Roles = cloneRoles(a.Roles)
	return a
}

// AccountSummary is an account without its credential.
type AccountSummary struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Roles []RoleAssignment `json:"roles"`
}

// MenuItem is one pizza on the menu.
type MenuItem struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Store belongs to exactly one franchise.
type Store struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	TotalRevenue *float64 `json:"totalRevenue,omitempty"`
}

// FranchiseAdmin is the franchisee view embedded in a franchise.
type FranchiseAdmin struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Franchise owns its store list.
type Franchise struct {
	ID     int              `json:"id"`
	Name   string           `json:"name"`
	Admins []FranchiseAdmin `json:"admins,omitempty"`
	Stores []Store          `json:"stores"`
}

// FranchiseList is the paged franchise listing.
type FranchiseList struct {
	Franchises []Franchise `json:"franchises"`
	More       bool        `json:"more"`
}

// OrderItem is one purchased menu item.
type OrderItem struct {
	ID          int     `json:"id,omitempty"`
	MenuID      int     `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Order is an immutable purchase record.
type Order struct {
	ID          int         `json:"id"`
	FranchiseID int         `json:"franchiseId"`
	StoreID     int         `json:"storeId"`
	Date        string      `json:"date"`
	Items       []OrderItem `json:"items"`
}

// OrderHistory is a diner's order page.
type OrderHistory struct {
	DinerID string  `json:"dinerId"`
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
}

func cloneRoles(roles []RoleAssignment) []RoleAssignment {
	if roles == nil {
		return nil
	}
	out := make([]RoleAssignment, len(roles))
	copy(out, roles)
	return out
}
