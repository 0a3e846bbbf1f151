package pizza

// Opaque tokens handed out by the mock. Nothing validates them.
const (
	LoginToken    = "abcdef"
	RegisterToken = "ghijkl"
	UpdateToken   = "updatedtoken"
	OrderJWT      = "eyJpYXQ"
)

// Seed id sequences continue after the largest fixture id of each kind.
const (
	FirstFranchiseID = 5
	FirstStoreID     = 8
	FirstOrderID     = 23
)

// SeedAccounts returns the directory every backend starts from, in insertion order.
func SeedAccounts() []Account {
	return []Account{
		{
			ID:       "3",
			Name:     "Kai Chen",
			Email:    "d@jwt.com",
			Password: "a",
			Roles:    []RoleAssignment{{Role: RoleDiner}},
		},
		{
			ID:       "4",
			Name:     "Oscar George",
			Email:    "f@jwt.com",
			Password: "a",
			Roles:    []RoleAssignment{{Role: RoleFranchisee}},
		},
		{
			ID:       "5",
			Name:     "Alice Smith",
			Email:    "admin@jwt.com",
			Password: "a",
			Roles:    []RoleAssignment{{Role: RoleAdmin}},
		},
	}
}

// Menu returns the standard menu.
func Menu() []MenuItem {
	return []MenuItem{
		{ID: 1, Title: "Veggie", Image: "pizza1.png", Price: 0.0038, Description: "A garden of delight"},
		{ID: 2, Title: "Pepperoni", Image: "pizza2.png", Price: 0.0042, Description: "Spicy treat"},
	}
}

// Franchises returns every franchise with its stores.
func Franchises() FranchiseList {
	return FranchiseList{
		Franchises: []Franchise{
			{
				ID:   2,
				Name: "LotaPizza",
				Stores: []Store{
					{ID: 4, Name: "Lehi"},
					{ID: 5, Name: "Springville"},
					{ID: 6, Name: "American Fork"},
				},
			},
			pizzaCorp(),
			{ID: 4, Name: "topSpot", Stores: []Store{}},
		},
		More: false,
	}
}

// FranchiseeFranchises returns the franchises run by the seeded franchisee.
func FranchiseeFranchises() []Franchise {
	return []Franchise{pizzaCorp()}
}

// History returns the order history fixture for dinerID.
func History(dinerID string) OrderHistory {
	return OrderHistory{
		DinerID: dinerID,
		Orders: []Order{
			{
				ID:          1,
				FranchiseID: 1,
				StoreID:     1,
				Date:        "2024-06-05T05:14:40.000Z",
				Items:       []OrderItem{{ID: 1, MenuID: 1, Description: "Veggie", Price: 0.05}},
			},
		},
		Page: 1,
	}
}

func pizzaCorp() Franchise {
	return Franchise{
		ID:     3,
		Name:   "PizzaCorp",
		Stores: []Store{{ID: 7, Name: "Spanish Fork"}},
		Admins: []FranchiseAdmin{{ID: "4", Name: "Oscar George", Email: "f@jwt.com"}},
	}
}
