package steps

// BudgetPlan allocates a total budget across spending categories.
type BudgetPlan struct {
	TotalBudget int            `json:"total_budget"`
	Allocation  map[string]int `json:"allocation"`
	Strategy    string         `json:"optimization_strategy"`
}

// Spending categories in allocation order.
const (
	CategoryAccommodation  = "accommodation"
	CategoryTransportation = "transportation"
	CategoryFood           = "food"
	CategoryActivities     = "activities"
	CategoryShopping       = "shopping"
)

// OptimizeBudget splits the budget 35/25/25/10/5 across accommodation,
// transportation, food, activities and shopping, then shifts shares by
// preference: food-preferring trips move 5% from shopping to food,
// luxury-preferring trips move 10% from activities to accommodation.
func OptimizeBudget(budget int, prefs Preferences) BudgetPlan {
	shares := map[string]float64{
		CategoryAccommodation:  0.35,
		CategoryTransportation: 0.25,
		CategoryFood:           0.25,
		CategoryActivities:     0.10,
		CategoryShopping:       0.05,
	}

	if prefs.Food {
		shares[CategoryFood] += 0.05
		shares[CategoryShopping] -= 0.05
	}
	if prefs.Luxury {
		shares[CategoryAccommodation] += 0.10
		shares[CategoryActivities] -= 0.10
	}

	allocation := make(map[string]int, len(shares))
	for category, share := range shares {
		allocation[category] = int(float64(budget) * share)
	}

	return BudgetPlan{
		TotalBudget: budget,
		Allocation:  allocation,
		Strategy:    "preference_based",
	}
}
