package models

// MealSlot is the coarse diary label, independent of the exact time of day.
type MealSlot string

const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
)

func (s MealSlot) Valid() bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner:
		return true
	}
	return false
}

// FoodCategory is the closed food-group enum used by detection and the
// eating-order guide.
type FoodCategory string

const (
	CategoryVegetable    FoodCategory = "vegetable"
	CategoryProtein      FoodCategory = "protein"
	CategoryFat          FoodCategory = "fat"
	CategoryCarbohydrate FoodCategory = "carbohydrate"
	CategorySugar        FoodCategory = "sugar"
)

func (c FoodCategory) Valid() bool {
	switch c {
	case CategoryVegetable, CategoryProtein, CategoryFat, CategoryCarbohydrate, CategorySugar:
		return true
	}
	return false
}

// NormalizeCategory coerces anything outside the closed enum to
// carbohydrate, the same default applied to user-added foods.
func NormalizeCategory(c FoodCategory) FoodCategory {
	if c.Valid() {
		return c
	}
	return CategoryCarbohydrate
}

// EatingGoal is the objective the recommended eating order optimizes for.
type EatingGoal string

const (
	GoalDigestion EatingGoal = "digestion"
	GoalSatiety   EatingGoal = "satiety"
	GoalEnergy    EatingGoal = "energy"
	GoalMuscle    EatingGoal = "muscle"
	GoalSkin      EatingGoal = "skin"
	GoalWeight    EatingGoal = "weight"
)

var goalLabels = map[EatingGoal]string{
	GoalDigestion: "Comfortable digestion",
	GoalSatiety:   "Lasting satiety",
	GoalEnergy:    "Steady energy",
	GoalMuscle:    "Muscle growth",
	GoalSkin:      "Skin health",
	GoalWeight:    "Weight management",
}

func (g EatingGoal) Valid() bool {
	_, ok := goalLabels[g]
	return ok
}

// Label is the human-readable goal name stored alongside the goal id.
func (g EatingGoal) Label() string {
	if l, ok := goalLabels[g]; ok {
		return l
	}
	return string(g)
}
