package enums

import "slices"

// MealType maps to the meal_type column on meal_packages.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

var validMealTypes = []MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeDinner,
}

func (m MealType) String() string {
	return string(m)
}

func (m MealType) IsValid() bool {
	return slices.Contains(validMealTypes, m)
}

func ParseMealType(value string) (MealType, error) {
	return parse(validMealTypes, "meal type", value)
}
