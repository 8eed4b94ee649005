package models

// Category is the fixed set of spending categories every transaction is
// classified into. The set is closed: anything a provider reports that has
// no mapping ends up in CategoryOther.
type Category string

const (
	CategoryEssentials        Category = "Essentials"
	CategoryFoodEntertainment Category = "Food & Entertainment"
	CategoryShopping          Category = "Shopping"
	CategoryHealthWellness    Category = "Health & Wellness"
	CategoryOther             Category = "Other"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryEssentials,
		CategoryFoodEntertainment,
		CategoryShopping,
		CategoryHealthWellness,
		CategoryOther,
	}
}

// IsValid reports whether c is a member of the fixed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryEssentials, CategoryFoodEntertainment, CategoryShopping,
		CategoryHealthWellness, CategoryOther:
		return true
	}
	return false
}
