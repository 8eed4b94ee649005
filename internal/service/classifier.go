package service

import "fintrack/internal/models"

// Classifier maps a provider's raw category label onto the fixed category
// set. Implementations must be pure: same label in, same category out, no
// side effects.
type Classifier interface {
	Classify(rawLabel string) models.Category
}

// plaidCategories maps Plaid personal-finance primary categories onto the
// five spending buckets. Labels missing from the table fall through to
// Other.
var plaidCategories = map[string]models.Category{
	"FOOD_AND_DRINK":      models.CategoryFoodEntertainment,
	"ENTERTAINMENT":       models.CategoryFoodEntertainment,
	"GENERAL_MERCHANDISE": models.CategoryShopping,
	"HOME_IMPROVEMENT":    models.CategoryShopping,
	"HEALTHCARE":          models.CategoryHealthWellness,
	"PERSONAL_CARE":       models.CategoryHealthWellness,
	"RENT_AND_UTILITIES":  models.CategoryEssentials,
	"TRANSPORTATION":      models.CategoryEssentials,
	"GENERAL_SERVICES":    models.CategoryEssentials,
	"TRAVEL":              models.CategoryEssentials,
	"BANK_FEES":           models.CategoryOther,
	"LOAN_PAYMENTS":       models.CategoryOther,
	"TRANSFER_IN":         models.CategoryOther,
	"TRANSFER_OUT":        models.CategoryOther,
	"INCOME":              models.CategoryOther,
	"OTHER":               models.CategoryOther,
}

// PlaidClassifier classifies transactions by their Plaid
// personal_finance_category.primary label.
type PlaidClassifier struct{}

func NewPlaidClassifier() *PlaidClassifier {
	return &PlaidClassifier{}
}

func (PlaidClassifier) Classify(rawLabel string) models.Category {
	if c, ok := plaidCategories[rawLabel]; ok {
		return c
	}
	return models.CategoryOther
}
