package shopping

import "strings"

// Aisle labels.
const (
	AisleProduce       = "Produce"
	AisleDairy         = "Dairy"
	AisleMeat          = "Meat"
	AislePantry        = "Pantry"
	AisleFrozen        = "Frozen"
	AisleMiscellaneous = "Miscellaneous"
)

type aisleKeyword struct {
	keyword string
	aisle   string
}

// aisleKeywords is scanned in order; the first keyword contained in the ingredient wins.
var aisleKeywords = []aisleKeyword{
	{"lettuce", AisleProduce}, {"banana", AisleProduce}, {"onion", AisleProduce}, {"garlic", AisleProduce},
	{"celery", AisleProduce}, {"apple", AisleProduce}, {"orange", AisleProduce}, {"spinach", AisleProduce},
	{"tomato", AisleProduce}, {"potato", AisleProduce}, {"carrot", AisleProduce}, {"broccoli", AisleProduce},

	{"milk", AisleDairy}, {"cheese", AisleDairy}, {"yogurt", AisleDairy}, {"eggs", AisleDairy}, {"butter", AisleDairy},

	{"chicken", AisleMeat}, {"beef", AisleMeat}, {"pork", AisleMeat}, {"fish", AisleMeat}, {"shrimp", AisleMeat},

	{"oats", AislePantry}, {"pasta", AislePantry}, {"rice", AislePantry}, {"flour", AislePantry},
	{"sugar", AislePantry}, {"salt", AislePantry}, {"pepper", AislePantry}, {"oil", AislePantry},
	{"vinegar", AislePantry}, {"sauce", AislePantry}, {"canned", AislePantry}, {"bread", AislePantry},
	{"mayonnaise", AislePantry}, {"beans", AislePantry},

	{"frozen vegetables", AisleFrozen}, {"ice cream", AisleFrozen},
}

// Classify maps a free-text ingredient to its aisle.
func Classify(ingredient string) string {
	lower := strings.ToLower(ingredient)
	for _, k := range aisleKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.aisle
		}
	}
	return AisleMiscellaneous
}
