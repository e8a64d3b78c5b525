package stress

// Category is the severity band derived from a stress score.
type Category string

const (
	CategoryLow      Category = "Low"
	CategoryModerate Category = "Moderate"
	CategoryHigh     Category = "High"
	CategoryCritical Category = "Critical"
)

// Band boundaries. Lower bounds are inclusive.
const (
	moderateFloor = 3.0
	highFloor     = 5.0
	criticalFloor = 7.0
)

// Categories lists every band from least to most severe.
var Categories = []Category{CategoryLow, CategoryModerate, CategoryHigh, CategoryCritical}

// Categorize maps a score to its band. It accepts any real number.
func Categorize(score float64) Category {
	switch {
	case score < moderateFloor:
		return CategoryLow
	case score < highFloor:
		return CategoryModerate
	case score < criticalFloor:
		return CategoryHigh
	default:
		return CategoryCritical
	}
}

// ParseCategory reports whether s names a known band.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}
