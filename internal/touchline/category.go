package touchline

// Category is the label the summarizer assigns to an article.
type Category string

const (
	CategoryTransfer   Category = "이적/영입"
	CategoryResult     Category = "경기 결과"
	CategoryPreview    Category = "경기 프리뷰"
	CategoryInjury     Category = "부상/선수 상태"
	CategoryManagement Category = "감독/전술"
	CategoryStandings  Category = "리그 순위/통계"
	CategoryNational   Category = "국가대표"
	CategoryOther      Category = "기타"

	// FallbackCategory replaces any label outside of Categories.
	FallbackCategory = CategoryOther
)

// Categories is the closed set of labels, in the order they're shown to the model.
var Categories = []Category{
	CategoryTransfer,
	CategoryResult,
	CategoryPreview,
	CategoryInjury,
	CategoryManagement,
	CategoryStandings,
	CategoryNational,
	CategoryOther,
}

// ParseCategory returns the category named s and whether it's in the closed set.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory coerces s into the closed set, falling back to [FallbackCategory].
func NormalizeCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return FallbackCategory
}
