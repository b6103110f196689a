package report

import "strings"

// PhotoCategory enum
type PhotoCategory string

const (
	CategoryCover         PhotoCategory = "cover"
	CategoryBefore        PhotoCategory = "before"
	CategoryDuring        PhotoCategory = "during"
	CategoryAfter         PhotoCategory = "after"
	CategoryFinal         PhotoCategory = "final"
	CategoryUncategorized PhotoCategory = "uncategorized"
)

// categoryOrder is the match priority. A caption matching several lists
// resolves to the earliest entry.
var categoryOrder = []PhotoCategory{
	CategoryCover,
	CategoryBefore,
	CategoryDuring,
	CategoryAfter,
	CategoryFinal,
}

// AllCategories lists every category in report order.
var AllCategories = append(append([]PhotoCategory(nil), categoryOrder...), CategoryUncategorized)

var categoryKeywords = map[PhotoCategory][]string{
	CategoryCover: {
		"cover", "title", "overview", "site overview", "front", "entrance",
		"facility", "building exterior", "site entry", "main view",
	},
	CategoryBefore: {
		"before", "pre-repair", "pre repair", "initial", "as received",
		"baseline", "original condition", "prior to work", "pre-service",
		"starting condition", "as-found",
	},
	CategoryDuring: {
		"during", "in-progress", "in progress", "install", "installation",
		"assembly", "repairing", "work in progress", "mid-repair",
		"disassembly", "removing", "installing", "assembling",
	},
	CategoryAfter: {
		"after", "post-repair", "post repair", "complete", "completed",
		"finished", "repaired", "post-service", "after repair",
		"completion", "final assembly",
	},
	CategoryFinal: {
		"final", "inspection", "handover", "closeout", "sign-off", "sign off",
		"final check", "acceptance", "verification", "final inspection",
		"quality check", "commissioning",
	},
}

// Categorize maps a caption to a category by substring keyword match.
// Matching is not whole-word: "afterwards" matches "after".
func Categorize(caption string) PhotoCategory {
	text := strings.ToLower(caption)
	if strings.TrimSpace(text) == "" {
		return CategoryUncategorized
	}
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				return cat
			}
		}
	}
	return CategoryUncategorized
}

// CategorizePhotos returns copies of photos with Category recomputed from caption.
func CategorizePhotos(photos []Photo) []Photo {
	out := make([]Photo, len(photos))
	for i, p := range photos {
		p.Category = Categorize(p.Caption)
		out[i] = p
	}
	return out
}

// GroupPhotos partitions categorized photos, keeping session order within each bucket.
// Every category key is present even when empty.
func GroupPhotos(photos []Photo) map[PhotoCategory][]Photo {
	groups := make(map[PhotoCategory][]Photo, len(AllCategories))
	for _, c := range AllCategories {
		groups[c] = []Photo{}
	}
	for _, p := range photos {
		cat := p.Category
		if _, ok := groups[cat]; !ok {
			cat = CategoryUncategorized
		}
		groups[cat] = append(groups[cat], p)
	}
	return groups
}
