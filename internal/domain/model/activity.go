package model

// Category names one activity series.
type Category string

// Activity categories; all share the same bucket edges.
const (
	CategoryPosts         Category = "posts"
	CategoryReactions     Category = "reactions"
	CategoryNewIdentities Category = "new_identities"
	CategoryOnline        Category = "online"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryPosts, CategoryReactions, CategoryNewIdentities, CategoryOnline}

// ActivityEvent is one countable occurrence.
type ActivityEvent struct {
	Category Category
	At       int64 // epoch milliseconds
}

// ActivityBucket counts events inside one fixed-width interval.
// Start is exclusive and End inclusive, matching the offset mapping.
type ActivityBucket struct {
	Index  int
	Label  string
	Start  int64
	End    int64
	Counts map[Category]int
}
