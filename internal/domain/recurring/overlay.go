package recurring

// Decision is a caller-recorded verdict on a detected group.
type Decision string

const (
	DecisionConfirmed Decision = "confirmed"
	DecisionDismissed Decision = "dismissed"
)

// AnnotatedGroup is a Group projected together with caller-owned decision
// and category state. The embedded Group is a copy; detector output is
// never mutated.
type AnnotatedGroup struct {
	Group
	Decision Decision `json:"decision,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Annotate overlays caller state onto a detected group, keyed by merchant
// key. Missing entries leave the overlay fields empty.
func Annotate(g Group, decisions map[string]Decision, categories map[string]string) AnnotatedGroup {
	return AnnotatedGroup{
		Group:    g,
		Decision: decisions[g.MerchantKey],
		Category: categories[g.MerchantKey],
	}
}
