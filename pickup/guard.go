package pickup

// GuardResult tells whether pickup availability may be evaluated at all.
type GuardResult int

const (
	Pass GuardResult = iota
	Blocked
)

// EvaluateGuard blocks evaluation while a visible SKU selector still has
// unselected variations.
func EvaluateGuard(s SkuSelectorState) GuardResult {
	if s.IsVisible && !s.AreAllVariationsSelected {
		return Blocked
	}
	return Pass
}
