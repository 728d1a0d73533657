package syntax

// Condition is a predicate over nodes.
type Condition func(*Node) bool

// Always matches every node.
func Always(*Node) bool { return true }

// IsKind matches nodes of any of the given kinds.
func IsKind(kinds ...Kind) Condition {
	var set [kindCount]bool
	for _, kind := range kinds {
		if kind < kindCount {
			set[kind] = true
		}
	}

	return func(candidate *Node) bool {
		return candidate != nil && candidate.Kind < kindCount && set[candidate.Kind]
	}
}

// IsMethod matches function definitions, sync or async.
func IsMethod(candidate *Node) bool {
	return candidate != nil && candidate.Kind.IsFunction()
}

// IsConst matches literal constants.
func IsConst(candidate *Node) bool {
	return candidate != nil && candidate.Kind == KindConst
}

// IsName matches loaded names.
func IsName(candidate *Node) bool {
	return candidate != nil && candidate.Kind == KindName
}

// IsStatement matches statement nodes.
func IsStatement(candidate *Node) bool {
	return candidate != nil && candidate.Kind.IsStatement()
}

// IsElif reports whether the node is an If written as an elif clause: it
// carries the elif marker and is the first node of its parent If's else
// branch. A plain "else: if ..." is not an elif.
func IsElif(candidate *Node) bool {
	if candidate == nil || candidate.Kind != KindIf || !candidate.Elif {
		return false
	}

	parent := candidate.Parent
	if parent == nil || parent.Kind != KindIf {
		return false
	}

	orelse := parent.OrElse()

	return len(orelse) > 0 && orelse[0] == candidate
}

// Not negates a condition.
func Not(cond Condition) Condition {
	return func(candidate *Node) bool { return !cond(candidate) }
}

// And matches when every condition matches.
func And(conds ...Condition) Condition {
	return func(candidate *Node) bool {
		for _, cond := range conds {
			if !cond(candidate) {
				return false
			}
		}

		return true
	}
}

// Or matches when any condition matches.
func Or(conds ...Condition) Condition {
	return func(candidate *Node) bool {
		for _, cond := range conds {
			if cond(candidate) {
				return true
			}
		}

		return false
	}
}
