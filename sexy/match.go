package sexy

// Match reports whether got has the shape of pattern.
//
// A ... in pattern matches any datum, and as an item of a list, array or
// set it matches any run of items, including none. Metadata written on a
// list pattern must be present in got with matching values; got may carry
// more. Labels are ignored on both sides.
func Match(pattern, got *Node) bool {
	if pattern.Type == NodeEllipsis {
		return true
	}
	if pattern.Type != got.Type {
		return false
	}
	switch pattern.Type {
	case NodeList:
		for i, key := range pattern.MetaKeys {
			value := got.Meta(key)
			if value == nil || !Match(pattern.MetaItems[i], value) {
				return false
			}
		}
		return matchItems(pattern.Items, got.Items)
	case NodeArray, NodeSet:
		return matchItems(pattern.Items, got.Items)
	case NodeMap:
		if len(pattern.Keys) != len(got.Keys) {
			return false
		}
		for i, key := range pattern.Keys {
			value := got.Get(key)
			if value == nil || !Match(pattern.Items[i], value) {
				return false
			}
		}
		return true
	}
	return pattern.Text == got.Text
}

func matchItems(pattern, got []*Node) bool {
	if len(pattern) == 0 {
		return len(got) == 0
	}
	if pattern[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(got); skip++ {
			if matchItems(pattern[1:], got[skip:]) {
				return true
			}
		}
		return false
	}
	return len(got) > 0 && Match(pattern[0], got[0]) && matchItems(pattern[1:], got[1:])
}
