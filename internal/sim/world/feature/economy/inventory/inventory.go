// Package inventory holds count-map helpers shared by wallets and inventories.
// Keys whose count reaches zero are removed so serialised maps stay minimal.
package inventory

// Has reports whether inv holds at least want of every key.
func Has[K ~string](inv, want map[K]int) bool {
	for k, c := range want {
		if c > 0 && inv[k] < c {
			return false
		}
	}
	return true
}

// DeductItems subtracts want from inv without checking; callers check with Has first.
// Empty keys and non-positive counts are ignored.
func DeductItems[K ~string](inv, want map[K]int) {
	for k, c := range want {
		if k == "" || c <= 0 {
			continue
		}
		inv[k] -= c
		if inv[k] <= 0 {
			delete(inv, k)
		}
	}
}

// AddItems adds every positive count in add to inv.
func AddItems[K ~string](inv, add map[K]int) {
	for k, c := range add {
		if k == "" || c <= 0 {
			continue
		}
		inv[k] += c
	}
}
