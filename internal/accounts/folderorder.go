package accounts

// ReconcileFolders orders live folders by a saved order. Saved folders that
// still exist come first in saved order, followed by the remaining live
// folders in the order the server reported them. Every live folder appears
// exactly once.
func ReconcileFolders(live, saved []string) []string {
	out := make([]string, 0, len(live))
	if len(saved) == 0 {
		return append(out, live...)
	}

	present := make(map[string]bool, len(live))
	for _, folder := range live {
		present[folder] = true
	}

	seen := make(map[string]bool, len(live))
	for _, folder := range saved {
		if present[folder] && !seen[folder] {
			seen[folder] = true
			out = append(out, folder)
		}
	}
	for _, folder := range live {
		if !seen[folder] {
			seen[folder] = true
			out = append(out, folder)
		}
	}
	return out
}
