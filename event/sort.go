package event

import "sort"

// Sort sorts the Events by their ordering key, using the Version to
// break ties. The sort is stable.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.SortableUniqueID != b.SortableUniqueID {
			return a.SortableUniqueID.EarlierThan(b.SortableUniqueID)
		}

		return a.Version < b.Version
	})
}

// Sorted returns a sorted copy of the Events, leaving the input untouched.
func Sorted(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	Sort(sorted)

	return sorted
}
