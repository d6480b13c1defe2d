package archiver

import "time"

// SnapshotsToKeep filters snapshot dates down to the set the retention
// policy preserves relative to refDate:
//
//   - every snapshot of the last two days
//   - the latest snapshot of each ISO week within the last 30 days
//   - the latest snapshot of each month within the last two years
//   - the latest snapshot of each earlier year
//
// Dates must be sorted descending. A single pass judges each date against
// the most recently kept one.
func SnapshotsToKeep(refDate time.Time, snapshots []time.Time) []time.Time {
	var keep []time.Time
	last := func() (time.Time, bool) {
		if len(keep) == 0 {
			return time.Time{}, false
		}
		return keep[len(keep)-1], true
	}
	for _, s := range snapshots {
		age := int(refDate.Sub(s).Hours() / 24)
		switch {
		case age <= 2:
			keep = append(keep, s)
		case age <= 30:
			if l, ok := last(); !ok || isoWeekAfter(l, s) {
				keep = append(keep, s)
			}
		case age <= 2*365:
			if l, ok := last(); !ok || monthAfter(l, s) {
				keep = append(keep, s)
			}
		default:
			if l, ok := last(); !ok || l.Year() > s.Year() {
				keep = append(keep, s)
			}
		}
	}
	return keep
}

func isoWeekAfter(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay > by || (ay == by && aw > bw)
}

func monthAfter(a, b time.Time) bool {
	return a.Year() > b.Year() || (a.Year() == b.Year() && a.Month() > b.Month())
}
