package archiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestSnapshotsToKeepRecentWeeks(t *testing.T) {
	ref := d(2022, time.October, 25)
	snapshots := []time.Time{
		d(2022, time.October, 25),
		d(2022, time.October, 24),
		d(2022, time.October, 20),
		d(2022, time.October, 19),
		d(2022, time.October, 13),
		d(2022, time.October, 10),
	}

	keep := SnapshotsToKeep(ref, snapshots)

	assert.Equal(t, []time.Time{
		d(2022, time.October, 25),
		d(2022, time.October, 24),
		d(2022, time.October, 20),
		d(2022, time.October, 13),
	}, keep)
}

func TestSnapshotsToKeepMonthsAndYears(t *testing.T) {
	ref := d(2023, time.June, 15)
	snapshots := []time.Time{
		d(2023, time.April, 30),
		d(2023, time.April, 1),
		d(2023, time.March, 15),
		d(2022, time.December, 31),
		d(2022, time.December, 1),
		d(2021, time.January, 5),
	}

	keep := SnapshotsToKeep(ref, snapshots)

	assert.Equal(t, []time.Time{
		d(2023, time.April, 30),
		d(2023, time.March, 15),
		d(2022, time.December, 31),
		d(2021, time.January, 5),
	}, keep)
}

func TestSnapshotsToKeepFirstOlderSnapshotKept(t *testing.T) {
	// Nothing kept yet: the newest snapshot survives whatever band it is in.
	ref := d(2022, time.October, 25)
	keep := SnapshotsToKeep(ref, []time.Time{d(2022, time.October, 15)})
	assert.Equal(t, []time.Time{d(2022, time.October, 15)}, keep)
}

func TestSnapshotsToKeepEmpty(t *testing.T) {
	assert.Empty(t, SnapshotsToKeep(d(2022, time.October, 25), nil))
}
