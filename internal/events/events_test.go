package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.RatingChanged(RatingChangeEvent{Project: "x", After: "a"}))
	assert.NoError(t, p.TrackerCompleted(TrackerCompletedEvent{Repositories: 3}))
	p.Close()
}
