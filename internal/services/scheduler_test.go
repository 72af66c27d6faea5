package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRegisterJobs(t *testing.T) {
	fetcher := NewFeedFetcher(openDB(t), NewCrawler(time.Second), "")

	s := NewScheduler(fetcher, "@every 30m", "0 0 2 * * *", 30)
	require.NoError(t, s.RegisterJobs())
	assert.Len(t, s.engine.Entries(), 2)

	s.Start()
	<-s.Stop().Done()

	bad := NewScheduler(fetcher, "every half hour", "0 0 2 * * *", 30)
	assert.Error(t, bad.RegisterJobs())

	bad = NewScheduler(fetcher, "@hourly", "0 2 * *", 30)
	assert.Error(t, bad.RegisterJobs())
}
