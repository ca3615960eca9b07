package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketLabel(t *testing.T) {
	today := "2026-02-23"
	assert.Equal(t, "Today", BucketLabel("2026-02-23", today))
	assert.Equal(t, "Yesterday", BucketLabel("2026-02-22", today))
	assert.Equal(t, "2d ago", BucketLabel("2026-02-21", today))
	assert.Equal(t, "6d ago", BucketLabel("2026-02-17", today))
	assert.Equal(t, "2026-02-16", BucketLabel("2026-02-16", today))
	assert.Equal(t, "2026-02-24", BucketLabel("2026-02-24", today), "future dates show the date")
	assert.Equal(t, "garbage", BucketLabel("garbage", today))
}

func TestMergeTimeline(t *testing.T) {
	summaries := []Summary{
		{ReportID: "r1", Agent: "qq", Date: "2026-02-21"},
		{ReportID: "r2", Agent: "coach", Date: "2026-02-23"},
		{ReportID: "r3", Agent: "qq", Date: "2026-02-20"},
	}
	weekly := []WeeklyReport{
		{ID: 7, Domain: "qq", ReportDate: "2026-02-21", Title: "QQ week"},
		{ID: 8, Domain: "finance", ReportDate: "2026-02-22", Title: "Finance week"},
	}

	all := MergeTimeline(summaries, weekly, AllAgents)
	require.Len(t, all, 5)
	got := make([]string, 0, len(all))
	for _, item := range all {
		got = append(got, item.ID)
	}
	assert.Equal(t, []string{"r2", "8", "r1", "7", "r3"}, got, "date desc, reports before weekly on ties")
	assert.Equal(t, "finance", all[1].Agent)
	assert.Equal(t, SourceWeekly, all[1].Source)

	qq := MergeTimeline(summaries, weekly, "qq")
	require.Len(t, qq, 3)
	for _, item := range qq {
		assert.Equal(t, "qq", item.Agent)
	}

	assert.Len(t, MergeTimeline(summaries, weekly, ""), 5)
}

func TestBuildTimeline_Buckets(t *testing.T) {
	now := time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC)
	summaries := []Summary{
		{ReportID: "today", Date: "2026-02-23"},
		{ReportID: "yesterday", Date: "2026-02-22"},
		{ReportID: "three", Date: "2026-02-20"},
		{ReportID: "old", Date: "2026-01-01"},
	}

	groups := BuildTimeline(summaries, nil, AllAgents, now, time.UTC)
	require.Len(t, groups, 4)
	assert.Equal(t, "Today", groups[0].Label)
	assert.Equal(t, "Yesterday", groups[1].Label)
	assert.Equal(t, "3d ago", groups[2].Label)
	assert.Equal(t, "2026-01-01", groups[3].Label)

	assert.NotNil(t, BuildTimeline(nil, nil, AllAgents, now, time.UTC))
}
