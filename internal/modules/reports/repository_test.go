package reports

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/events"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db := testutil.NewDashboardDB(t)
	log := testutil.NopLogger()
	return NewRepository(db.Conn(), events.NewManager(events.NewBus(), log), log)
}

func report(id, agent, reportType, date string) *Report {
	return &Report{
		ReportID:    id,
		Agent:       agent,
		ReportType:  reportType,
		Date:        date,
		Title:       id,
		Summary:     "summary " + id,
		Content:     "content " + id,
		DeliveredTo: []string{"telegram"},
	}
}

func TestUpsertReport_ReplacesAndStampsCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	repo.now = func() time.Time { return time.UnixMilli(1000) }
	require.NoError(t, repo.UpsertReport(report("r1", "qq", "daily", "2026-02-20")))

	repo.now = func() time.Time { return time.UnixMilli(2000) }
	updated := report("r1", "qq", "daily", "2026-02-21")
	updated.Metrics = json.RawMessage(`{"pnl": 12.5}`)
	require.NoError(t, repo.UpsertReport(updated))

	got, err := repo.GetReport("r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-02-21", got.Date)
	assert.Equal(t, int64(2000), got.CreatedAt)
	assert.JSONEq(t, `{"pnl": 12.5}`, string(got.Metrics))
	assert.Equal(t, []string{"telegram"}, got.DeliveredTo)

	missing, err := repo.GetReport("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListReports_Filters(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertReport(report("a", "qq", "daily", "2026-02-18")))
	require.NoError(t, repo.UpsertReport(report("b", "qq", "weekly-report", "2026-02-20")))
	withMetrics := report("c", "coach", "daily", "2026-02-19")
	withMetrics.Metrics = json.RawMessage(`{"hrv": 60}`)
	require.NoError(t, repo.UpsertReport(withMetrics))
	nullMetrics := report("d", "chef", "daily", "2026-02-17")
	nullMetrics.Metrics = json.RawMessage(`null`)
	require.NoError(t, repo.UpsertReport(nullMetrics))

	all, err := repo.ListReports("", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(all))
	assert.True(t, all[1].HasMetrics)
	assert.False(t, all[3].HasMetrics, "null metrics do not count")

	byAgent, err := repo.ListReports("qq", "daily", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(byAgent), "agent takes precedence over type")

	byType, err := repo.ListReports("", "daily", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(byType))
}

func ids(list []Summary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ReportID)
	}
	return out
}

func TestWeekly_UpsertListGet(t *testing.T) {
	repo := newTestRepo(t)

	first := &WeeklyReport{Domain: "coach", ReportDate: "2026-02-15", Title: "Week 7"}
	require.NoError(t, repo.UpsertWeekly(first))
	require.NotZero(t, first.ID)

	again := &WeeklyReport{Domain: "coach", ReportDate: "2026-02-15", Title: "Week 7 (rev)"}
	require.NoError(t, repo.UpsertWeekly(again))
	assert.Equal(t, first.ID, again.ID, "same (domain, date) updates in place")

	require.NoError(t, repo.UpsertWeekly(&WeeklyReport{Domain: "qq", ReportDate: "2026-02-22", Title: "Week 8"}))

	all, err := repo.ListWeekly("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "qq", all[0].Domain)

	coach, err := repo.ListWeekly("coach")
	require.NoError(t, err)
	require.Len(t, coach, 1)
	assert.Equal(t, "Week 7 (rev)", coach[0].Title)

	got, err := repo.GetWeekly(first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "coach", got.Domain)

	missing, err := repo.GetWeekly(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMigratedReport(t *testing.T) {
	long := strings.Repeat("é", 600)
	rep := MigratedReport(WeeklyReport{Domain: "marco", ReportDate: "2026-02-15", Title: "Italian", Summary: &long})

	assert.Equal(t, "marco-weekly-report-2026-02-15", rep.ReportID)
	assert.Equal(t, WeeklyReportType, rep.ReportType)
	assert.Equal(t, 500, len([]rune(rep.Summary)))
	assert.Equal(t, "No content available", rep.Content)
	assert.Equal(t, []string{"mission-control"}, rep.DeliveredTo)

	empty := ""
	rep = MigratedReport(WeeklyReport{Domain: "finance", ReportDate: "2026-02-15", Title: "T", Summary: &empty})
	assert.Equal(t, "finance", rep.Agent, "unknown domains pass through")
	assert.Equal(t, "Weekly report", rep.Summary)
}

func TestMigrateWeekly_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	content := "full text"
	require.NoError(t, repo.UpsertWeekly(&WeeklyReport{Domain: "coach", ReportDate: "2026-02-15", Title: "W7", Content: &content}))
	require.NoError(t, repo.UpsertWeekly(&WeeklyReport{Domain: "chef", ReportDate: "2026-02-15", Title: "W7"}))

	n, err := repo.MigrateWeekly()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.MigrateWeekly()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.ListReports("", WeeklyReportType, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetReport("coach-weekly-report-2026-02-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "full text", got.Content)
	assert.Equal(t, []string{"mission-control"}, got.DeliveredTo)
}

func TestValidate(t *testing.T) {
	assert.Error(t, (&Report{}).Validate())
	bad := report("x", "qq", "daily", "20-02-2026")
	assert.Error(t, bad.Validate())
	badMetrics := report("x", "qq", "daily", "2026-02-20")
	badMetrics.Metrics = json.RawMessage(`{`)
	assert.Error(t, badMetrics.Validate())

	assert.Error(t, (&WeeklyReport{Domain: "qq", ReportDate: "2026-02-20"}).Validate())
	assert.NoError(t, (&WeeklyReport{Domain: "qq", ReportDate: "2026-02-20", Title: "t"}).Validate())
}
