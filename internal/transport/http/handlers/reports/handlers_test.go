package reportshandler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystream/internal/app/controller"
	"paystream/internal/domain/core"
	"paystream/internal/domain/reports"
	"paystream/internal/platform/jobs"
	"paystream/internal/storage/storagetest"
	"paystream/internal/transport/http/handlers/handlertest"
)

func TestDashboard(t *testing.T) {
	onLeave := storagetest.Employee("EMP002", "jane@example.com", 100000)
	onLeave.Status = core.StatusOnLeave
	c, _ := handlertest.Controller(t, controller.Options{},
		storagetest.Employee("EMP001", "john@example.com", 150000), onLeave)
	_, err := c.IssueAdvance(context.Background(), "EMP001", decimal.NewFromInt(20000), "")
	require.NoError(t, err)
	router := handlertest.Router(NewHandler(c, nil).RegisterRoutes)

	rec := handlertest.Do(t, router, http.MethodGet, "/api/v1/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary reports.Summary
	handlertest.Decode(t, rec, &summary)
	assert.Equal(t, 2, summary.TotalEmployees)
	assert.Equal(t, 1, summary.ActiveEmployees)
	assert.True(t, summary.AverageBaseSalary.Equal(decimal.NewFromInt(125000)))
	assert.True(t, summary.OutstandingAdvances.Equal(decimal.NewFromInt(20000)))
	require.Len(t, summary.CostByDepartment, 1)
	assert.Equal(t, "Engineering", summary.CostByDepartment[0].Name)
}

func TestReloadRecordsJobRun(t *testing.T) {
	c, store := handlertest.Controller(t, controller.Options{})
	service := jobs.New(10, nil)
	router := handlertest.Router(NewHandler(c, service).RegisterRoutes)

	require.NoError(t, store.CreateEmployee(context.Background(), storagetest.Employee("EMP009", "new@example.com", 1000)))
	assert.Empty(t, c.Employees(), "written behind the controller's back")

	rec := handlertest.Do(t, router, http.MethodPost, "/api/v1/jobs/reload", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var details map[string]int
	handlertest.Decode(t, rec, &details)
	assert.Equal(t, 1, details["employees"])
	assert.Len(t, c.Employees(), 1)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/jobs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []jobs.Run
	handlertest.Decode(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, jobs.JobRosterReload, runs[0].Type)
	assert.Equal(t, jobs.StatusCompleted, runs[0].Status)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/jobs?jobType="+jobs.JobPayslipArchive, nil, nil)
	handlertest.Decode(t, rec, &runs)
	assert.Empty(t, runs)

	rec = handlertest.Do(t, router, http.MethodGet, "/api/v1/jobs?status="+jobs.StatusCompleted+"&offset=1", nil, nil)
	handlertest.Decode(t, rec, &runs)
	assert.Empty(t, runs)
}

func TestJobsWithoutServiceIsEmpty(t *testing.T) {
	c, _ := handlertest.Controller(t, controller.Options{})
	router := handlertest.Router(NewHandler(c, nil).RegisterRoutes)

	rec := handlertest.Do(t, router, http.MethodGet, "/api/v1/jobs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []jobs.Run
	handlertest.Decode(t, rec, &runs)
	assert.Empty(t, runs)
}
