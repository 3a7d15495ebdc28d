package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"paystream/internal/app/server"
	"paystream/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func testConfig(t *testing.T, driver string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		LogLevel:           "error",
		DBDriver:           driver,
		SQLitePath:         filepath.Join(dir, "paystream.db"),
		RunSeed:            true,
		PayslipDir:         filepath.Join(dir, "payslips"),
		CurrencyLabel:      "Rs.",
		MaxBodyBytes:       1 << 20,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		MetricsEnabled:     true,
		IdempotencyTTL:     time.Hour,
		ShutdownTimeout:    time.Second,
	}
}

func startApp(t *testing.T, cfg config.Config) (*server.App, *httptest.Server) {
	t.Helper()
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return app, ts
}

func TestPayrollJourney(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			app, ts := startApp(t, testConfig(t, driver))
			client := ts.Client()

			var employees []map[string]any
			getJSON(t, client, ts.URL+"/api/v1/employees", &employees)
			if len(employees) != 3 {
				t.Fatalf("expected 3 seeded employees, got %d", len(employees))
			}

			var created map[string]any
			postJSON(t, client, ts.URL+"/api/v1/employees", map[string]any{
				"firstName":  "Rachel",
				"lastName":   "Zane",
				"email":      "rachel@company.com",
				"department": "Legal",
				"position":   "Associate",
				"baseSalary": 95000,
				"allowances": 5000,
			}, nil, http.StatusCreated, &created)
			employeeID, _ := created["id"].(string)
			if employeeID == "" {
				t.Fatalf("expected employee id, got %v", created)
			}

			postJSON(t, client, ts.URL+"/api/v1/advances", map[string]any{
				"employeeId": employeeID,
				"amount":     10000,
				"reason":     "Relocation",
			}, nil, http.StatusCreated, nil)
			postJSON(t, client, ts.URL+"/api/v1/bonuses", map[string]any{
				"employeeId": employeeID,
				"amount":     2500,
			}, nil, http.StatusCreated, nil)

			var preview struct {
				Drafts []struct {
					EmployeeID string          `json:"employeeId"`
					NetPay     json.RawMessage `json:"netPay"`
				} `json:"drafts"`
			}
			getJSON(t, client, ts.URL+"/api/v1/payroll/preview?month=December&year=2024&q=rachel", &preview)
			if len(preview.Drafts) != 1 || preview.Drafts[0].EmployeeID != employeeID {
				t.Fatalf("expected one draft for the new hire, got %+v", preview.Drafts)
			}
			if string(preview.Drafts[0].NetPay) != "92500" {
				t.Fatalf("expected net pay 92500, got %s", preview.Drafts[0].NetPay)
			}

			var commit struct {
				Committed int `json:"committed"`
			}
			postJSON(t, client, ts.URL+"/api/v1/payroll/commit", map[string]any{
				"month": "December",
				"year":  2024,
			}, map[string]string{"Idempotency-Key": "journey-dec"}, http.StatusOK, &commit)
			if commit.Committed != 4 {
				t.Fatalf("expected 4 records committed, got %d", commit.Committed)
			}

			var emp map[string]any
			getJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID, &emp)
			if emp["salaryAdvance"] != float64(0) || emp["gifts"] != float64(0) {
				t.Fatalf("expected accumulators reset after commit, got advance=%v gifts=%v", emp["salaryAdvance"], emp["gifts"])
			}

			app.Jobs.Wait()
			resp, err := client.Get(ts.URL + "/api/v1/employees/" + employeeID + "/payslip?month=December&year=2024&format=pdf")
			if err != nil {
				t.Fatalf("payslip request failed: %v", err)
			}
			pdf, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(pdf, []byte("%PDF")) {
				t.Fatalf("expected archived pdf, got %d", resp.StatusCode)
			}

			resp, err = client.Get(ts.URL + "/api/v1/payroll/history/export")
			if err != nil {
				t.Fatalf("export request failed: %v", err)
			}
			csvBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if lines := strings.Count(strings.TrimSpace(string(csvBody)), "\n"); lines != 6 {
				t.Fatalf("expected header plus 6 register rows, got %d line breaks", lines)
			}

			var dashboard map[string]any
			getJSON(t, client, ts.URL+"/api/v1/dashboard", &dashboard)
			if dashboard["totalEmployees"] != float64(4) {
				t.Fatalf("expected 4 employees on dashboard, got %v", dashboard["totalEmployees"])
			}
		})
	}
}

func TestSQLiteStatePersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t, config.DriverSQLite)

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	postJSON(t, ts.Client(), ts.URL+"/api/v1/settings/departments", map[string]any{"name": "Procurement"}, nil, http.StatusOK, nil)
	ts.Close()
	app.Close()

	_, ts2 := startApp(t, cfg)
	var got struct {
		Departments []string `json:"departments"`
	}
	getJSON(t, ts2.Client(), ts2.URL+"/api/v1/settings", &got)
	found := false
	for _, d := range got.Departments {
		found = found || d == "Procurement"
	}
	if !found {
		t.Fatalf("expected saved department after restart, got %v", got.Departments)
	}
}

func TestConcurrentCommitsPayEachEmployeeOnce(t *testing.T) {
	app, ts := startApp(t, testConfig(t, config.DriverMemory))
	client := ts.Client()

	var wg sync.WaitGroup
	statuses := make(chan int, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, _ := json.Marshal(map[string]any{"month": "January", "year": 2025})
			resp, err := client.Post(ts.URL+"/api/v1/payroll/commit", "application/json", bytes.NewReader(raw))
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	for status := range statuses {
		if status != http.StatusOK && status != http.StatusConflict {
			t.Fatalf("expected 200 or 409 from concurrent commits, got %d", status)
		}
	}
	paid := 0
	for _, rec := range app.Controller.History() {
		if rec.Month == "January" && rec.Year == 2025 {
			paid++
		}
	}
	if paid != 3 {
		t.Fatalf("expected each of 3 employees paid once, got %d records", paid)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	_, ts := startApp(t, testConfig(t, config.DriverMemory))
	client := ts.Client()

	for path, want := range map[string]int{
		"/healthz":            http.StatusOK,
		"/readyz":             http.StatusOK,
		"/metrics":            http.StatusOK,
		"/api/v1/nope":        http.StatusNotFound,
		"/api/v1/settings/xx": http.StatusNotFound,
	} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("%s: request failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}

	resp, err := client.Post(ts.URL+"/api/v1/payroll/commit", "application/json", strings.NewReader(`{"month":"December","year":2024}`))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	resp.Body.Close()

	var snapshot map[string]any
	resp, err = client.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snapshot["payrollCommitsTotal"] != float64(1) {
		t.Fatalf("expected one commit counted, got %v", snapshot["payrollCommitsTotal"])
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body any, headers map[string]string, want int, out any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	decodeEnvelope(t, resp, want, out)
}

func getJSON(t *testing.T, client *http.Client, url string, out any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	decodeEnvelope(t, resp, http.StatusOK, out)
}

func decodeEnvelope(t *testing.T, resp *http.Response, want int, out any) {
	t.Helper()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, string(data))
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}
