package http_server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danthegoodman1/tabled/provisioner"
	"github.com/danthegoodman1/tabled/schema"
	"github.com/danthegoodman1/tabled/sqlite"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "http-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewHTTPServer(provisioner.New(db, provisioner.Config{AcquireTimeout: time.Second}))
}

func postJSON(s *HTTPServer, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func do(s *HTTPServer, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("expected OK, got %q", rec.Body.String())
	}
}

func TestCreateTableEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/tables", `{"name":"people","columns":[{"name":"age","type":"integer","not_null":true}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var created schema.Table
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Name != "people" {
		t.Errorf("name = %q", created.Name)
	}
	wantCols := []string{"id", "age", "created_at", "updated_at"}
	if len(created.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %d", len(wantCols), len(created.Columns))
	}
	for i, want := range wantCols {
		if created.Columns[i].Name != want {
			t.Errorf("column %d = %q, want %q", i, created.Columns[i].Name, want)
		}
	}
	id := created.Columns[0]
	if !id.PrimaryKey || !id.AutoIncrement || !id.Unique || !id.NotNull || id.Type != schema.TypeInteger {
		t.Errorf("unexpected id column: %+v", id)
	}
	if created.Columns[3].Default != "CURRENT_TIMESTAMP" {
		t.Errorf("updated_at default = %q", created.Columns[3].Default)
	}
}

func TestCreateTableEndpointMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/tables", `{"name": "people", "columns": [`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTableEndpointRejectsBadType(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/tables", `{"name":"people","columns":[{"name":"age","type":"varchar"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTableEndpointRejectsBadIdentifier(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/tables", `{"name":"people; drop table users","columns":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTableEndpointRejectsReservedColumn(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(s, "/tables", `{"name":"people","columns":[{"name":"id","type":"integer"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "reserved") {
		t.Errorf("body should name the reserved collision: %s", rec.Body.String())
	}
}

func TestCreateTableEndpointDuplicate(t *testing.T) {
	s := newTestServer(t)
	body := `{"name":"people","columns":[{"name":"age","type":"integer"}]}`
	if rec := postJSON(s, "/tables", body); rec.Code != http.StatusOK {
		t.Fatalf("first create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := postJSON(s, "/tables", body)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("second create: expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "already exists") {
		t.Errorf("body should carry the engine message: %s", rec.Body.String())
	}
}

func TestDropTableEndpoint(t *testing.T) {
	s := newTestServer(t)
	if rec := postJSON(s, "/tables", `{"name":"people","columns":[]}`); rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := do(s, http.MethodDelete, "/tables/people")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp DropTableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Ok {
		t.Error("expected ok: true")
	}

	rec = do(s, http.MethodGet, "/tables")
	var tables []string
	if err := json.Unmarshal(rec.Body.Bytes(), &tables); err != nil {
		t.Fatal(err)
	}
	if len(tables) != 0 {
		t.Errorf("expected no tables after drop, got %v", tables)
	}
}

func TestDropTableEndpointMissing(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodDelete, "/tables/never_created")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "no such table") {
		t.Errorf("body should carry the engine message: %s", rec.Body.String())
	}
}

func TestGetTableColumnsEndpoint(t *testing.T) {
	s := newTestServer(t)
	if rec := postJSON(s, "/tables", `{"name":"people","columns":[{"name":"age","type":"integer","not_null":true}]}`); rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := do(s, http.MethodGet, "/tables/people/columns")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cols []provisioner.ColumnInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &cols); err != nil {
		t.Fatal(err)
	}
	if len(cols) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(cols))
	}
	if cols[1].Name != "age" || cols[1].Type != "INTEGER" || !cols[1].NotNull {
		t.Errorf("unexpected age column: %+v", cols[1])
	}

	rec = do(s, http.MethodGet, "/tables/never_created/columns")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing table, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListTablesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, http.MethodGet, "/tables")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Must encode as [] rather than null when nothing is provisioned.
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}

	for _, name := range []string{"alpha", "beta"} {
		if rec := postJSON(s, "/tables", `{"name":"`+name+`","columns":[]}`); rec.Code != http.StatusOK {
			t.Fatalf("create %s: got %d: %s", name, rec.Code, rec.Body.String())
		}
	}

	rec = do(s, http.MethodGet, "/tables")
	var tables []string
	if err := json.Unmarshal(rec.Body.Bytes(), &tables); err != nil {
		t.Fatal(err)
	}
	if len(tables) != 2 || tables[0] != "alpha" || tables[1] != "beta" {
		t.Errorf("unexpected table list: %v", tables)
	}
}
