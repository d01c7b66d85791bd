package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"swiftflow/api/internal/department"
)

func newTestServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	svc, fs := newTestService(t)
	server := httptest.NewServer(NewHTTPServer(svc, "*").Handler())
	t.Cleanup(server.Close)
	return server, fs
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, url, token string, target any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func loginAs(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()
	resp := postJSON(t, server.URL+"/api/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return payload.Token
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	var payload map[string]any
	if status := getJSON(t, server.URL+"/api/health", "", &payload); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if payload["ok"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)
	if status := getJSON(t, server.URL+"/api/orders", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	server, fs := newTestServer(t)
	seedUser(t, fs, "dana", department.Design)
	token := loginAs(t, server, "dana")

	resp := postJSON(t, server.URL+"/api/orders", token, map[string]string{
		"productDetails": "Laser-cut bracket",
		"material":       "SS304",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var created map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	orderID := int64(created["id"].(float64))

	selResp := postJSON(t, fmt.Sprintf("%s/api/orders/%d/three-checkbox-selection", server.URL, orderID), token, map[string]any{
		"designerSelectedRowIds": []string{"R1", "R2"},
		"pdfType":                "PDF1",
		"scope":                  "SUBNEST",
	})
	selResp.Body.Close()
	if selResp.StatusCode != http.StatusOK {
		t.Fatalf("selection status = %d", selResp.StatusCode)
	}

	var view SelectionView
	if status := getJSON(t, fmt.Sprintf("%s/api/orders/%d/three-checkbox-selection", server.URL, orderID), token, &view); status != http.StatusOK {
		t.Fatalf("view status = %d", status)
	}
	if len(view.DesignerSelectedRowIDs) != 2 {
		t.Fatalf("designer rows = %v", view.DesignerSelectedRowIDs)
	}
}

func TestMergeForbiddenForDesign(t *testing.T) {
	server, fs := newTestServer(t)
	seedUser(t, fs, "dana", department.Design)
	order := seedOrder(t, fs)
	token := loginAs(t, server, "dana")

	resp := postJSON(t, fmt.Sprintf("%s/api/orders/%d/machine-send-to-inspection", server.URL, order.ID), token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestRowConflictMapsTo409(t *testing.T) {
	server, fs := newTestServer(t)
	seedUser(t, fs, "dana", department.Design)
	producer := seedUser(t, fs, "paulo", department.Production)
	workerB := seedUser(t, fs, "wes", department.Production)
	order := seedOrder(t, fs)

	designToken := loginAs(t, server, "dana")
	prodToken := loginAs(t, server, "paulo")

	baseResp := postJSON(t, fmt.Sprintf("%s/api/orders/%d/checkbox-base", server.URL, order.ID), designToken, map[string]any{
		"pdfType":        "PDF1",
		"scope":          "SUBNEST",
		"selectedRowIds": []string{"R1"},
	})
	baseResp.Body.Close()
	if baseResp.StatusCode != http.StatusOK {
		t.Fatalf("base status = %d", baseResp.StatusCode)
	}

	first := postJSON(t, fmt.Sprintf("%s/api/orders/%d/checkbox-assignments", server.URL, order.ID), prodToken, map[string]any{
		"pdfType": "PDF1",
		"scope":   "SUBNEST",
		"assignments": []map[string]any{
			{"userId": producer.ID, "rowKeys": []string{"R1"}},
		},
	})
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first assign status = %d", first.StatusCode)
	}

	second := postJSON(t, fmt.Sprintf("%s/api/orders/%d/checkbox-assignments", server.URL, order.ID), prodToken, map[string]any{
		"pdfType": "PDF1",
		"scope":   "SUBNEST",
		"assignments": []map[string]any{
			{"userId": workerB.ID, "rowKeys": []string{"R1"}},
		},
	})
	defer second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("second assign status = %d, want 409", second.StatusCode)
	}
}

func TestMyRowsCarryDesignerBase(t *testing.T) {
	server, fs := newTestServer(t)
	seedUser(t, fs, "dana", department.Design)
	seedUser(t, fs, "paulo", department.Production)
	worker := seedUser(t, fs, "wanda", department.Production)
	order := seedOrder(t, fs)

	designToken := loginAs(t, server, "dana")
	prodToken := loginAs(t, server, "paulo")
	workerToken := loginAs(t, server, "wanda")

	baseResp := postJSON(t, fmt.Sprintf("%s/api/orders/%d/checkbox-base", server.URL, order.ID), designToken, map[string]any{
		"pdfType":        "PDF1",
		"scope":          "SUBNEST",
		"selectedRowIds": []string{"R1", "R2", "R3"},
	})
	baseResp.Body.Close()
	if baseResp.StatusCode != http.StatusOK {
		t.Fatalf("base status = %d", baseResp.StatusCode)
	}

	assignResp := postJSON(t, fmt.Sprintf("%s/api/orders/%d/checkbox-assignments", server.URL, order.ID), prodToken, map[string]any{
		"pdfType": "PDF1",
		"scope":   "SUBNEST",
		"assignments": []map[string]any{
			{"userId": worker.ID, "rowKeys": []string{"R1"}},
		},
	})
	assignResp.Body.Close()
	if assignResp.StatusCode != http.StatusOK {
		t.Fatalf("assign status = %d", assignResp.StatusCode)
	}

	var mine struct {
		DesignerBaseRowKeys []string `json:"designerBaseRowKeys"`
		MyAssignedRowKeys   []string `json:"myAssignedRowKeys"`
	}
	url := fmt.Sprintf("%s/api/orders/%d/checkbox-my?pdfType=PDF1&scope=SUBNEST", server.URL, order.ID)
	if status := getJSON(t, url, workerToken, &mine); status != http.StatusOK {
		t.Fatalf("my rows status = %d", status)
	}
	if len(mine.DesignerBaseRowKeys) != 3 {
		t.Fatalf("base keys = %v, want all three designer rows", mine.DesignerBaseRowKeys)
	}
	if len(mine.MyAssignedRowKeys) != 1 || mine.MyAssignedRowKeys[0] != "R1" {
		t.Fatalf("my keys = %v, want [R1]", mine.MyAssignedRowKeys)
	}
}
