//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"mtsync/internal/models"
)

func postSync(t *testing.T, ts *TestServer, body string) (*http.Response, models.SyncResponse) {
	t.Helper()

	resp, err := http.Post(ts.Server.URL+"/api/v1/account/sync", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("sync request failed: %v", err)
	}
	defer resp.Body.Close()

	var envelope models.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return resp, envelope
}

func TestSyncFlow_Success(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	ts.Bridge.deals = profitableDealFixture()
	ts.expectAllocate("T1", `C:\MQ45\Terminals\T1\terminal64.exe`)
	ts.expectRelease()

	resp, envelope := postSync(t, ts, `{"login":5001234,"password":"secret","server":"MetaQuotes-Demo"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !envelope.Status {
		t.Fatalf("expected success, got %q", envelope.Message)
	}
	if envelope.Data == nil {
		t.Fatal("expected snapshot in envelope")
	}

	snapshot := envelope.Data
	if snapshot.Login != 5001234 {
		t.Errorf("expected login 5001234, got %d", snapshot.Login)
	}
	if snapshot.Deposits != 1000 {
		t.Errorf("expected deposits 1000, got %f", snapshot.Deposits)
	}
	if snapshot.Trades != 1 || snapshot.WonTrades != 1 {
		t.Errorf("expected 1 won trade, got trades=%d won=%d", snapshot.Trades, snapshot.WonTrades)
	}
	if len(snapshot.ClosedTrades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(snapshot.ClosedTrades))
	}
	trade := snapshot.ClosedTrades[0]
	if trade.Direction != "BUY" {
		t.Errorf("expected direction BUY, got %q", trade.Direction)
	}
	// digits=5: (1.10500-1.10000) * 10^4 = 50 пунктов
	if trade.Pips != 50 {
		t.Errorf("expected 50 pips, got %f", trade.Pips)
	}
	// additive: starting=1000, balance=1050 -> прибыль 50, прирост 5%
	if snapshot.DerivedProfit != 50 {
		t.Errorf("expected derived profit 50, got %f", snapshot.DerivedProfit)
	}
	if snapshot.GainPercent != 5 {
		t.Errorf("expected gain 5%%, got %f", snapshot.GainPercent)
	}

	if ts.Bridge.shutdownCalls != 1 {
		t.Errorf("expected exactly one shutdown, got %d", ts.Bridge.shutdownCalls)
	}
	if err := ts.DBMock.ExpectationsWereMet(); err != nil {
		t.Errorf("terminal was not allocated and released exactly once: %v", err)
	}
}

func TestSyncFlow_AuthFailure(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	ts.Bridge.authFail = true
	ts.expectAllocate("T1", `C:\MQ45\Terminals\T1\terminal64.exe`)
	ts.expectRelease()

	resp, envelope := postSync(t, ts, `{"login":5001234,"password":"wrong","server":"MetaQuotes-Demo"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 even on domain failure, got %d", resp.StatusCode)
	}
	if envelope.Status {
		t.Fatal("expected failure envelope")
	}
	if envelope.Message != models.MsgInvalidCredentials {
		t.Errorf("expected message %q, got %q", models.MsgInvalidCredentials, envelope.Message)
	}

	// Инициализация повторяется до лимита, терминал возвращается в пул
	if ts.Bridge.initCalls != 3 {
		t.Errorf("expected 3 initialize attempts, got %d", ts.Bridge.initCalls)
	}
	if err := ts.DBMock.ExpectationsWereMet(); err != nil {
		t.Errorf("terminal must be released after failure: %v", err)
	}
}

func TestSyncFlow_NoFreeTerminals(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	// Пустой пул: UPDATE не возвращает строк
	ts.DBMock.ExpectQuery("UPDATE terminals").WillReturnRows(sqlmockEmptyTerminalRows())

	resp, envelope := postSync(t, ts, `{"login":5001234,"password":"secret","server":"MetaQuotes-Demo"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if envelope.Status || envelope.Message != models.MsgNoFreeTerminals {
		t.Errorf("expected no free terminals envelope, got %+v", envelope)
	}
	if ts.Bridge.initCalls != 0 {
		t.Errorf("bridge must not be touched without terminal, got %d init calls", ts.Bridge.initCalls)
	}
}

func TestSyncFlow_MalformedRequest(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	resp, envelope := postSync(t, ts, `{"login":0}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	if envelope.Status || envelope.Message != models.MsgInvalidRequest {
		t.Errorf("expected invalid request envelope, got %+v", envelope)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	rows := sqlmockCountRows(3)
	ts.DBMock.ExpectQuery("SELECT COUNT").WillReturnRows(rows)

	resp, err := http.Get(ts.Server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var health struct {
		Status        string `json:"status"`
		FreeTerminals *int   `json:"free_terminals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %q", health.Status)
	}
	if health.FreeTerminals == nil || *health.FreeTerminals != 3 {
		t.Errorf("expected 3 free terminals, got %v", health.FreeTerminals)
	}
}
