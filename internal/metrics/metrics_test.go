package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 200 {
		t.Fatalf("metrics: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestObserveOperationExposed(t *testing.T) {
	ObserveOperation("fetchAll", "rejected", 10*time.Millisecond)
	body := scrape(t)
	if !strings.Contains(body, `itinerary_operations_total{op="fetchAll",outcome="rejected"}`) {
		t.Fatalf("operation counter missing:\n%s", body)
	}
	if !strings.Contains(body, "itinerary_operation_duration_seconds_bucket") {
		t.Fatalf("operation histogram missing")
	}
}

func TestObserveHTTPStatusClass(t *testing.T) {
	ObserveHTTP("GET", "/itineraries", 404, time.Millisecond)
	body := scrape(t)
	if !strings.Contains(body, `http_requests_total{method="GET",path="/itineraries",status="4xx"}`) {
		t.Fatalf("http counter missing:\n%s", body)
	}
}
