package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wayfarer/internal/api"
	"wayfarer/internal/config"
	"wayfarer/internal/store"
)

const tripYAML = `name: Lisbon
startDate: "2020-03-01"
endDate: "2020-03-04"
description: spring break
destinations:
  - id: lis
    name: Lisbon
    lat: 38.7223
    lng: -9.1393
  - id: por
    name: Porto
    lat: 41.1579
    lng: -8.6291
`

func newService(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.RateRPS = 0
	ts := httptest.NewServer(api.NewServer(cfg, store.NewMemory(), nil).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func tripctl(t *testing.T, base string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"-api", base, "-user", "4"}, args...), &out, &errOut)
	return out.String(), err
}

func TestCreateListRouteSummary(t *testing.T) {
	base := newService(t)
	path := filepath.Join(t.TempDir(), "trip.yaml")
	if err := os.WriteFile(path, []byte(tripYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := tripctl(t, base, "create", "-f", path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("create printed no id")
	}

	out, err = tripctl(t, base, "list")
	if err != nil || !strings.Contains(out, id) || !strings.Contains(out, "Lisbon") {
		t.Fatalf("list: %v\n%s", err, out)
	}

	out, err = tripctl(t, base, "route", id)
	if err != nil || !strings.Contains(out, "Lisbon -> Porto") || !strings.Contains(out, " km") {
		t.Fatalf("route: %v\n%s", err, out)
	}

	out, err = tripctl(t, base, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"Total trips:       1", "Completed trips:   1", "Total travel days: 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	if _, err := tripctl(t, base, "add-activity", id, "lis", "Landmark", "Belem", "Tower"); err != nil {
		t.Fatalf("add-activity: %v", err)
	}
	if _, err := tripctl(t, base, "add-activity", id, "lis", "museum", "x"); err == nil {
		t.Fatal("unknown activity type accepted")
	}
	if _, err := tripctl(t, base, "add-activity", id, "nowhere", "other", "x"); err == nil {
		t.Fatal("unknown destination accepted")
	}

	if _, err := tripctl(t, base, "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out, _ := tripctl(t, base, "list"); strings.Contains(out, id) {
		t.Fatalf("deleted itinerary still listed:\n%s", out)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	base := newService(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("name: Backwards\nstartDate: \"2020-03-04\"\nendDate: \"2020-03-01\"\n"), 0o600)
	if _, err := tripctl(t, base, "create", "-f", path); err == nil {
		t.Fatal("reversed dates accepted")
	}
}

func TestUsageErrors(t *testing.T) {
	base := newService(t)
	if _, err := tripctl(t, base); err != errUsage {
		t.Fatalf("no command: %v", err)
	}
	if _, err := tripctl(t, base, "frobnicate"); err == nil {
		t.Fatal("unknown command accepted")
	}
	if _, err := tripctl(t, base, "route"); err == nil {
		t.Fatal("route without id accepted")
	}
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-api", base, "list"}, &out, &out); err == nil {
		t.Fatal("list without user accepted")
	}
	if out, err := tripctl(t, base, "version"); err != nil || strings.TrimSpace(out) == "" {
		t.Fatalf("version: %q %v", out, err)
	}
}

func TestClientSettingsFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://trips.example:9000")
	t.Setenv("CLIENT_TIMEOUT", "4s")
	t.Setenv("CLIENT_RPS", "3")
	t.Setenv("CLIENT_BURST", "2")

	var stderr bytes.Buffer
	c, rest, err := parseGlobal([]string{"list"}, &stderr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rest) != 1 || rest[0] != "list" {
		t.Fatalf("rest = %v", rest)
	}
	if c.client.BaseURL != "http://trips.example:9000" || c.client.HTTP.Timeout != 4*time.Second {
		t.Fatalf("base=%q timeout=%v", c.client.BaseURL, c.client.HTTP.Timeout)
	}
	if c.client.Limiter == nil || c.client.Limiter.Limit() != 3 || c.client.Limiter.Burst() != 2 {
		t.Fatalf("limiter = %+v", c.client.Limiter)
	}

	c, _, err = parseGlobal([]string{"-rps", "0", "list"}, &stderr)
	if err != nil || c.client.Limiter != nil {
		t.Fatalf("-rps 0 should disable throttling: %v %+v", err, c.client.Limiter)
	}

	t.Setenv("CLIENT_RPS", "fast")
	if _, _, err := parseGlobal([]string{"list"}, &stderr); err == nil {
		t.Fatal("bad CLIENT_RPS accepted")
	}
}

func TestRateLimitSpacesRequests(t *testing.T) {
	base := newService(t)
	path := filepath.Join(t.TempDir(), "trip.yaml")
	_ = os.WriteFile(path, []byte(tripYAML), 0o600)
	out, err := tripctl(t, base, "create", "-f", path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := strings.TrimSpace(out)

	// add-activity makes three requests: get, list, update
	t.Setenv("CLIENT_BURST", "1")
	start := time.Now()
	if _, err := tripctl(t, base, "-rps", "10", "add-activity", id, "lis", "other", "Walk"); err != nil {
		t.Fatalf("add-activity: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("three requests at 10rps finished in %v", elapsed)
	}
}
