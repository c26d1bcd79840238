package api

import (
	"net/http"
	"testing"

	"github.com/terraincognita07/nutriwell/internal/models"
	"github.com/terraincognita07/nutriwell/internal/services"
)

func readCounter(t *testing.T, body []byte) services.CounterSnapshot {
	t.Helper()
	snapshot := services.CounterSnapshot{}
	decodeJSON(t, body, &snapshot)
	return snapshot
}

func TestWaterCounterIncrementAndDecrement(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodGet, "/api/counters/water", token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", response.StatusCode, body)
	}
	initial := readCounter(t, body)
	if initial.Consumed != 0 || initial.Target != 2000 || initial.Step != services.DefaultWaterPortionML {
		t.Fatalf("unexpected initial water counter: %+v", initial)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/water/increment", token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected increment status 200, got %d: %s", response.StatusCode, body)
	}
	if snapshot := readCounter(t, body); snapshot.Consumed != 200 || snapshot.Remaining != 1800 {
		t.Fatalf("expected 200 consumed and 1800 remaining, got %+v", snapshot)
	}

	for range 2 {
		response, body = env.do(t, http.MethodPost, "/api/counters/water/decrement", token, nil)
		if response.StatusCode != http.StatusOK {
			t.Fatalf("expected decrement status 200, got %d: %s", response.StatusCode, body)
		}
	}
	if snapshot := readCounter(t, body); snapshot.Consumed != 0 {
		t.Fatalf("expected decrement to floor at zero, got %d", snapshot.Consumed)
	}
}

func TestCounterAddAndTarget(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/counters/calories/add", token, map[string]int{"amount": 650})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected add status 200, got %d: %s", response.StatusCode, body)
	}
	if snapshot := readCounter(t, body); snapshot.Consumed != 650 {
		t.Fatalf("expected 650 calories, got %d", snapshot.Consumed)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/calories/add", token, map[string]int{"amount": 0})
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "invalid amount" {
		t.Fatalf("expected invalid amount, got %d: %s", response.StatusCode, body)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/calories/add", token, `{"amount": 9223372036854775807}`)
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "invalid amount" {
		t.Fatalf("expected oversized amount rejected, got %d: %s", response.StatusCode, body)
	}
	_, body = env.do(t, http.MethodGet, "/api/counters/calories", token, nil)
	if snapshot := readCounter(t, body); snapshot.Consumed != 650 {
		t.Fatalf("expected 650 calories kept after rejected amount, got %d", snapshot.Consumed)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/calories/target", token, map[string]int{"target": 500})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected target status 200, got %d: %s", response.StatusCode, body)
	}
	snapshot := readCounter(t, body)
	if snapshot.Target != 500 || !snapshot.Exceeded || snapshot.Remaining != 0 {
		t.Fatalf("expected exceeded counter with target 500, got %+v", snapshot)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/calories/target", token, map[string]int{"target": 0})
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "invalid target" {
		t.Fatalf("expected invalid target, got %d: %s", response.StatusCode, body)
	}
}

func TestCounterUnknownMetric(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/counters/coffee/increment", token, nil)
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", response.StatusCode)
	}
	if message := readAPIError(t, body); message != "unknown metric" {
		t.Fatalf("unexpected error %q", message)
	}
}

func TestCounterHistoryTracksToday(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	env.do(t, http.MethodPost, "/api/counters/meals/increment", token, nil)
	env.do(t, http.MethodPost, "/api/counters/meals/increment", token, nil)

	response, body := env.do(t, http.MethodGet, "/api/counters/meals/history", token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", response.StatusCode, body)
	}
	payload := struct {
		Metric  string                  `json:"metric"`
		History []models.CounterHistory `json:"history"`
	}{}
	decodeJSON(t, body, &payload)
	if payload.Metric != models.MetricMeals {
		t.Fatalf("expected meals metric, got %q", payload.Metric)
	}
	if len(payload.History) != 1 {
		t.Fatalf("expected one history entry, got %+v", payload.History)
	}
	if payload.History[0].ConsumedValue != 2 || payload.History[0].Date != env.handler.counters.Today() {
		t.Fatalf("unexpected history entry %+v", payload.History[0])
	}
}

func TestRecalculateWaterTarget(t *testing.T) {
	env := newTestApp(t)
	token := env.register(t, "user@example.com")

	response, body := env.do(t, http.MethodPost, "/api/counters/water/recalculate", token, map[string]float64{"weightKg": 95})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", response.StatusCode, body)
	}
	if snapshot := readCounter(t, body); snapshot.Target != 3200 {
		t.Fatalf("expected target 3200 for 95 kg, got %d", snapshot.Target)
	}

	response, body = env.do(t, http.MethodPost, "/api/counters/water/recalculate", token, nil)
	if response.StatusCode != http.StatusBadRequest || readAPIError(t, body) != "invalid weight" {
		t.Fatalf("expected invalid weight without profile weight, got %d: %s", response.StatusCode, body)
	}

	response, body = env.do(t, http.MethodPatch, "/api/profile", token, map[string]float64{"weightKg": 60})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected profile update status 200, got %d: %s", response.StatusCode, body)
	}
	response, body = env.do(t, http.MethodPost, "/api/counters/water/recalculate", token, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", response.StatusCode, body)
	}
	if snapshot := readCounter(t, body); snapshot.Target != 2000 {
		t.Fatalf("expected target 2000 for 60 kg, got %d", snapshot.Target)
	}
}
