package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
)

type apiStub struct {
	t *testing.T

	tokenKey     string
	logins       int
	creates      int
	rejectFirst  bool
	lastUsername string
	lastBearer   string
}

func (a *apiStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/login", func(w http.ResponseWriter, r *http.Request) {
		a.logins++
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			a.t.Fatalf("decoding login body: %v", err)
		}
		a.lastUsername = creds["username"]

		key := a.tokenKey
		if key == "" {
			key = "token"
		}
		json.NewEncoder(w).Encode(map[string]string{key: "jwt-abc"})
	})
	mux.HandleFunc("/events/music/createEvent", func(w http.ResponseWriter, r *http.Request) {
		a.creates++
		a.lastBearer = r.Header.Get("Authorization")

		if a.rejectFirst {
			a.rejectFirst = false
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 42})
	})
	return mux
}

func testClient(t *testing.T, stub *apiStub) *Client {
	t.Helper()
	stub.t = t
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	return New(Config{Username: "Poster", Password: "secret", BaseURL: srv.URL + "/"})
}

func testEvent(name string) event.Event {
	return event.Event{
		Name:      name,
		StartDate: "2025-04-01",
		StartTime: "18:00:00",
		EndDate:   "2025-04-01",
		EndTime:   "22:00:00",
		City:      "Pensacola",
		TagIDs:    []int{1},
	}
}

func TestPostEvent_LogsInAndPosts(t *testing.T) {
	stub := &apiStub{}
	c := testClient(t, stub)

	result := c.PostEvent(context.Background(), testEvent("Test Event"))
	if !result.Success {
		t.Fatalf("post failed: %s", result.Message)
	}

	if stub.logins != 1 {
		t.Errorf("logins = %d, want 1", stub.logins)
	}
	if stub.lastUsername != "poster" {
		t.Errorf("username = %q, want lowercased", stub.lastUsername)
	}
	if stub.lastBearer != "Bearer jwt-abc" {
		t.Errorf("authorization = %q", stub.lastBearer)
	}
}

func TestPostEvent_RetriesOnceOnUnauthorized(t *testing.T) {
	stub := &apiStub{rejectFirst: true}
	c := testClient(t, stub)

	result := c.PostEvent(context.Background(), testEvent("Test Event"))
	if !result.Success {
		t.Fatalf("post failed after retry: %s", result.Message)
	}
	if stub.logins != 2 {
		t.Errorf("logins = %d, want re-login after 401", stub.logins)
	}
	if stub.creates != 2 {
		t.Errorf("creates = %d, want 2", stub.creates)
	}
}

func TestPostEvent_ReusesFreshToken(t *testing.T) {
	stub := &apiStub{}
	c := testClient(t, stub)
	ctx := context.Background()

	c.PostEvent(ctx, testEvent("First"))
	c.PostEvent(ctx, testEvent("Second"))

	if stub.logins != 1 {
		t.Errorf("logins = %d, want token reuse", stub.logins)
	}
}

func TestPostEvent_RefreshesNearExpiry(t *testing.T) {
	stub := &apiStub{}
	c := testClient(t, stub)
	ctx := context.Background()

	c.PostEvent(ctx, testEvent("First"))

	// Jump the clock to inside the refresh buffer.
	c.now = func() time.Time { return time.Now().Add(tokenLifetime - time.Minute) }
	c.PostEvent(ctx, testEvent("Second"))

	if stub.logins != 2 {
		t.Errorf("logins = %d, want refresh near expiry", stub.logins)
	}
}

func TestLogin_AcceptsAlternateTokenKey(t *testing.T) {
	stub := &apiStub{tokenKey: "access"}
	c := testClient(t, stub)

	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
	if c.token != "jwt-abc" {
		t.Errorf("token = %q", c.token)
	}
}

func TestLogin_RejectsTokenlessResponse(t *testing.T) {
	stub := &apiStub{tokenKey: "mystery"}
	c := testClient(t, stub)

	if err := c.Login(context.Background()); err == nil {
		t.Fatal("expected error for unknown token key")
	}
}

func TestPostAll_Summary(t *testing.T) {
	stub := &apiStub{rejectFirst: true}
	c := testClient(t, stub)

	// First event eats the 401 and recovers; both should post.
	summary := c.PostAll(context.Background(), []event.Event{
		testEvent("First"),
		testEvent("Second"),
	}, 0)

	if !summary.Success || summary.Posted != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("results = %d", len(summary.Results))
	}
	if summary.Message != "posted 2/2 events successfully" {
		t.Errorf("message = %q", summary.Message)
	}
}

func TestPostAll_Empty(t *testing.T) {
	summary := New(Config{}).PostAll(context.Background(), nil, 0)
	if !summary.Success || summary.Total != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}
