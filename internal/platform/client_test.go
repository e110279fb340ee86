package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerTokenSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := NewClient(Config{SessionsURL: srv.URL, Token: "tok123"}, nil)
	if _, err := c.ListSessions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}

func TestChatMessagesPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/main/123@c.us/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q, want 2", got)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"messageId": "m2", "messageBody": "two", "timestamp": 2000},
				{"messageId": "m1", "messageBody": "one", "timestamp": 1000},
			},
			"pagination": map[string]any{
				"currentPage": 2, "totalItems": 7, "hasNextPage": false,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{SessionsURL: srv.URL}, nil)
	page, err := c.ChatMessages(context.Background(), "main", "123@c.us", 2, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(page.Messages))
	}
	if page.Messages[0].MessageID != "m2" {
		t.Errorf("first message = %q, want m2 (server order preserved)", page.Messages[0].MessageID)
	}
	if page.Pagination.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if page.Pagination.TotalItems != 7 {
		t.Errorf("TotalItems = %d, want 7", page.Pagination.TotalItems)
	}
}

func TestServerRejectionBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "session not found"})
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL}, nil)
	_, err := c.SessionQR(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for success=false response")
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{SessionsURL: srv.URL}, nil)
	if _, err := c.RealtimeStats(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["phoneNumber"] != "5511999999999" || body["message"] != "hello" {
			t.Errorf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"messageId": "srv-1"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL}, nil)
	id, err := c.SendMessage(context.Background(), "main", "5511999999999", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id != "srv-1" {
		t.Errorf("message id = %q, want srv-1", id)
	}
}

func TestUnixMSFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"rfc3339", `"2025-06-01T12:00:00Z"`, 1748779200000},
		{"epoch seconds", `1748779200`, 1748779200000},
		{"epoch millis", `1748779200000`, 1748779200000},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u UnixMS
			if err := json.Unmarshal([]byte(tt.in), &u); err != nil {
				t.Fatal(err)
			}
			if int64(u) != tt.want {
				t.Errorf("got %d, want %d", int64(u), tt.want)
			}
		})
	}
}

func TestStatusRankOrdering(t *testing.T) {
	order := []string{StatusPending, StatusSent, StatusDelivered, StatusRead, StatusPlayed}
	for i := 1; i < len(order); i++ {
		if StatusRank(order[i]) <= StatusRank(order[i-1]) {
			t.Errorf("rank(%s) should exceed rank(%s)", order[i], order[i-1])
		}
	}
	if StatusRank("banana") != 0 {
		t.Errorf("unknown status rank = %d, want 0", StatusRank("banana"))
	}
}
