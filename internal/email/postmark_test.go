package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendResetCode(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	if err := client.SendResetCode("marie@example.com", "482913"); err != nil {
		t.Fatalf("send reset code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "marie@example.com" {
		t.Errorf("To = %q, want %q", received.To, "marie@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if !strings.Contains(received.TextBody, "482913") {
		t.Errorf("TextBody missing the code: %q", received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "482913") {
		t.Errorf("HtmlBody missing the code: %q", received.HtmlBody)
	}
}

func TestSendResetCodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.SendResetCode("marie@example.com", "000000"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestSendResetCodeNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")
	if err := client.SendResetCode("marie@example.com", "123456"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
