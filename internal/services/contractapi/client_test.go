package contractapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custid/internal/customer"
	"custid/internal/services"
	"custid/internal/services/contractapi"
)

func tenantQuery(uid string) customer.Query {
	return customer.Query{Kind: customer.KindNumeric, Value: uid}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := contractapi.New("  "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestLookupSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/contracts/99" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "agent" || pass != "secret" {
			t.Fatalf("missing basic auth: %q %q %v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plan_name":"Mid","payment_method":"credit card","status":"active"}`))
	}))
	defer server.Close()

	client, err := contractapi.New(server.URL+"/", contractapi.WithBasicAuth("agent", "secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	partial, err := client.Lookup(context.Background(), tenantQuery("99"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial.PlanName != "Mid" || partial.PaymentMethod != "credit card" || partial.ContractStatus != "active" {
		t.Fatalf("unexpected partial %+v", partial)
	}
	if partial.TenantUID != "99" {
		t.Fatalf("tenant uid = %q", partial.TenantUID)
	}
}

func TestLookupMissingFieldsBecomeUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plan_name":"Web"}`))
	}))
	defer server.Close()

	client, _ := contractapi.New(server.URL)
	partial, err := client.Lookup(context.Background(), tenantQuery("1"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if partial.PlanName != "Web" || partial.PaymentMethod != customer.PlaceholderUnknown || partial.ContractStatus != customer.PlaceholderUnknown {
		t.Fatalf("unexpected partial %+v", partial)
	}
}

func TestLookupDegradedResponses(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "bad payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>login</html>`))
			},
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client, _ := contractapi.New(server.URL)
			partial, err := client.Lookup(context.Background(), tenantQuery("1"))
			if !errors.Is(err, services.ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
			if partial == nil || partial.PlanName != customer.PlaceholderToConfirm ||
				partial.PaymentMethod != customer.PlaceholderToConfirm ||
				partial.ContractStatus != customer.PlaceholderToConfirm {
				t.Fatalf("expected to-confirm placeholders, got %+v", partial)
			}
		})
	}
}

func TestLookupTransportErrorDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, _ := contractapi.New(url)
	partial, err := client.Lookup(context.Background(), tenantQuery("1"))
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if partial == nil || partial.PlanName != customer.PlaceholderToConfirm {
		t.Fatalf("expected to-confirm placeholder, got %+v", partial)
	}
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := contractapi.New(server.URL, contractapi.WithTimeout(50*time.Millisecond))
	start := time.Now()
	partial, err := client.Lookup(context.Background(), tenantQuery("1"))
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("lookup blocked for %v", elapsed)
	}
	if !errors.Is(err, services.ErrUnavailable) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected unavailable timeout, got %v", err)
	}
	if partial == nil || partial.PlanName != customer.PlaceholderTimeout ||
		partial.PaymentMethod != customer.PlaceholderTimeout ||
		partial.ContractStatus != customer.PlaceholderTimeout {
		t.Fatalf("expected timeout placeholders, got %+v", partial)
	}
}

func TestLookupRequiresTenant(t *testing.T) {
	client, _ := contractapi.New("http://127.0.0.1:1")
	partial, err := client.Lookup(context.Background(), customer.Query{Kind: customer.KindText})
	if partial != nil || !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected nil partial and ErrUnavailable, got %+v %v", partial, err)
	}
	if client.Requires() != customer.FieldTenantUID {
		t.Fatalf("Requires = %q", client.Requires())
	}
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithHTTPClientIsUsed(t *testing.T) {
	called := false
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return nil, errors.New("boom")
	})
	client, _ := contractapi.New("http://contracts.invalid", contractapi.WithHTTPClient(doer))
	if _, err := client.Lookup(context.Background(), tenantQuery("5")); err == nil {
		t.Fatal("expected error")
	}
	if !called {
		t.Fatal("custom doer not used")
	}
}
