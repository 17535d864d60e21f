package processor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/config"
	"github.com/thorplatform/payout-service/internal/errs"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		ProcessorURL:     srv.URL,
		ProcessorKey:     "key",
		ProcessorSecret:  "secret",
		ProcessorTimeout: 2 * time.Second,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(cfg, logger), srv
}

func authHandler(t *testing.T, mux *http.ServeMux) *int {
	t.Helper()
	calls := 0
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<key>key</key>") {
			t.Errorf("auth request missing key: %s", body)
		}
		w.Write([]byte(`<?xml version="1.0"?>
			<authResponse>
				<token>tok-1</token>
				<expiresIn>3600</expiresIn>
			</authResponse>`))
	})
	return &calls
}

func TestAuthorizeCachesToken(t *testing.T) {
	mux := http.NewServeMux()
	calls := authHandler(t, mux)
	client, _ := newTestClient(t, mux)

	ctx := context.Background()
	if err := client.Authorize(ctx); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := client.Authorize(ctx); err != nil {
		t.Fatalf("second authorize: %v", err)
	}
	if *calls != 1 {
		t.Errorf("expected one auth call, got %d", *calls)
	}
}

func TestCreateFundingSource(t *testing.T) {
	mux := http.NewServeMux()
	authHandler(t, mux)
	mux.HandleFunc("/funding-sources", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<routingNumber>021000021</routingNumber>") {
			t.Errorf("request missing routing number: %s", body)
		}
		w.Write([]byte(`<?xml version="1.0"?>
			<fundingSourceResponse>
				<location>https://processor.example.com/funding-sources/fs-1</location>
			</fundingSourceResponse>`))
	})
	client, _ := newTestClient(t, mux)

	uri, err := client.CreateFundingSource(context.Background(),
		"https://processor.example.com/customers/c-1", "021000021", "12345678", "checking", "default")
	if err != nil {
		t.Fatalf("create funding source: %v", err)
	}
	if uri != "https://processor.example.com/funding-sources/fs-1" {
		t.Errorf("unexpected uri %q", uri)
	}
}

func TestCreateTransfer(t *testing.T) {
	mux := http.NewServeMux()
	authHandler(t, mux)
	mux.HandleFunc("/transfers", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `<amount currency="USD">50.00</amount>`) {
			t.Errorf("request missing amount: %s", body)
		}
		w.Write([]byte(`<?xml version="1.0"?>
			<transferResponse>
				<id>ext-77</id>
			</transferResponse>`))
	})
	client, _ := newTestClient(t, mux)

	id, err := client.CreateTransfer(context.Background(), "src", "dst", 50, "USD")
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if id != "ext-77" {
		t.Errorf("unexpected external id %q", id)
	}
}

func TestGetTransfer(t *testing.T) {
	mux := http.NewServeMux()
	authHandler(t, mux)
	mux.HandleFunc("/transfers/status", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
			<transferStatus>
				<id>ext-77</id>
				<status>completed</status>
				<amount>50.00</amount>
			</transferStatus>`))
	})
	client, _ := newTestClient(t, mux)

	details, err := client.GetTransfer(context.Background(), "ext-77")
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if details.Status != "completed" {
		t.Errorf("unexpected status %q", details.Status)
	}
	if details.Amount != 50 {
		t.Errorf("unexpected amount %v", details.Amount)
	}
}

func TestProcessorErrorSurfacesMessage(t *testing.T) {
	mux := http.NewServeMux()
	authHandler(t, mux)
	mux.HandleFunc("/transfers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`<?xml version="1.0"?>
			<error>
				<code>InsufficientFunds</code>
				<message>Insufficient funds in source account</message>
			</error>`))
	})
	client, _ := newTestClient(t, mux)

	_, err := client.CreateTransfer(context.Background(), "src", "dst", 50, "USD")
	if !errs.Is(err, errs.KindGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Insufficient funds") {
		t.Errorf("error must carry the processor message, got %q", err.Error())
	}
}

func TestProcessorUnreachable(t *testing.T) {
	mux := http.NewServeMux()
	client, srv := newTestClient(t, mux)
	srv.Close()

	err := client.Authorize(context.Background())
	if !errs.Is(err, errs.KindGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
