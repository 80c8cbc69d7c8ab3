package remote

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient_ReadCAError(t *testing.T) {
	_, err := NewHTTPClient("nonexistent.pem", time.Second)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not exist error, got %v", err)
	}
}

func TestNewHTTPClient_InvalidCA(t *testing.T) {
	tmp := t.TempDir()
	caPath := filepath.Join(tmp, "ca.pem")
	// write invalid PEM
	if err := os.WriteFile(caPath, []byte("invalid pem"), 0600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}
	_, err := NewHTTPClient(caPath, time.Second)
	if err == nil || !strings.Contains(err.Error(), "failed to parse CA cert") {
		t.Errorf("expected parse CA error, got %v", err)
	}
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	client, err := NewHTTPClient("", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v; want %v", client.Timeout, DefaultTimeout)
	}
}

func TestNewHTTPClient_TrustsCustomCA(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	tmp := t.TempDir()
	caPath := filepath.Join(tmp, "ca.pem")
	caPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ts.Certificate().Raw})
	if err := os.WriteFile(caPath, caPEM, 0600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}

	httpClient, err := NewHTTPClient(caPath, time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	c := New(ts.URL, WithHTTPClient(httpClient))
	if _, err := c.ListHikes(context.Background(), "t1"); err != nil {
		t.Fatalf("request through custom CA failed: %v", err)
	}

	// the default client must reject the self-signed server
	plain := New(ts.URL)
	if _, err := plain.ListHikes(context.Background(), "t1"); err == nil {
		t.Error("expected TLS verification failure without the CA")
	}
}
