package lib_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
)

type greeting struct {
	Message string `json:"message"`
}

func TestDecodeJSONFromRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"message":"wubba lubba dub dub"}`))
		case "/broken":
			w.Write([]byte(`{"message":`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"There is nothing here"}`))
		}
	}))
	defer server.Close()

	t.Run("decodes body", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/ok", nil)
		if err != nil {
			t.Fatal(err)
		}

		got, err := lib.DecodeJSONFromRequest[greeting](server.Client(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Message != "wubba lubba dub dub" {
			t.Errorf("unexpected message %q", got.Message)
		}
	})

	t.Run("reports status", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/missing", nil)
		if err != nil {
			t.Fatal(err)
		}

		_, err = lib.DecodeJSONFromRequest[greeting](server.Client(), req)

		var statusErr *lib.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", statusErr.StatusCode)
		}
		if !strings.Contains(statusErr.Body, "nothing here") {
			t.Errorf("expected body in error, got %q", statusErr.Body)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/broken", nil)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := lib.DecodeJSONFromRequest[greeting](server.Client(), req); err == nil {
			t.Errorf("expected decode error")
		}
	})
}

func TestLimitStringLength(t *testing.T) {
	got, truncated := lib.LimitStringLength("Plumbus", 4)
	if got != "Plum" || !truncated {
		t.Errorf("got %q truncated=%v", got, truncated)
	}

	got, truncated = lib.LimitStringLength("Gazorpazorp", 64)
	if got != "Gazorpazorp" || truncated {
		t.Errorf("got %q truncated=%v", got, truncated)
	}
}
