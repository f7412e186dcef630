package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 accepts PutObject requests and remembers the last one.
type fakeS3 struct {
	mu     sync.Mutex
	method string
	path   string
	body   string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.method, f.path, f.body = r.Method, r.URL.Path, string(body)
	f.mu.Unlock()
	w.Header().Set("ETag", `"abc"`)
	w.WriteHeader(http.StatusOK)
}

func setFakeCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestS3Destination_Write(t *testing.T) {
	setFakeCredentials(t)
	fake := &fakeS3{}
	ts := httptest.NewServer(fake)
	defer ts.Close()

	dest, err := NewS3Destination(context.Background(), S3Options{
		Bucket:   "audit",
		Key:      "signalgate/snapshot.jsonl",
		Region:   "us-east-1",
		Endpoint: ts.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}

	payload := `{"version":"1","type":"header"}` + "\n"
	if err := dest.Write(context.Background(), []byte(payload)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.method != http.MethodPut {
		t.Errorf("method = %q, want PUT", fake.method)
	}
	if fake.path != "/audit/signalgate/snapshot.jsonl" {
		t.Errorf("path = %q, want path-style bucket/key", fake.path)
	}
	if !strings.Contains(fake.body, `"type":"header"`) {
		t.Errorf("body does not contain payload: %q", fake.body)
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	setFakeCredentials(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
	}))
	defer ts.Close()

	dest, err := NewS3Destination(context.Background(), S3Options{
		Bucket: "audit", Key: "k", Region: "us-east-1", Endpoint: ts.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Destination: %v", err)
	}
	if err := dest.Write(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error from 403")
	}
}

func TestNewS3Destination_RequiresBucketAndKey(t *testing.T) {
	if _, err := NewS3Destination(context.Background(), S3Options{Key: "k"}); err == nil {
		t.Fatal("expected error without bucket")
	}
	if _, err := NewS3Destination(context.Background(), S3Options{Bucket: "b"}); err == nil {
		t.Fatal("expected error without key")
	}
}
