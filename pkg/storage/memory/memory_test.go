package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rhuss/blobgate/pkg/storage"
)

func makeObject(bucket, key, data string) storage.Object {
	return storage.Object{
		Bucket:      bucket,
		Key:         key,
		ContentType: "text/plain",
		Data:        []byte(data),
	}
}

func TestPutAndGet(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.PutObject(ctx, makeObject("docs", "reports/q1.txt", "hello")); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	got, err := s.GetObject(ctx, "docs", "reports/q1.txt")
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}

	if string(got.Data) != "hello" {
		t.Errorf("Data = %q, want %q", got.Data, "hello")
	}
	if got.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want %q", got.ContentType, "text/plain")
	}
	if got.ETag != storage.ComputeETag([]byte("hello")) {
		t.Errorf("ETag = %q", got.ETag)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestGetNotFound(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	s.PutObject(ctx, makeObject("docs", "a.txt", "x"))

	tests := []struct{ bucket, key string }{
		{"docs", "b.txt"},
		{"other", "a.txt"},
	}
	for _, tt := range tests {
		if _, err := s.GetObject(ctx, tt.bucket, tt.key); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetObject(%q, %q) error = %v, want ErrNotFound", tt.bucket, tt.key, err)
		}
	}
}

func TestPutReplaces(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	s.PutObject(ctx, makeObject("docs", "a.txt", "v1"))
	s.PutObject(ctx, makeObject("docs", "a.txt", "v2"))

	got, err := s.GetObject(ctx, "docs", "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Data) != "v2" {
		t.Errorf("Data = %q, want v2", got.Data)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestPutInvalid(t *testing.T) {
	s := New(0)
	err := s.PutObject(context.Background(), storage.Object{Key: "a"})
	if !errors.Is(err, storage.ErrInvalidObject) {
		t.Errorf("error = %v, want ErrInvalidObject", err)
	}
}

func TestCopiesData(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	obj := makeObject("docs", "a.txt", "abc")
	s.PutObject(ctx, obj)
	obj.Data[0] = 'X'

	got, _ := s.GetObject(ctx, "docs", "a.txt")
	if string(got.Data) != "abc" {
		t.Errorf("stored data aliased caller buffer: %q", got.Data)
	}

	got.Data[0] = 'Y'
	again, _ := s.GetObject(ctx, "docs", "a.txt")
	if string(again.Data) != "abc" {
		t.Errorf("stored data aliased returned buffer: %q", again.Data)
	}
}

func TestLRUEviction(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	s.PutObject(ctx, makeObject("b", "one", "1"))
	s.PutObject(ctx, makeObject("b", "two", "2"))

	// Touch "one" so "two" becomes least recently used.
	if _, err := s.GetObject(ctx, "b", "one"); err != nil {
		t.Fatal(err)
	}
	s.PutObject(ctx, makeObject("b", "three", "3"))

	if _, err := s.GetObject(ctx, "b", "two"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected two to be evicted, got %v", err)
	}
	for _, k := range []string{"one", "three"} {
		if _, err := s.GetObject(ctx, "b", k); err != nil {
			t.Errorf("GetObject(%q) error = %v", k, err)
		}
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestCancelledContext(t *testing.T) {
	s := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.PutObject(ctx, makeObject("b", "k", "v")); !errors.Is(err, context.Canceled) {
		t.Errorf("PutObject error = %v, want context.Canceled", err)
	}
	if _, err := s.GetObject(ctx, "b", "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("GetObject error = %v, want context.Canceled", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			if err := s.PutObject(ctx, makeObject("b", key, key)); err != nil {
				t.Errorf("PutObject(%s): %v", key, err)
				return
			}
			got, err := s.GetObject(ctx, "b", key)
			if err != nil {
				t.Errorf("GetObject(%s): %v", key, err)
				return
			}
			if string(got.Data) != key {
				t.Errorf("GetObject(%s) = %q", key, got.Data)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}

func TestHealthCheckAndClose(t *testing.T) {
	s := New(0)
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
