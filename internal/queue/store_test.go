package queue_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"printbot/internal/queue"
)

func openStore(t *testing.T, path string) *queue.Store {
	t.Helper()
	store, err := queue.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRequest(user int64, name string) *queue.Request {
	return &queue.Request{
		UserID:   user,
		ChatID:   user,
		FilePath: "/data/incoming/" + name,
		FileName: name,
		Options:  queue.PrintOptions{Media: "A4", Duplex: "one-sided", FitToPage: true, Copies: 1},
	}
}

func TestEnqueueAssignsMonotonicIDs(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "queue.db"))
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := store.Enqueue(ctx, newRequest(7, fmt.Sprintf("doc-%d.pdf", i)))
		if err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if id <= last {
			t.Fatalf("ids not increasing: %d after %d", id, last)
		}
		last = id
	}

	n, err := store.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 pending, got %d", n)
	}
}

func TestListPendingFIFOOrder(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "queue.db"))
	ctx := context.Background()

	names := []string{"a.pdf", "b.pdf", "c.pdf"}
	for _, n := range names {
		if _, err := store.Enqueue(ctx, newRequest(1, n)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != len(names) {
		t.Fatalf("expected %d pending, got %d", len(names), len(pending))
	}
	for i, req := range pending {
		if req.FileName != names[i] {
			t.Fatalf("position %d: got %s, want %s", i, req.FileName, names[i])
		}
		if req.Status != queue.StatusPending {
			t.Fatalf("position %d: status %s", i, req.Status)
		}
	}
}

func TestMarkPrintedRemovesRow(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "queue.db"))
	ctx := context.Background()

	id, err := store.Enqueue(ctx, newRequest(1, "doc.pdf"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := store.MarkPrinted(ctx, id); err != nil {
		t.Fatalf("MarkPrinted failed: %v", err)
	}
	if _, err := store.GetByID(ctx, id); err != queue.ErrNotFound {
		t.Fatalf("expected ErrNotFound after print, got %v", err)
	}

	// Retried transition is a no-op, not an error.
	if err := store.MarkPrinted(ctx, id); err != nil {
		t.Fatalf("repeated MarkPrinted: %v", err)
	}
}

func TestMarkFailedRetainsRow(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "queue.db"))
	ctx := context.Background()

	id, err := store.Enqueue(ctx, newRequest(1, "doc.pdf"))
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := store.MarkFailed(ctx, id, "lpr exited 1"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	req, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if req.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", req.Status)
	}
	if req.ErrorMessage != "lpr exited 1" {
		t.Fatalf("error message = %q", req.ErrorMessage)
	}

	// Terminal rows don't flip back on a retried drain.
	if err := store.MarkFailed(ctx, id, "other"); err != nil {
		t.Fatalf("repeated MarkFailed: %v", err)
	}
	req, _ = store.GetByID(ctx, id)
	if req.ErrorMessage != "lpr exited 1" {
		t.Fatalf("terminal row mutated: %q", req.ErrorMessage)
	}

	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("failed request still listed as pending")
	}
}

func TestRemoveAndClearFailed(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "queue.db"))
	ctx := context.Background()

	id1, _ := store.Enqueue(ctx, newRequest(1, "a.pdf"))
	id2, _ := store.Enqueue(ctx, newRequest(1, "b.pdf"))
	id3, _ := store.Enqueue(ctx, newRequest(1, "c.pdf"))

	if err := store.Remove(ctx, id1); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, id1); err != queue.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double remove, got %v", err)
	}

	_ = store.MarkFailed(ctx, id2, "jam")
	_ = store.MarkFailed(ctx, id3, "jam")
	failed, err := store.ListFailed(ctx)
	if err != nil {
		t.Fatalf("ListFailed failed: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed, got %d", len(failed))
	}

	n, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("cleared %d, want 2", n)
	}
}

func TestReopenPreservesPendingOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	ctx := context.Background()

	store, err := queue.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	names := []string{"first.pdf", "second.pdf", "third.pdf"}
	for _, n := range names {
		if _, err := store.Enqueue(ctx, newRequest(9, n)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := openStore(t, path)
	pending, err := reopened.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending after reopen failed: %v", err)
	}
	if len(pending) != len(names) {
		t.Fatalf("expected %d pending after reopen, got %d", len(names), len(pending))
	}
	for i, req := range pending {
		if req.FileName != names[i] {
			t.Fatalf("order lost after reopen: position %d is %s", i, req.FileName)
		}
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := queue.Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
