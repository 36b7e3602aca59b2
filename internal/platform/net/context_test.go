package net

import (
	"context"
	"testing"
)

func TestWithRequestAndRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Fatalf("RequestID(empty ctx) = %q, want empty", got)
	}
	ctx = WithRequest(ctx, "req-42")
	if got := RequestID(ctx); got != "req-42" {
		t.Fatalf("RequestID = %q, want req-42", got)
	}
	// empty id is a no-op
	ctx2 := WithRequest(context.Background(), "")
	if got := RequestID(ctx2); got != "" {
		t.Fatalf("RequestID after empty WithRequest = %q", got)
	}
}
