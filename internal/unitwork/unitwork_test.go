package unitwork

import (
	"context"
	"testing"
)

func TestOnceDeduplicatesWithinUnitOfWork(t *testing.T) {
	ctx := Begin(context.Background())

	if !Once(ctx, "apply_allocation_rules", "emp-1") {
		t.Fatal("first call should win")
	}
	if Once(ctx, "apply_allocation_rules", "emp-1") {
		t.Fatal("second call with same key should be deduplicated")
	}
	if !Once(ctx, "apply_allocation_rules", "emp-2") {
		t.Fatal("different entity should not be deduplicated")
	}
	if !Once(ctx, "other_op", "emp-1") {
		t.Fatal("different operation should not be deduplicated")
	}
}

func TestOnceSeparateUnitsOfWork(t *testing.T) {
	first := Begin(context.Background())
	if !Once(first, "apply_allocation_rules", "emp-1") {
		t.Fatal("first unit of work should run")
	}

	second := Begin(context.Background())
	if !Once(second, "apply_allocation_rules", "emp-1") {
		t.Fatal("a new unit of work must not inherit keys from a previous one")
	}
}

func TestOnceWithoutTracker(t *testing.T) {
	ctx := context.Background()
	if !Once(ctx, "apply_allocation_rules", "emp-1") {
		t.Fatal("call without tracker should run")
	}
	if !Once(ctx, "apply_allocation_rules", "emp-1") {
		t.Fatal("call without tracker is never deduplicated")
	}
}
