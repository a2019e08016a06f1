package observability

import (
	"context"
	"errors"
	"testing"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, SpanDispatch)
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("target", "t1")
	span.SetError(nil)
	span.Finish()
}

func TestFields(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		f    Field
		key  string
		want interface{}
	}{
		{String("field", "total"), "field", "total"},
		{Int("depth", 2), "depth", 2},
		{Int64("ms", 150), "ms", int64(150)},
		{Bool("interval", true), "interval", true},
		{Error("error", boom), "error", boom},
	}
	for _, c := range cases {
		if c.f.Key() != c.key || c.f.Value() != c.want {
			t.Errorf("%s = %v, want %v", c.f.Key(), c.f.Value(), c.want)
		}
	}
	if v, ok := Any("selRange", []int{1, 2}).Value().([]int); !ok || len(v) != 2 {
		t.Errorf("any field = %v", v)
	}
}
