package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevel_ShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeDirective, false},
		{LevelDebug, ScopeDirective, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for bad level")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}

func TestStreamTracer_Spans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	root := Begin(tr, ScopeDriver, "build", 0)
	child := Begin(tr, ScopePass, "compile", root.ID())
	hidden := Begin(tr, ScopeUnit, "unit:main.itd", child.ID())
	hidden.End("")
	child.WithExtra("units", "2").End("ok")
	root.End("")

	out := buf.String()
	if strings.Contains(out, "unit:main.itd") {
		t.Errorf("unit scope leaked at phase level:\n%s", out)
	}
	if strings.Count(out, "\n") != 4 {
		t.Errorf("want 4 events, got:\n%s", out)
	}
	if !strings.Contains(out, "← compile (ok) {units=2}") {
		t.Errorf("missing compile end event:\n%s", out)
	}
	if hidden.ID() != 0 {
		t.Errorf("filtered span got id %d", hidden.ID())
	}
}

func TestStreamTracer_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeDirective, "PROC", "main", 7)

	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if ev["kind"] != "point" || ev["scope"] != "directive" || ev["detail"] != "main" {
		t.Fatalf("event = %v", ev)
	}
}

func TestRingTracer_Wraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(r, ScopeUnit, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 || snap[0].Name != "b" || snap[2].Name != "d" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off tracer: %v enabled=%v", err, tr.Enabled())
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelDetail, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("ModeBoth gave %T", tr)
	}
	Begin(tr, ScopeUnit, "unit", 0).End("")
	ring, ok := m.Ring()
	if !ok || len(ring.Snapshot()) != 2 {
		t.Fatal("ring did not receive events")
	}
	if buf.Len() == 0 {
		t.Fatal("stream did not receive events")
	}
}

func TestContextPropagation(t *testing.T) {
	r := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), r)
	ctx, root := Start(ctx, ScopePass, "compile")
	_, child := Start(ctx, ScopeUnit, "unit")
	child.End("")
	root.End("")

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("events = %d", len(snap))
	}
	if snap[1].ParentID != root.ID() {
		t.Fatalf("child parent = %d, want %d", snap[1].ParentID, root.ID())
	}
	if FromContext(context.Background()) != Nop {
		t.Fatal("empty context should give Nop")
	}
}
