package action

import (
	"fmt"
	"testing"

	"github.com/milk9111/animview/anm"
)

func u8Ptr(v uint8) *uint8    { return &v }
func i16Ptr(v int16) *int16   { return &v }
func strPtr(s string) *string { return &s }

func TestApplySimpleActions(t *testing.T) {
	r := NewRuntime(1)

	cases := []struct {
		name   string
		action anm.Action
		want   Outcome
	}{
		{"goto", anm.GoTo{Name: "run"}, Outcome{Next: "run"}},
		{"goto with percent", anm.GoTo{Name: "run", Percent: u8Ptr(50)}, Outcome{Next: "run", Percent: 50}},
		{"static", anm.GoToStatic{}, Outcome{Static: true}},
		{"hit", anm.Hit{}, Outcome{Hit: true}},
		{"delete", anm.Delete{}, Outcome{Deleted: true}},
		{"end", anm.End{}, Outcome{Stop: true}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := r.Apply(c.action)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got != c.want {
				t.Fatalf("Apply = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestApplyGoToRandom(t *testing.T) {
	t.Run("weighted single target", func(t *testing.T) {
		r := NewRuntime(1)
		a := anm.GoToRandom{Names: []string{"#optimized", "a"}, Percents: []uint8{100}}
		for i := 0; i < 10; i++ {
			out, err := r.Apply(a)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if out.Next != "a" {
				t.Fatalf("a full-weight branch must always win, got %q", out.Next)
			}
		}
	})

	t.Run("weighted picks a listed target", func(t *testing.T) {
		r := NewRuntime(7)
		a := anm.GoToRandom{Names: []string{"#optimized", "a", "b"}, Percents: []uint8{70, 30}}
		for i := 0; i < 50; i++ {
			out, err := r.Apply(a)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if out.Next != "a" && out.Next != "b" {
				t.Fatalf("unexpected branch %q", out.Next)
			}
		}
	})

	t.Run("zero total weight falls back to the last target", func(t *testing.T) {
		r := NewRuntime(1)
		a := anm.GoToRandom{Names: []string{"#optimized", "a", "b"}, Percents: []uint8{0, 0}}
		out, err := r.Apply(a)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if out.Next != "b" {
			t.Fatalf("expected fallback b, got %q", out.Next)
		}
	})

	t.Run("unweighted", func(t *testing.T) {
		r := NewRuntime(1)
		a := anm.GoToRandom{Names: []string{"a", "b"}}
		out, err := r.Apply(a)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if out.Next != "a" && out.Next != "b" {
			t.Fatalf("unexpected branch %q", out.Next)
		}
	})

	t.Run("same seed same branches", func(t *testing.T) {
		a := anm.GoToRandom{Names: []string{"a", "b", "c"}}
		r1 := NewRuntime(42)
		r2 := NewRuntime(42)
		for i := 0; i < 20; i++ {
			o1, _ := r1.Apply(a)
			o2, _ := r2.Apply(a)
			if o1.Next != o2.Next {
				t.Fatalf("iteration %d: %q vs %q", i, o1.Next, o2.Next)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		r := NewRuntime(1)
		out, err := r.Apply(anm.GoToRandom{})
		if err != nil || out.Next != "" {
			t.Fatalf("empty branch list should be a no-op, got %+v, %v", out, err)
		}
	})
}

func TestApplyGoToIfPrevious(t *testing.T) {
	a := anm.GoToIfPrevious{
		Previous: []string{"walk", "run"},
		Next:     []string{"walk_stop", "run_stop"},
		Default:  strPtr("idle"),
	}

	r := NewRuntime(1)
	r.SetPrevious("run")
	out, err := r.Apply(a)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out.Next != "run_stop" {
		t.Fatalf("expected run_stop, got %q", out.Next)
	}

	r.SetPrevious("jump")
	out, _ = r.Apply(a)
	if out.Next != "idle" {
		t.Fatalf("expected the default branch, got %q", out.Next)
	}

	noDefault := anm.GoToIfPrevious{Previous: []string{"walk"}, Next: []string{"walk_stop"}}
	out, _ = r.Apply(noDefault)
	if out != (Outcome{}) {
		t.Fatalf("no match and no default should be a no-op, got %+v", out)
	}
}

func TestApplyCallbacks(t *testing.T) {
	r := NewRuntime(1)

	var gotParticle int32
	var gotX, gotY, gotZ int16
	r.OnParticle = func(id int32, x, y, z int16) {
		gotParticle, gotX, gotY, gotZ = id, x, y, z
	}
	if _, err := r.Apply(anm.AddParticle{ParticleID: 77, OffsetX: i16Ptr(1), OffsetY: i16Ptr(2)}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if gotParticle != 77 || gotX != 1 || gotY != 2 || gotZ != 0 {
		t.Fatalf("particle callback got id=%d offsets=(%d,%d,%d)", gotParticle, gotX, gotY, gotZ)
	}

	var gotRadius int8
	r.OnSetRadius = func(radius int8) { gotRadius = radius }
	if _, err := r.Apply(anm.SetRadius{Radius: 9}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if gotRadius != 9 {
		t.Fatalf("radius callback got %d", gotRadius)
	}

	// Missing callbacks are not an error.
	quiet := NewRuntime(1)
	if _, err := quiet.Apply(anm.AddParticle{ParticleID: 1}); err != nil {
		t.Fatalf("Apply without callback failed: %v", err)
	}
}

func TestRunScript(t *testing.T) {
	loads := 0
	r := NewRuntime(1)
	r.LoadScript = func(name string) ([]byte, error) {
		loads++
		if name != "onhit" {
			return nil, fmt.Errorf("unknown script %q", name)
		}
		src := `
if is_undefined(state.count) {
	state.count = 1
} else {
	state.count = state.count + 1
}
`
		return []byte(src), nil
	}

	for i := 0; i < 2; i++ {
		if _, err := r.Apply(anm.RunScript{Script: "onhit"}); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}
	if loads != 1 {
		t.Fatalf("script source should be loaded once, got %d", loads)
	}
	count, ok := r.state["count"].(int64)
	if !ok || count != 2 {
		t.Fatalf("script state count = %v, want 2", r.state["count"])
	}
}

func TestRunScriptErrors(t *testing.T) {
	r := NewRuntime(1)
	if _, err := r.Apply(anm.RunScript{Script: "x"}); err == nil {
		t.Fatalf("expected an error without a script loader")
	}

	r.LoadScript = func(name string) ([]byte, error) {
		return []byte(`this is not tengo`), nil
	}
	if _, err := r.Apply(anm.RunScript{Script: "broken"}); err == nil {
		t.Fatalf("expected a compile error")
	}
}
