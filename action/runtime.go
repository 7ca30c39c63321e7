// Package action interprets the playback directives carried on animation
// tapes. The decoder only transports actions; a Runtime turns them into
// playback outcomes (jumps, stops, deletions) and side effects (particles,
// scripts). Scripted actions run in an embedded tengo interpreter.
package action

import (
	"fmt"
	"math/rand"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/animview/anm"
)

// Outcome tells the caller what playback should do after an action.
type Outcome struct {
	// Next is the animation name to jump to, empty for no jump.
	Next string
	// Percent is the position within Next to jump to, 0-100.
	Percent uint8
	// Static requests a jump to the static pose.
	Static bool
	// Stop ends playback.
	Stop bool
	// Deleted removes the entity after this frame.
	Deleted bool
	// Hit triggers the hit reaction.
	Hit bool
}

// Runtime is the playback state machine applying actions for one animated
// entity. It is not safe for concurrent use.
type Runtime struct {
	// OnParticle is called for particle spawn actions. Offsets default to
	// zero when the action omits them.
	OnParticle func(particleID int32, x, y, z int16)
	// OnSetRadius is called for render radius changes.
	OnSetRadius func(radius int8)
	// LoadScript resolves a script name to source for RunScript actions.
	LoadScript func(name string) ([]byte, error)

	previous string
	rng      *rand.Rand
	scripts  map[string]*tengo.Compiled
	state    map[string]any
}

// NewRuntime creates a runtime seeded for reproducible random branches.
func NewRuntime(seed int64) *Runtime {
	return &Runtime{
		rng:     rand.New(rand.NewSource(seed)),
		scripts: map[string]*tengo.Compiled{},
		state:   map[string]any{},
	}
}

// SetPrevious records the animation that was playing before the current one;
// conditional jumps branch on it.
func (r *Runtime) SetPrevious(name string) {
	r.previous = name
}

// Apply interprets one action.
func (r *Runtime) Apply(a anm.Action) (Outcome, error) {
	switch v := a.(type) {
	case anm.GoTo:
		out := Outcome{Next: v.Name}
		if v.Percent != nil {
			out.Percent = *v.Percent
		}
		return out, nil
	case anm.GoToStatic:
		return Outcome{Static: true}, nil
	case anm.RunScript:
		return Outcome{}, r.runScript(v.Script)
	case anm.GoToRandom:
		return r.applyRandom(v), nil
	case anm.Hit:
		return Outcome{Hit: true}, nil
	case anm.Delete:
		return Outcome{Deleted: true}, nil
	case anm.End:
		return Outcome{Stop: true}, nil
	case anm.GoToIfPrevious:
		return r.applyIfPrevious(v), nil
	case anm.AddParticle:
		if r.OnParticle != nil {
			r.OnParticle(v.ParticleID, deref(v.OffsetX), deref(v.OffsetY), deref(v.OffsetZ))
		}
		return Outcome{}, nil
	case anm.SetRadius:
		if r.OnSetRadius != nil {
			r.OnSetRadius(v.Radius)
		}
		return Outcome{}, nil
	default:
		return Outcome{}, fmt.Errorf("action: unhandled action %T", a)
	}
}

func (r *Runtime) applyRandom(v anm.GoToRandom) Outcome {
	if len(v.Percents) > 0 {
		// Weighted form; Names[0] is the optimization marker.
		names := v.Names[1:]
		if len(names) > len(v.Percents) {
			names = names[:len(v.Percents)]
		}
		total := 0
		for _, p := range v.Percents[:len(names)] {
			total += int(p)
		}
		if total > 0 {
			roll := r.rng.Intn(total)
			for i, name := range names {
				roll -= int(v.Percents[i])
				if roll < 0 {
					return Outcome{Next: name}
				}
			}
		}
		if len(names) > 0 {
			return Outcome{Next: names[len(names)-1]}
		}
		return Outcome{}
	}
	if len(v.Names) == 0 {
		return Outcome{}
	}
	return Outcome{Next: v.Names[r.rng.Intn(len(v.Names))]}
}

func (r *Runtime) applyIfPrevious(v anm.GoToIfPrevious) Outcome {
	for i, prev := range v.Previous {
		if i < len(v.Next) && prev == r.previous {
			return Outcome{Next: v.Next[i]}
		}
	}
	if v.Default != nil {
		return Outcome{Next: *v.Default}
	}
	return Outcome{}
}

// runScript compiles the named script on first use and reruns the cached
// program afterwards. Scripts see a persistent `state` map and the name of
// the previously playing animation.
func (r *Runtime) runScript(name string) error {
	if r.LoadScript == nil {
		return fmt.Errorf("action: no script loader for %q", name)
	}
	compiled, ok := r.scripts[name]
	if !ok {
		src, err := r.LoadScript(name)
		if err != nil {
			return fmt.Errorf("action: load script %q: %w", name, err)
		}
		script := tengo.NewScript(src)
		_ = script.Add("state", r.state)
		_ = script.Add("previous", r.previous)
		script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
		compiled, err = script.Compile()
		if err != nil {
			return fmt.Errorf("action: compile script %q: %w", name, err)
		}
		r.scripts[name] = compiled
	}
	if err := compiled.Set("state", r.state); err != nil {
		return fmt.Errorf("action: script %q: %w", name, err)
	}
	if err := compiled.Set("previous", r.previous); err != nil {
		return fmt.Errorf("action: script %q: %w", name, err)
	}
	if err := compiled.Run(); err != nil {
		return fmt.Errorf("action: run script %q: %w", name, err)
	}
	if v := compiled.Get("state"); v != nil {
		if m, ok := v.Value().(map[string]any); ok {
			r.state = m
		}
	}
	return nil
}

func deref(v *int16) int16 {
	if v == nil {
		return 0
	}
	return *v
}
