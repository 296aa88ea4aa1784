package status

import (
	"sync"
	"testing"
)

func TestMetricMapReturnsCachedPointer(t *testing.T) {
	r := NewRegistry()
	a := r.Ints.Get("engine.triggers")
	b := r.Ints.Get("engine.triggers")
	if a != b {
		t.Fatal("Expected same pointer for repeated Get")
	}
	if !r.Ints.Has("engine.triggers") || r.Ints.Has("missing") {
		t.Error("Expected Has to reflect registration")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("capture.sessions").Add(3)
	r.Bools.Get("master.recording").Store(true)
	r.Floats.Get("master.volume").Set(0.75)
	r.Strings.Get("output.backend").Store("pipe")

	snap := r.Snapshot()
	if len(snap) != 4 || r.TotalCount() != 4 {
		t.Fatalf("Expected 4 metrics, got %d", len(snap))
	}
	if snap["capture.sessions"] != int64(3) {
		t.Errorf("Expected 3 sessions, got %v", snap["capture.sessions"])
	}
	if snap["master.recording"] != true {
		t.Errorf("Expected master.recording true, got %v", snap["master.recording"])
	}
	if snap["master.volume"] != 0.75 {
		t.Errorf("Expected volume 0.75, got %v", snap["master.volume"])
	}
	if snap["output.backend"] != "pipe" {
		t.Errorf("Expected backend pipe, got %v", snap["output.backend"])
	}
}

func TestAtomicFloatSwap(t *testing.T) {
	var f AtomicFloat
	if f.Get() != 0 {
		t.Errorf("Expected zero value 0, got %f", f.Get())
	}
	f.Set(0.75)
	if old := f.Swap(0.25); old != 0.75 {
		t.Errorf("Expected previous 0.75, got %f", old)
	}

	// Every concurrent swap hands back exactly one earlier value
	var wg sync.WaitGroup
	seen := make([]float64, 50)
	for i := range seen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen[i] = f.Swap(float64(i + 1))
		}()
	}
	wg.Wait()

	values := map[float64]bool{0.25: true}
	for i := range seen {
		values[float64(i+1)] = true
	}
	values[f.Get()] = false
	for _, v := range seen {
		if !values[v] {
			t.Fatalf("Expected each value returned once, got repeat or unknown %f", v)
		}
		values[v] = false
	}
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	m.Get("b")
	m.Get("a")
	m.Get("c")

	var keys []string
	m.Range(func(k string, _ *AtomicFloat) { keys = append(keys, k) })
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
}

func TestAtomicStringKeepsLongValues(t *testing.T) {
	var s AtomicString
	if s.Load() != "" {
		t.Errorf("Expected empty zero value, got %q", s.Load())
	}
	name := "Launchpad Mini MK3 LPMiniMK3 MIDI In 24:0"
	s.Store(name)
	if s.Load() != name {
		t.Errorf("Expected full port name, got %q", s.Load())
	}
}

func TestMetricMapRangeMayRegister(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	m.Get("midi.port")
	m.Range(func(k string, _ *AtomicString) { m.Get(k + ".seen") })
	if !m.Has("midi.port.seen") || m.Count() != 2 {
		t.Errorf("Expected registration from inside Range, got keys %v", m.Keys())
	}
}
