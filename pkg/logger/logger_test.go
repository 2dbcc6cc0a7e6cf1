package logger

import (
	"strings"
	"testing"
)

type recordingInstance struct {
	lines []string
}

func (r *recordingInstance) record(level, message string, keyvals ...any) {
	parts := []string{level, message}
	for _, kv := range keyvals {
		if s, ok := kv.(string); ok {
			parts = append(parts, s)
		}
	}
	r.lines = append(r.lines, strings.Join(parts, " "))
}

func (r *recordingInstance) Log(m string, kv ...any)   { r.record("log", m, kv...) }
func (r *recordingInstance) Debug(m string, kv ...any) { r.record("debug", m, kv...) }
func (r *recordingInstance) Info(m string, kv ...any)  { r.record("info", m, kv...) }
func (r *recordingInstance) Warn(m string, kv ...any)  { r.record("warn", m, kv...) }
func (r *recordingInstance) Error(m string, kv ...any) { r.record("error", m, kv...) }
func (r *recordingInstance) Fatal(m string, kv ...any) { r.record("fatal", m, kv...) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recordingInstance{}, &recordingInstance{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Info("[Graph] Loaded", "path", "edges.txt")
	Log("plain", "k", "v")

	for _, r := range []*recordingInstance{a, b} {
		if len(r.lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %v", len(r.lines), r.lines)
		}
		if r.lines[0] != "info [Graph] Loaded path edges.txt" {
			t.Errorf("unexpected first line %q", r.lines[0])
		}
		if r.lines[1] != "log plain k v" {
			t.Errorf("keyvals not forwarded by Log: %q", r.lines[1])
		}
	}
}

func TestNoopBeforeInit(t *testing.T) {
	singletonMu.Lock()
	singleton = nil
	singletonMu.Unlock()

	Debug("nothing happens")
	Warn("nothing happens")
	Error("nothing happens")
}
