package kv

import (
	"testing"

	"github.com/ws1993/Baby-Growth-Record/internal/database"
)

func setupSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLite(db)
}

func adapters(t *testing.T) map[string]Adapter {
	return map[string]Adapter{
		"sqlite": setupSQLite(t),
		"memory": NewMemory(),
	}
}

func TestReadMissing(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := a.Read(KeyMembers)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if ok || v != nil {
				t.Errorf("read missing = (%q, %v), want (nil, false)", v, ok)
			}
		})
	}
}

func TestWriteReadRemove(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			if err := a.Write(KeySettings, []byte(`{"theme":"dark"}`)); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := a.Write(KeySettings, []byte(`{"theme":"light"}`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, ok, err := a.Read(KeySettings)
			if err != nil || !ok {
				t.Fatalf("read: ok=%v err=%v", ok, err)
			}
			if string(v) != `{"theme":"light"}` {
				t.Errorf("value = %s", v)
			}

			if err := a.Remove(KeySettings); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if _, ok, _ := a.Read(KeySettings); ok {
				t.Error("key still present after remove")
			}
			if err := a.Remove(KeySettings); err != nil {
				t.Errorf("removing a missing key: %v", err)
			}
		})
	}
}

func TestWriteMany(t *testing.T) {
	for name, a := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			if err := a.Write(KeyCurrentMember, []byte(`"m1"`)); err != nil {
				t.Fatalf("write: %v", err)
			}
			err := a.WriteMany(map[string][]byte{
				KeyMembers:       []byte(`[]`),
				KeyRecords:       []byte(`[]`),
				KeyCurrentMember: nil,
			})
			if err != nil {
				t.Fatalf("write many: %v", err)
			}
			for _, key := range []string{KeyMembers, KeyRecords} {
				if v, ok, _ := a.Read(key); !ok || string(v) != "[]" {
					t.Errorf("%s = %q (ok=%v), want []", key, v, ok)
				}
			}
			if _, ok, _ := a.Read(KeyCurrentMember); ok {
				t.Error("nil value in WriteMany should remove the key")
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	s := setupSQLite(t)
	if !s.IsAvailable() {
		t.Error("open database should be available")
	}
	s.db.Close()
	if s.IsAvailable() {
		t.Error("closed database should be unavailable")
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	in := []byte("abc")
	m.Write("k", in)
	in[0] = 'x'
	v, _, _ := m.Read("k")
	if string(v) != "abc" {
		t.Errorf("stored value changed through caller slice: %q", v)
	}
}
