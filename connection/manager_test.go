package connection

import "testing"

type fakeConn struct {
	uri Uri
}

func (f fakeConn) URI() Uri                          { return f.uri }
func (f fakeConn) ResponderID() (ResponderId, error) { return f.uri.ResponderID() }
func (f fakeConn) String() string                    { return f.uri.String() }

func TestManagerConstructionAndLookup(t *testing.T) {
	a := fakeConn{uri: Uri{Addr: "10.0.0.1:443"}}
	b := fakeConn{uri: Uri{Addr: "10.0.0.2:443"}}
	m := NewManager([]fakeConn{a, b})

	if m.Len() != 2 {
		t.Fatalf("Len: got %d want 2", m.Len())
	}
	if m.IsEmpty() {
		t.Errorf("expected non-empty manager")
	}
	id, _ := a.ResponderID()
	got, ok := m.GetConnection(id)
	if !ok || got.uri != a.uri {
		t.Errorf("GetConnection: got %+v, %v", got, ok)
	}
	if _, ok := m.GetConnection("nonexistent"); ok {
		t.Errorf("expected miss for unregistered id")
	}
}

func TestManagerConstructionPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate responder id")
		}
	}()
	dup := fakeConn{uri: Uri{Addr: "10.0.0.1:443"}}
	NewManager([]fakeConn{dup, dup})
}

func TestManagerConstructionPanicsOnBadURI(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unparseable uri")
		}
	}()
	NewManager([]fakeConn{{uri: Uri{}}})
}

func TestManagerCloneSharesRegistry(t *testing.T) {
	a := fakeConn{uri: Uri{Addr: "10.0.0.1:443"}}
	m := NewManager([]fakeConn{a})
	clone := m.Clone()
	if clone.Len() != m.Len() {
		t.Fatalf("clone length mismatch: %d vs %d", clone.Len(), m.Len())
	}
	id, _ := a.ResponderID()
	if _, ok := clone.GetConnection(id); !ok {
		t.Errorf("clone does not observe original's registry")
	}
}
