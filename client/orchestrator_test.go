package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/userdeskapp/userdesk/pagination"
)

type fakePresenter struct {
	mu      sync.Mutex
	renders [][]User
	windows []pagination.Window
	notes   []string // "kind: message"
	retries []string
	busy    int
}

func (p *fakePresenter) RenderUsers(users []User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renders = append(p.renders, append([]User(nil), users...))
}

func (p *fakePresenter) RenderPagination(w pagination.Window, page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows = append(p.windows, w)
}

func (p *fakePresenter) Notify(kind, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, kind+": "+message)
}

func (p *fakePresenter) ShowRetry(message string, retry func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retries = append(p.retries, message)
}

func (p *fakePresenter) SetBusy(busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if busy {
		p.busy++
	}
}

func (p *fakePresenter) lastRender() []User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.renders) == 0 {
		return nil
	}
	return p.renders[len(p.renders)-1]
}

func (p *fakePresenter) hasNote(want string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.notes {
		if n == want {
			return true
		}
	}
	return false
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakePresenter) {
	t.Helper()
	srv, _ := newTestServer(t)
	p := &fakePresenter{}
	o := NewOrchestrator(New(srv.URL, discardLogger()), p, discardLogger())
	o.debounce = 20 * time.Millisecond
	return o, p
}

func TestOrchestrator_RefreshRendersUsers(t *testing.T) {
	o, p := newTestOrchestrator(t)

	o.Refresh(context.Background())

	st := o.State()
	if st.Total != 3 {
		t.Fatalf("Total = %d, want 3", st.Total)
	}
	if len(p.renders) != 1 || len(p.lastRender()) != 3 {
		t.Errorf("rendered %d lists, last with %d users, want 1/3", len(p.renders), len(p.lastRender()))
	}
	if len(p.windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(p.windows))
	}
	if w := p.windows[0]; w.PageCount != 1 || !w.PrevDisabled || !w.NextDisabled {
		t.Errorf("unexpected window: %+v", w)
	}
}

func TestOrchestrator_SetQueryDebounces(t *testing.T) {
	o, p := newTestOrchestrator(t)

	// rapid keystrokes: only the final query should hit the API
	o.SetQuery(context.Background(), "a")
	o.SetQuery(context.Background(), "an")
	o.SetQuery(context.Background(), "jose")
	time.Sleep(150 * time.Millisecond)

	st := o.State()
	if st.Query != "jose" {
		t.Fatalf("Query = %q, want %q", st.Query, "jose")
	}
	if st.Page != 1 {
		t.Errorf("Page = %d, want 1 (reset on new search)", st.Page)
	}
	if got := len(p.renders); got != 1 {
		t.Errorf("renders = %d, want 1 (debounced)", got)
	}
	last := p.lastRender()
	if len(last) != 1 || last[0].Name != "José Álvarez" {
		t.Errorf("unexpected result: %+v", last)
	}
}

func TestOrchestrator_StaleResponseDiscarded(t *testing.T) {
	// a server whose "slow" search answers long after the "fast" one
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		name := "Fast"
		if q == "slow" {
			time.Sleep(120 * time.Millisecond)
			name = "Slow"
		}
		_ = json.NewEncoder(w).Encode(UserList{
			Users: []User{{ID: 1, Name: name, Email: name + "@example.com"}},
			Total: 1, Page: 1, Limit: 5,
		})
	}))
	defer srv.Close()

	p := &fakePresenter{}
	o := NewOrchestrator(New(srv.URL, discardLogger()), p, discardLogger())

	o.mu.Lock()
	o.state.Query = "slow"
	o.mu.Unlock()
	done := make(chan struct{})
	go func() {
		o.Refresh(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	o.mu.Lock()
	o.state.Query = "fast"
	o.mu.Unlock()
	o.Refresh(context.Background())
	<-done

	// the slow response was superseded and must not overwrite the fresh one
	if got := len(p.renders); got != 1 {
		t.Fatalf("renders = %d, want 1 (stale response dropped)", got)
	}
	if last := p.lastRender(); last[0].Name != "Fast" {
		t.Errorf("last render = %q, want %q", last[0].Name, "Fast")
	}
	if st := o.State(); st.Users[0].Name != "Fast" {
		t.Errorf("state kept %q, want %q", st.Users[0].Name, "Fast")
	}
}

func TestOrchestrator_CreateFlow(t *testing.T) {
	o, p := newTestOrchestrator(t)

	if err := o.CreateUser(context.Background(), "Ana", "Ana@X.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if !p.hasNote("success: " + MsgCreated) {
		t.Errorf("missing success toast, notes: %v", p.notes)
	}

	// the list is filtered to the new user on page 1
	st := o.State()
	if st.Query != "ana@x.com" {
		t.Errorf("Query = %q, want %q", st.Query, "ana@x.com")
	}
	if st.Page != 1 {
		t.Errorf("Page = %d, want 1", st.Page)
	}
	last := p.lastRender()
	if len(last) != 1 || last[0].Email != "ana@x.com" {
		t.Errorf("unexpected render after create: %+v", last)
	}

	// second create with a case-variant of the same email is pre-empted
	err := o.CreateUser(context.Background(), "Otra", "ANA@X.COM")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("CreateUser error = %v, want ErrConflict", err)
	}
	if !p.hasNote("warning: " + MsgDuplicate) {
		t.Errorf("missing duplicate warning, notes: %v", p.notes)
	}
}

func TestOrchestrator_UpdateOwnEmailIsNoConflict(t *testing.T) {
	srv, store := newTestServer(t)
	p := &fakePresenter{}
	o := NewOrchestrator(New(srv.URL, discardLogger()), p, discardLogger())

	u, err := store.GetUserByEmail("ana.torres@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	err = o.UpdateUser(context.Background(), User{
		ID:    int64(u.ID),
		Name:  "Ana T.",
		Email: "ana.torres@example.com", // unchanged
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if !p.hasNote("success: " + MsgUpdated) {
		t.Errorf("missing success toast, notes: %v", p.notes)
	}
}

func TestOrchestrator_UpdateToTakenEmailWarns(t *testing.T) {
	srv, store := newTestServer(t)
	p := &fakePresenter{}
	o := NewOrchestrator(New(srv.URL, discardLogger()), p, discardLogger())

	u, err := store.GetUserByEmail("ana.torres@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	err = o.UpdateUser(context.Background(), User{
		ID:    int64(u.ID),
		Name:  "Ana",
		Email: "jose.alvarez@example.com",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("UpdateUser error = %v, want ErrConflict", err)
	}
	if !p.hasNote("warning: " + MsgDuplicate) {
		t.Errorf("missing duplicate warning, notes: %v", p.notes)
	}
}

func TestOrchestrator_DeleteNotFound(t *testing.T) {
	o, p := newTestOrchestrator(t)

	err := o.DeleteUser(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteUser error = %v, want ErrNotFound", err)
	}
	if !p.hasNote("error: " + MsgNotFound) {
		t.Errorf("missing not-found toast, notes: %v", p.notes)
	}
}

func TestOrchestrator_ReadFailureShowsRetry(t *testing.T) {
	srv, _ := newTestServer(t)
	p := &fakePresenter{}
	o := NewOrchestrator(New(srv.URL, discardLogger()), p, discardLogger())
	srv.Close()

	o.Refresh(context.Background())

	if len(p.retries) != 1 || p.retries[0] != MsgNoAPI {
		t.Fatalf("retries = %v, want [%q]", p.retries, MsgNoAPI)
	}
	// the table is cleared, no toast for read failures
	if last := p.lastRender(); len(last) != 0 {
		t.Errorf("last render = %v, want empty", last)
	}
	if len(p.notes) != 0 {
		t.Errorf("notes = %v, want none", p.notes)
	}
}

func TestOrchestrator_Cancel(t *testing.T) {
	o, p := newTestOrchestrator(t)

	o.Cancel()
	if !p.hasNote("info: " + MsgCancelled) {
		t.Errorf("missing cancel toast, notes: %v", p.notes)
	}
}
