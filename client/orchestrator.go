package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/userdeskapp/userdesk/pagination"
)

// Fixed user-facing message set.
const (
	MsgCreated      = "Usuario creado correctamente"
	MsgUpdated      = "Usuario actualizado correctamente"
	MsgDeleted      = "Usuario eliminado correctamente"
	MsgDuplicate    = "Ya existe un usuario con ese email"
	MsgNotFound     = "Usuario no encontrado"
	MsgNoAPI        = "No se puede conectar con la API. Asegúrate de que el servidor está levantado."
	MsgCancelled    = "Operación cancelada"
	MsgCreateFail   = "Error al crear usuario"
	MsgUpdateFail   = "Error al actualizar usuario"
	MsgDeleteFail   = "Error al eliminar usuario"
)

const (
	DefaultLimit    = 5
	DefaultDebounce = 300 * time.Millisecond
	lookupLimit     = 5
)

// State is the explicit list state owned by the orchestrator. The cache is
// only ever replaced wholesale after a round trip.
type State struct {
	Query string
	Page  int
	Limit int
	Users []User
	Total int64
}

// Presenter is the capability interface to the presentation boundary.
// Implementations render; they never decide.
type Presenter interface {
	RenderUsers(users []User)
	RenderPagination(w pagination.Window, page int)
	Notify(kind, message string) // kind: success | error | warning | info
	ShowRetry(message string, retry func())
	SetBusy(busy bool)
}

// Orchestrator wires user intents (search, paging, writes) to the API
// client and reflects results back through the Presenter.
type Orchestrator struct {
	api       *Client
	presenter Presenter
	logger    *slog.Logger
	debounce  time.Duration

	mu    sync.Mutex
	state State
	timer *time.Timer

	// seq orders list requests; a response is dropped unless it carries
	// the newest sequence, so a slow stale response can never overwrite a
	// fresher one.
	seq atomic.Uint64
}

func NewOrchestrator(api *Client, p Presenter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		api:       api,
		presenter: p,
		logger:    logger,
		debounce:  DefaultDebounce,
		state: State{
			Page:  1,
			Limit: DefaultLimit,
		},
	}
}

// State returns a copy of the current list state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.state
	st.Users = append([]User(nil), o.state.Users...)
	return st
}

// Refresh reloads the current page. Read failures surface a retry
// affordance instead of a toast, since they block the primary view.
func (o *Orchestrator) Refresh(ctx context.Context) {
	o.mu.Lock()
	q, page, limit := o.state.Query, o.state.Page, o.state.Limit
	o.mu.Unlock()

	seq := o.seq.Add(1)
	o.presenter.SetBusy(true)
	defer o.presenter.SetBusy(false)

	list, err := o.api.FetchUsers(ctx, q, page, limit)
	if seq != o.seq.Load() {
		// superseded by a newer request
		return
	}
	if err != nil {
		o.logger.Error("cannot fetch users", "error", err)
		o.presenter.RenderUsers(nil)
		o.presenter.ShowRetry(MsgNoAPI, func() { o.Refresh(ctx) })
		return
	}

	o.mu.Lock()
	o.state.Users = list.Users
	o.state.Total = list.Total
	if list.Page > 0 {
		o.state.Page = list.Page
	}
	if list.Limit > 0 {
		o.state.Limit = list.Limit
	}
	users, total := o.state.Users, o.state.Total
	page, limit = o.state.Page, o.state.Limit
	o.mu.Unlock()

	o.presenter.RenderUsers(users)
	o.presenter.RenderPagination(
		pagination.ComputeWindow(total, page, limit, pagination.DefaultMaxButtons), page)
}

// SetQuery schedules a debounced refresh with the page reset to 1. Rapid
// keystrokes collapse into one request.
func (o *Orchestrator) SetQuery(ctx context.Context, q string) {
	o.mu.Lock()
	o.state.Query = strings.TrimSpace(q)
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.debounce, func() {
		o.mu.Lock()
		o.state.Page = 1
		o.mu.Unlock()
		o.Refresh(ctx)
	})
	o.mu.Unlock()
}

// ClearSearch resets the query and reloads immediately.
func (o *Orchestrator) ClearSearch(ctx context.Context) {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.state.Query = ""
	o.state.Page = 1
	o.mu.Unlock()
	o.Refresh(ctx)
}

// SetLimit changes the page size and jumps back to the first page.
func (o *Orchestrator) SetLimit(ctx context.Context, limit int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	o.mu.Lock()
	o.state.Limit = limit
	o.state.Page = 1
	o.mu.Unlock()
	o.Refresh(ctx)
}

// GoToPage navigates to the given page.
func (o *Orchestrator) GoToPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	o.mu.Lock()
	o.state.Page = page
	o.mu.Unlock()
	o.Refresh(ctx)
}

// Cancel reports an aborted form dialog.
func (o *Orchestrator) Cancel() {
	o.presenter.Notify("info", MsgCancelled)
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// emailExists pre-checks a candidate email against the cached page first
// and falls back to a remote lookup. The check is advisory: a failed
// lookup reports false, and the server still rejects duplicates with a
// conflict on write.
func (o *Orchestrator) emailExists(ctx context.Context, email string, excludeID int64) bool {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return false
	}

	o.mu.Lock()
	cached := append([]User(nil), o.state.Users...)
	o.mu.Unlock()
	for _, u := range cached {
		if normalizeEmail(u.Email) == normalized && (excludeID == 0 || u.ID != excludeID) {
			return true
		}
	}

	lookup, err := o.api.FetchUsers(ctx, normalized, 1, lookupLimit)
	if err != nil {
		o.logger.Warn("cannot pre-check email", "error", err)
		return false
	}
	for _, u := range lookup.Users {
		if normalizeEmail(u.Email) == normalized && (excludeID == 0 || u.ID != excludeID) {
			return true
		}
	}
	return false
}

// CreateUser runs the add flow: pre-check, create, success toast, then a
// refresh filtered to the new user on page 1. The returned error tells the
// form whether to stay open; the user has already been notified.
func (o *Orchestrator) CreateUser(ctx context.Context, name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if o.emailExists(ctx, email, 0) {
		o.presenter.Notify("warning", MsgDuplicate)
		return ErrConflict
	}

	created, err := o.api.AddUser(ctx, User{Name: name, Email: email})
	if err != nil {
		o.presenter.Notify("error", errorMessage(err, MsgCreateFail))
		o.logger.Error("cannot create user", "error", err)
		return err
	}

	o.presenter.Notify("success", MsgCreated)

	filter := created.Email
	if filter == "" {
		filter = created.Name
	}
	o.mu.Lock()
	o.state.Query = strings.TrimSpace(filter)
	o.state.Page = 1
	o.mu.Unlock()
	o.Refresh(ctx)
	return nil
}

// UpdateUser runs the edit flow for an existing record.
func (o *Orchestrator) UpdateUser(ctx context.Context, u User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)

	if o.emailExists(ctx, u.Email, u.ID) {
		o.presenter.Notify("warning", MsgDuplicate)
		return ErrConflict
	}

	if err := o.api.UpdateUser(ctx, u); err != nil {
		o.presenter.Notify("error", errorMessage(err, MsgUpdateFail))
		o.logger.Error("cannot update user", "error", err, "id", u.ID)
		return err
	}

	o.presenter.Notify("success", MsgUpdated)
	o.Refresh(ctx)
	return nil
}

// DeleteUser runs the delete flow.
func (o *Orchestrator) DeleteUser(ctx context.Context, id int64) error {
	if err := o.api.DeleteUser(ctx, id); err != nil {
		o.presenter.Notify("error", errorMessage(err, MsgDeleteFail))
		o.logger.Error("cannot delete user", "error", err, "id", id)
		return err
	}

	o.presenter.Notify("success", MsgDeleted)
	o.Refresh(ctx)
	return nil
}

// errorMessage maps an error onto the fixed message set.
func errorMessage(err error, fallback string) string {
	var te *TransportError
	switch {
	case errors.Is(err, ErrConflict):
		return MsgDuplicate
	case errors.Is(err, ErrNotFound):
		return MsgNotFound
	case errors.As(err, &te):
		return MsgNoAPI
	}
	return fallback
}
