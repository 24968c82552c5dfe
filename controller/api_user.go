package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/userdeskapp/userdesk/model"

	"github.com/labstack/echo/v4"
)

type APIError struct {
	Code    string `json:"code" xml:"code"`
	Message string `json:"message" xml:"message"`
}

func apiError(code, msg string) *APIError { return &APIError{Code: code, Message: msg} }

func wantsXML(c echo.Context) bool {
	if c.QueryParam("format") == "xml" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, "application/xml") || strings.Contains(accept, "text/xml")
}

func respond(c echo.Context, status int, v any) error {
	if wantsXML(c) {
		return c.XML(status, v)
	}
	return c.JSON(status, v)
}

// ---- DTOs ----

type APIUser struct {
	ID      uint      `json:"id" xml:"id,attr"`
	Name    string    `json:"name" xml:"name"`
	Email   string    `json:"email" xml:"email"`
	Created time.Time `json:"created" xml:"created"`
}

type APIUserList struct {
	XMLName struct{}  `json:"-" xml:"users"`
	Users   []APIUser `json:"users" xml:"user"`
	Total   int64     `json:"total" xml:"total,attr"`
	Page    int       `json:"page" xml:"page,attr"`
	Limit   int       `json:"limit" xml:"limit,attr"`
}

// APIUserInput is the write payload. The id is signed so that clients may
// send the -1 sentinel to request assignment by the storage layer.
type APIUserInput struct {
	ID      int64  `json:"id" xml:"id"`
	Name    string `json:"name" xml:"name"`
	Email   string `json:"email" xml:"email"`
	Created string `json:"created,omitempty" xml:"created,omitempty"`
}

// userEnvelope wraps write payloads the way the browser client sends them.
type userEnvelope struct {
	User APIUserInput `json:"user" xml:"user"`
}

func userToAPI(u *model.User) APIUser {
	return APIUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Created: u.CreatedAt,
	}
}

func (ctrl *controller) userInit(e *echo.Echo) {
	api := e.Group("/api/users")
	api.GET("/all", ctrl.userList)
	api.POST("/add", ctrl.userAdd)
	api.PUT("/update", ctrl.userUpdate)
	api.DELETE("/delete/:id", ctrl.userDelete)
}

// intQueryParam parses a numeric query parameter. Malformed or missing
// values yield the fallback instead of an error.
func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return fallback
}

// userList handles GET /api/users/all
func (ctrl *controller) userList(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	page := intQueryParam(c, "page", model.DefaultPage)
	limit := intQueryParam(c, "limit", model.DefaultLimit)
	if limit > 200 {
		limit = 200
	}

	result, err := ctrl.model.ListUsers(q, page, limit)
	if err != nil {
		return ErrInternal(fmt.Errorf("cannot list users: %w", err))
	}

	users := make([]APIUser, len(result.Users))
	for i := range result.Users {
		users[i] = userToAPI(&result.Users[i])
	}

	return respond(c, http.StatusOK, APIUserList{
		Users: users,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	})
}

func validateUserInput(in *APIUserInput) *APIError {
	if strings.TrimSpace(in.Name) == "" {
		return apiError("validation_error", "name is required")
	}
	if model.NormalizeEmail(in.Email) == "" {
		return apiError("validation_error", "email is required")
	}
	return nil
}

// userAdd handles POST /api/users/add
func (ctrl *controller) userAdd(c echo.Context) error {
	var in userEnvelope
	if err := c.Bind(&in); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid request body"))
	}
	if apiErr := validateUserInput(&in.User); apiErr != nil {
		return respond(c, http.StatusBadRequest, apiErr)
	}

	// The storage layer owns id assignment; the sentinel (or any id the
	// client sends) is ignored on create.
	u := &model.User{
		Name:  strings.TrimSpace(in.User.Name),
		Email: model.NormalizeEmail(in.User.Email),
	}
	if err := ctrl.model.CreateUser(u); err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return ErrConflict(err, "Email already exists")
		}
		return ErrInternal(fmt.Errorf("cannot create user: %w", err))
	}

	c.Response().Header().Set("Location", "/api/users/"+strconv.FormatUint(uint64(u.ID), 10))
	return respond(c, http.StatusCreated, userEnvelopeOut{User: userToAPI(u)})
}

type userEnvelopeOut struct {
	XMLName struct{} `json:"-" xml:"user"`
	User    APIUser  `json:"user" xml:"user"`
}

// userUpdate handles PUT /api/users/update
func (ctrl *controller) userUpdate(c echo.Context) error {
	var in userEnvelope
	if err := c.Bind(&in); err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid request body"))
	}
	if in.User.ID <= 0 {
		return respond(c, http.StatusBadRequest, apiError("validation_error", "id is required"))
	}
	if apiErr := validateUserInput(&in.User); apiErr != nil {
		return respond(c, http.StatusBadRequest, apiErr)
	}

	u := &model.User{
		Name:  strings.TrimSpace(in.User.Name),
		Email: model.NormalizeEmail(in.User.Email),
	}
	u.ID = uint(in.User.ID)
	if err := ctrl.model.UpdateUser(u); err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			return ErrNotFound(err, "User not found")
		case errors.Is(err, model.ErrEmailExists):
			return ErrConflict(err, "Email already exists")
		}
		return ErrInternal(fmt.Errorf("cannot update user: %w", err))
	}

	return respond(c, http.StatusOK, map[string]any{})
}

// userDelete handles DELETE /api/users/delete/:id
func (ctrl *controller) userDelete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return respond(c, http.StatusBadRequest, apiError("bad_request", "invalid id"))
	}

	if err := ctrl.model.DeleteUser(uint(id)); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return ErrNotFound(err, "User not found")
		}
		return ErrInternal(fmt.Errorf("cannot delete user: %w", err))
	}

	return respond(c, http.StatusOK, map[string]any{})
}
