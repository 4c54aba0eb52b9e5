package user

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/middleware"
)

func withUser(r *http.Request, id string, superuser bool) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, id)
	ctx = context.WithValue(ctx, middleware.SuperuserKey, superuser)
	return r.WithContext(ctx)
}

// MockUpdater mocks the Updater interface.
type MockUpdater struct {
	mock.Mock
}

func (m *MockUpdater) UpdateUser(ctx context.Context, id string, upd Update) (*User, error) {
	args := m.Called(ctx, id, upd)
	u, _ := args.Get(0).(*User)
	return u, args.Error(1)
}

// codeErr stands in for the auth package's validation error.
type codeErr string

func (e codeErr) Error() string     { return string(e) }
func (e codeErr) ErrorCode() string { return string(e) }

func newRouter(store *MockStore) http.Handler {
	return newRouterWithUpdater(store, &MockUpdater{})
}

func newRouterWithUpdater(store *MockStore, updater *MockUpdater) http.Handler {
	h := NewHandler(newTestService(store), updater, logger.Nop())
	r := chi.NewRouter()
	r.Get("/users/me", h.GetMe)
	r.Patch("/users/me", h.UpdateMe)
	r.Get("/users/{id}", h.Get)
	r.Patch("/users/{id}", h.UpdateByID)
	r.Delete("/users/{id}", h.Delete)
	return r
}

func TestHandler_GetMe(t *testing.T) {
	t.Run("returns caller", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetByID", mock.Anything, testUserID).
			Return(&User{ID: testUserID, Email: "ann@example.com", HashedPassword: "secret-hash", IsActive: true}, nil)

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), testUserID, false))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"ann@example.com"`)
		assert.Contains(t, rec.Body.String(), `"is_active":true`)
		assert.NotContains(t, rec.Body.String(), "secret-hash")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&MockStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store error", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetByID", mock.Anything, testUserID).Return(nil, errors.New("boom"))

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/users/me", nil), testUserID, false))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})
}

func TestHandler_Delete(t *testing.T) {
	const target = "9b2f6b56-2f0f-4b5e-8a41-61a9b7a0c001"

	t.Run("forbidden for regular users", func(t *testing.T) {
		store := &MockStore{}
		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodDelete, "/users/"+target, nil), testUserID, false))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("superuser deletes", func(t *testing.T) {
		store := &MockStore{}
		store.On("Delete", mock.Anything, target).Return([]string{}, nil)

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodDelete, "/users/"+target, nil), testUserID, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"user deleted"}`, rec.Body.String())
		store.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		store := &MockStore{}
		store.On("Delete", mock.Anything, target).Return(nil, ErrNotFound)

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodDelete, "/users/"+target, nil), testUserID, true))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_UpdateMe(t *testing.T) {
	patch := func(router http.Handler, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(body)), testUserID, false)
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("changes email and password", func(t *testing.T) {
		updater := &MockUpdater{}
		updater.On("UpdateUser", mock.Anything, testUserID, mock.MatchedBy(func(u Update) bool {
			return *u.Email == "ann@example.org" && *u.Password == "brand-new-horse"
		})).Return(&User{ID: testUserID, Email: "ann@example.org", HashedPassword: "new-hash"}, nil)

		rec := patch(newRouterWithUpdater(&MockStore{}, updater), `{"email":"ann@example.org","password":"brand-new-horse"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"ann@example.org"`)
		assert.NotContains(t, rec.Body.String(), "new-hash")
		updater.AssertExpectations(t)
	})

	t.Run("account flags are ignored", func(t *testing.T) {
		updater := &MockUpdater{}
		updater.On("UpdateUser", mock.Anything, testUserID, mock.MatchedBy(func(u Update) bool {
			return u.IsSuperuser == nil && u.IsActive == nil && u.IsVerified == nil
		})).Return(&User{ID: testUserID}, nil)

		rec := patch(newRouterWithUpdater(&MockStore{}, updater), `{"is_superuser":true,"is_active":true,"is_verified":true}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		updater.AssertExpectations(t)
	})

	errorCases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"email taken", ErrAlreadyExists, http.StatusBadRequest, `{"detail":"UPDATE_USER_EMAIL_ALREADY_EXISTS"}`},
		{"invalid password", codeErr("UPDATE_USER_INVALID_PASSWORD"), http.StatusBadRequest, `{"detail":"UPDATE_USER_INVALID_PASSWORD"}`},
		{"store failure", errors.New("conn reset"), http.StatusInternalServerError, `{"detail":"internal server error"}`},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			updater := &MockUpdater{}
			updater.On("UpdateUser", mock.Anything, testUserID, mock.Anything).Return(nil, tt.err)

			rec := patch(newRouterWithUpdater(&MockStore{}, updater), `{"email":"bob@example.com"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		updater := &MockUpdater{}
		rec := patch(newRouterWithUpdater(&MockStore{}, updater), `{`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		updater.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&MockStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/users/me", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandler_Get(t *testing.T) {
	const target = "9b2f6b56-2f0f-4b5e-8a41-61a9b7a0c001"

	t.Run("forbidden for regular users", func(t *testing.T) {
		store := &MockStore{}
		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/users/"+target, nil), testUserID, false))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("superuser reads any user", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetByID", mock.Anything, target).Return(&User{ID: target, Email: "bob@example.com"}, nil)

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/users/"+target, nil), testUserID, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"bob@example.com"`)
	})

	t.Run("not found", func(t *testing.T) {
		store := &MockStore{}
		store.On("GetByID", mock.Anything, target).Return(nil, ErrNotFound)

		rec := httptest.NewRecorder()
		newRouter(store).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/users/"+target, nil), testUserID, true))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_UpdateByID(t *testing.T) {
	const target = "9b2f6b56-2f0f-4b5e-8a41-61a9b7a0c001"

	t.Run("forbidden for regular users", func(t *testing.T) {
		updater := &MockUpdater{}
		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/"+target, strings.NewReader(`{"is_active":false}`)), testUserID, false)
		newRouterWithUpdater(&MockStore{}, updater).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		updater.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("superuser sets flags", func(t *testing.T) {
		updater := &MockUpdater{}
		updater.On("UpdateUser", mock.Anything, target, mock.MatchedBy(func(u Update) bool {
			return u.IsActive != nil && !*u.IsActive && u.IsSuperuser != nil && *u.IsSuperuser
		})).Return(&User{ID: target, IsSuperuser: true}, nil)

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/"+target, strings.NewReader(`{"is_active":false,"is_superuser":true}`)), testUserID, true)
		newRouterWithUpdater(&MockStore{}, updater).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"is_superuser":true`)
		updater.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		updater := &MockUpdater{}
		updater.On("UpdateUser", mock.Anything, target, mock.Anything).Return(nil, ErrNotFound)

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPatch, "/users/"+target, strings.NewReader(`{}`)), testUserID, true)
		newRouterWithUpdater(&MockStore{}, updater).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
