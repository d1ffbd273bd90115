package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// newTestRouter mounts the handlers the way the server does, with an
// identity injected in place of the auth middleware. A nil userID leaves
// requests unauthenticated.
func newTestRouter(t *testing.T, auth *AuthHandler, tasks *TaskHandler, userID uuid.UUID) (http.Handler, *logger.TestLogBuffer) {
	t.Helper()

	log, logs := logger.NewTestLogger(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.SetTraceID(req.Context())
			ctx = logger.WithLogger(ctx, log)
			if userID != uuid.Nil {
				ctx = shared.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	if auth != nil {
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)
	}
	if tasks != nil {
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", tasks.CreateTask)
			r.Get("/", tasks.ListTasks)
			r.Get("/stats", tasks.GetStats)
			r.Put("/{id}", tasks.UpdateTask)
			r.Delete("/{id}", tasks.DeleteTask)
		})
	}
	return r, logs
}

func doRequest(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
