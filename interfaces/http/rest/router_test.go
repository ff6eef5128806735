package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathfinder-backend/application/services"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/infrastructure/documents"
	"pathfinder-backend/infrastructure/llm"
	"pathfinder-backend/infrastructure/locking"
	"pathfinder-backend/infrastructure/messaging"
	"pathfinder-backend/infrastructure/persistence/memory"
	"pathfinder-backend/interfaces/http/rest/handlers"
	"pathfinder-backend/interfaces/http/rest/middleware"
	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
	"pathfinder-backend/pkg/observability"
)

type stubDecomposer struct {
	prereqs valueobjects.PrerequisiteMap
}

func (s stubDecomposer) Decompose(context.Context, string) (valueobjects.PrerequisiteMap, error) {
	return s.prereqs, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	handler http.Handler
	store   *memory.Store
}

type serverOption func(*testOptions)

type testOptions struct {
	pinger  Pinger
	ipLimit auth.RateLimiter
}

func withPinger(p Pinger) serverOption { return func(o *testOptions) { o.pinger = p } }

func withIPLimiter(l auth.RateLimiter) serverOption { return func(o *testOptions) { o.ipLimit = l } }

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	o := testOptions{pinger: store}
	for _, opt := range opts {
		opt(&o)
	}

	metrics := observability.NewCollector("pathfinder")
	settings := domainconfig.Static(domainconfig.DefaultDomainConfig())

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "pathfinder-test"})
	require.NoError(t, err)

	fileStore, err := documents.NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	decomposer := stubDecomposer{prereqs: valueobjects.NewPrerequisiteMap(
		valueobjects.PrerequisiteEntry{Prerequisite: "Variables", Dependent: "Loops"},
		valueobjects.PrerequisiteEntry{Prerequisite: "Loops", Dependent: "Recursion"},
		valueobjects.PrerequisiteEntry{Prerequisite: "Recursion", Dependent: valueobjects.RootSentinel},
	)}

	graphStore := services.NewGraphStoreService(store, locking.NewLocalLocker(), messaging.NewLogPublisher(logger), settings, metrics, logger)
	graphQueries := services.NewGraphQueryService(graphStore)
	roadmaps := services.NewRoadmapService(graphStore, settings, metrics, logger)
	authService := services.NewAuthService(store, auth.NewBcryptHasher(4), jwtService, logger)
	uploads := services.NewUploadService(fileStore, documents.NewExtractor(1<<20, logger), store, graphStore, llm.Disabled{}, logger)
	learning := services.NewLearningService(graphStore, decomposer, llm.Disabled{}, logger)

	errs := pkgerrors.NewErrorHandler(logger, false, handlers.TranslateError)
	authenticator := middleware.NewAuthenticator(jwtService, middleware.RateLimits{IP: o.ipLimit, IPPerMinute: 1}, errs, logger)

	router := NewRouter(
		handlers.NewAuthHandler(authService, errs, logger),
		handlers.NewGraphHandler(graphStore, graphQueries, uploads, errs, logger),
		handlers.NewRoadmapHandler(roadmaps, errs, logger),
		handlers.NewUploadHandler(uploads, 1<<20, errs, logger),
		handlers.NewLearningHandler(learning, errs, logger),
		authenticator,
		errs,
		metrics,
		o.pinger,
		RouterOptions{EnableMetrics: true},
		logger,
	)
	return &testServer{handler: router.Setup(), store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func (s *testServer) createGraph(t *testing.T, token, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/graphs", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Graph struct {
			ID string `json:"id"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Graph.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) pkgerrors.ErrorResponse {
	t.Helper()
	var resp pkgerrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("Should report healthy and ready", func(t *testing.T) {
		srv := newTestServer(t)

		w := srv.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")

		w = srv.do(t, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should report unavailable when the store is down", func(t *testing.T) {
		srv := newTestServer(t, withPinger(failingPinger{}))

		w := srv.do(t, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "ada")

	t.Run("Should log in with the registered password", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ada", "password": "correct-horse"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("Should reject a wrong password", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "ada", "password": "wrong-horse"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, w).Code)
	})

	t.Run("Should reject a duplicate username", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "ada", "email": "other@example.com", "password": "correct-horse",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Should validate registration input", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "x", "email": "not-an-email", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Code)
	})

	t.Run("Should return the current user", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"ada"`)
		assert.NotContains(t, w.Body.String(), "correct-horse")
	})

	t.Run("Should require a token", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/graphs", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "MISSING_TOKEN", decodeError(t, w).Code)
	})

	t.Run("Should reject a forged token", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/graphs", "not.a.token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_TOKEN", decodeError(t, w).Code)
	})
}

func TestRateLimitedLogin(t *testing.T) {
	limiter := auth.NewTokenBucketLimiter(1, 1)
	defer limiter.Close()
	srv := newTestServer(t, withIPLimiter(limiter))

	body := map[string]string{"username": "nobody", "password": "whatever1"}
	first := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
}

func TestGraphLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "grace")
	graphID := srv.createGraph(t, token, "Algorithms")
	base := "/api/v1/graphs/" + graphID

	t.Run("Should import topics and report skipped connections", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, base+"/import", token, map[string]interface{}{
			"topics": []map[string]string{
				{"name": "Arrays"}, {"name": "Sorting"}, {"name": "Binary Search"}, {"name": "Graphs"},
			},
			"connections": []map[string]string{
				{"from_topic": "Arrays", "to_topic": "Sorting"},
				{"from_topic": "Sorting", "to_topic": "Binary Search"},
				{"from_topic": "Arrays", "to_topic": "Binary Search"},
				{"from_topic": "Trees", "to_topic": "Graphs"},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result struct {
			ImportedTopics      int `json:"imported_topics"`
			ImportedConnections int `json:"imported_connections"`
			SkippedConnections  []struct {
				Reason string `json:"reason"`
			} `json:"skipped_connections"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 4, result.ImportedTopics)
		assert.Equal(t, 3, result.ImportedConnections)
		require.Len(t, result.SkippedConnections, 1)
		assert.Equal(t, "unresolved_from", result.SkippedConnections[0].Reason)
	})

	t.Run("Should list the graph with its nodes and edges", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, base, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var snap struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
			Edges []json.RawMessage `json:"edges"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Len(t, snap.Nodes, 4)
		assert.Len(t, snap.Edges, 3)

		var sortingID string
		for _, n := range snap.Nodes {
			if n.Name == "Sorting" {
				sortingID = n.ID
			}
		}
		require.NotEmpty(t, sortingID)

		w = srv.do(t, http.MethodGet, base+"/nodes/"+sortingID, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"prerequisites":[{"id"`)
		assert.Contains(t, w.Body.String(), "Binary Search")
	})

	t.Run("Should find every learning path", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, base+"/roadmap?start=Arrays&target=Binary+Search", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var roadmap struct {
			Paths     [][]string `json:"paths"`
			Truncated bool       `json:"truncated"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roadmap))
		assert.ElementsMatch(t, [][]string{
			{"Arrays", "Sorting", "Binary Search"},
			{"Arrays", "Binary Search"},
		}, roadmap.Paths)
		assert.False(t, roadmap.Truncated)
	})

	t.Run("Should return an empty path list when the target is unreachable", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, base+"/roadmap?start=Graphs&target=Arrays", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"paths":[]`)
	})

	t.Run("Should report an unknown start topic", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, base+"/roadmap?start=Nope&target=Arrays", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "START_TOPIC_NOT_FOUND", decodeError(t, w).Code)
	})

	t.Run("Should apply a prerequisite hierarchy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/hierarchy",
			strings.NewReader(`{"Sorting": "Heaps", "Heaps": "Graphs", "Graphs": "ROOT"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result struct {
			CreatedTopics      int `json:"created_topics"`
			CreatedConnections int `json:"created_connections"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 1, result.CreatedTopics)
		assert.Equal(t, 2, result.CreatedConnections)

		w = srv.do(t, http.MethodGet, base+"/edges", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"from_topic":"Heaps","to_topic":"Graphs"`)
	})

	t.Run("Should hide the graph from other users", func(t *testing.T) {
		other := srv.register(t, "mallory")
		w := srv.do(t, http.MethodGet, base, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = srv.do(t, http.MethodGet, "/api/v1/graphs", other, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"graphs":[]}`, w.Body.String())
	})

	t.Run("Should reject a malformed graph id", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/graphs/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should delete the graph", func(t *testing.T) {
		w := srv.do(t, http.MethodDelete, base, token, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = srv.do(t, http.MethodGet, base, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDecomposeAndExplain(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "linus")

	w := srv.do(t, http.MethodPost, "/api/v1/decompose", token, map[string]string{"topic": "Recursion"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		Graph struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"graph"`
		Hierarchy struct {
			Topics map[string]string `json:"topics"`
		} `json:"hierarchy"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Recursion", result.Graph.Name)
	require.Contains(t, result.Hierarchy.Topics, "Loops")

	w = srv.do(t, http.MethodGet, "/api/v1/graphs/"+result.Graph.ID+"/roadmap?start=Variables&target=Recursion", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `["Variables","Loops","Recursion"]`)

	t.Run("Should report the tutor as unavailable when no model is configured", func(t *testing.T) {
		path := "/api/v1/graphs/" + result.Graph.ID + "/nodes/" + result.Hierarchy.Topics["Loops"] + "/explain"
		w := srv.do(t, http.MethodPost, path, token, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "LLM_DISABLED", decodeError(t, w).Code)
	})
}

func TestUploads(t *testing.T) {
	srv := newTestServer(t)
	token := srv.register(t, "barbara")

	upload := func(t *testing.T, filename, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.handler.ServeHTTP(w, req)
		return w
	}

	t.Run("Should store a text document", func(t *testing.T) {
		w := upload(t, "notes.txt", "Graphs are made of vertices and edges.")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var out struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "notes", out.Title)

		w = srv.do(t, http.MethodGet, "/api/v1/uploads/"+out.ID, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject an unsupported format", func(t *testing.T) {
		w := upload(t, "image.png", "\x89PNG")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should require the file field", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/uploads", token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_UPLOAD", decodeError(t, w).Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/health", "", nil)

	w := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pathfinder_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, decodeError(t, w).Error)
}

func TestAPIDocs(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/docs/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var doc struct {
		Swagger  string                     `json:"swagger"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{"/auth/register", "/graphs/{graphID}/import", "/graphs/{graphID}/roadmap", "/uploads"} {
		assert.Contains(t, doc.Paths, path)
	}
}
