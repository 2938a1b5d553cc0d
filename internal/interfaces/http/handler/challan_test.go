package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldstock/backend/internal/application/apptest"
	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	"github.com/fieldstock/backend/internal/interfaces/http/dto"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

func newChallanTestServer(t *testing.T) (*gin.Engine, *apptest.MemoryStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	store := apptest.NewMemoryStore()
	repos := apptest.NewRepos(store)
	scope := apptest.NewDispatchScope(store)

	challanService := appdispatch.NewChallanService(scope, repos.ChallanRepo())
	returnService := appdispatch.NewReturnService(scope, repos.ChallanRepo(), repos.ReturnRecordRepo())

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine)
	r.Register(NewChallanHandler(challanService, returnService).Routes())
	r.Setup()

	return engine, store
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func challanField(t *testing.T, resp dto.Response, field string) interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", resp.Data)
	return data[field]
}

func TestChallanHandler_Create(t *testing.T) {
	t.Run("creates a draft challan", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		item := store.SeedItem("SCF-001", 20)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"project_id": uuid.NewString(),
			"site_id":    uuid.NewString(),
			"lines": []gin.H{
				{"item_id": item.ID, "quantity": "5"},
			},
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "DRAFT", challanField(t, resp, "status"))
		assert.NotEmpty(t, challanField(t, resp, "challan_number"))
	})

	t.Run("dispatches immediately when transport is supplied", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		item := store.SeedItem("SCF-002", 20)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"project_id": uuid.NewString(),
			"site_id":    uuid.NewString(),
			"lines": []gin.H{
				{"item_id": item.ID, "quantity": "5"},
			},
			"transport": gin.H{
				"vehicle_number": "MH-12-AB-1234",
				"driver_name":    "R. Sharma",
			},
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "SENT", challanField(t, resp, "status"))
	})

	t.Run("rejects a body without project and site", func(t *testing.T) {
		engine, _ := newChallanTestServer(t)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"remarks": "missing everything that matters",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("maps insufficient stock to a conflict", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		item := store.SeedItem("SCF-003", 2)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"project_id": uuid.NewString(),
			"site_id":    uuid.NewString(),
			"lines": []gin.H{
				{"item_id": item.ID, "quantity": "5"},
			},
			"transport": gin.H{
				"vehicle_number": "MH-12-AB-1234",
				"driver_name":    "R. Sharma",
			},
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
	})
}

func TestChallanHandler_GetByID(t *testing.T) {
	t.Run("returns 404 for an unknown challan", func(t *testing.T) {
		engine, _ := newChallanTestServer(t)

		rec, resp := doJSON(t, engine, http.MethodGet, "/api/v1/dispatch/challans/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("returns 400 for a malformed ID", func(t *testing.T) {
		engine, _ := newChallanTestServer(t)

		rec, _ := doJSON(t, engine, http.MethodGet, "/api/v1/dispatch/challans/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChallanHandler_SubmitReturn(t *testing.T) {
	dispatched := func(t *testing.T, engine *gin.Engine, store *apptest.MemoryStore) (string, string) {
		item := store.SeedItem("SCF-010", 20)
		_, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"project_id": uuid.NewString(),
			"site_id":    uuid.NewString(),
			"lines": []gin.H{
				{"item_id": item.ID, "quantity": "10"},
			},
			"transport": gin.H{
				"vehicle_number": "MH-12-AB-1234",
				"driver_name":    "R. Sharma",
			},
		})
		challanID := challanField(t, resp, "id").(string)
		items := challanField(t, resp, "items").([]interface{})
		lineID := items[0].(map[string]interface{})["id"].(string)
		return challanID, lineID
	}

	t.Run("settles a challan with a full return", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		challanID, lineID := dispatched(t, engine, store)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans/"+challanID+"/returns", gin.H{
			"lines": []gin.H{
				{
					"challan_item_id": lineID,
					"entries": []gin.H{
						{"quantity": "10", "outcome": "RETURNED"},
					},
				},
			},
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "RETURNED", challanField(t, resp, "status"))
	})

	t.Run("maps a short submission to 422", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		challanID, lineID := dispatched(t, engine, store)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans/"+challanID+"/returns", gin.H{
			"lines": []gin.H{
				{
					"challan_item_id": lineID,
					"entries": []gin.H{
						{"quantity": "4", "outcome": "RETURNED"},
					},
				},
			},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeReconciliationMismatch, resp.Error.Code)
	})

	t.Run("rejects an unknown outcome before the service runs", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		challanID, lineID := dispatched(t, engine, store)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans/"+challanID+"/returns", gin.H{
			"lines": []gin.H{
				{
					"challan_item_id": lineID,
					"entries": []gin.H{
						{"quantity": "10", "outcome": "MISPLACED"},
					},
				},
			},
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestChallanHandler_Cancel(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		engine, store := newChallanTestServer(t)
		item := store.SeedItem("SCF-020", 20)

		_, created := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans", gin.H{
			"project_id": uuid.NewString(),
			"site_id":    uuid.NewString(),
			"lines": []gin.H{
				{"item_id": item.ID, "quantity": "5"},
			},
		})
		challanID := challanField(t, created, "id").(string)

		rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/dispatch/challans/"+challanID+"/cancel", gin.H{})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}
