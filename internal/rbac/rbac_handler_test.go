package rbac

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	enforceFn func(ctx context.Context, req EnforceRequest) (bool, error)
}

func (f *fakeService) LoadCompanyPolicy(ctx context.Context, companyID string) error {
	return nil
}

func (f *fakeService) Enforce(ctx context.Context, req EnforceRequest) (bool, error) {
	return f.enforceFn(ctx, req)
}

func (f *fakeService) Can(ctx context.Context, companyID, employeeID, resource, action string) (bool, error) {
	return f.enforceFn(ctx, EnforceRequest{CompanyID: companyID, EmployeeID: employeeID, Resource: resource, Action: action})
}

func newEnforceRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/rbac/enforce", func(c *gin.Context) {
		c.Set("company_id", "company-1")
		c.Next()
	}, NewHandler(svc).Enforce)
	return router
}

func TestHandler_Enforce(t *testing.T) {
	t.Run("success uses token company", func(t *testing.T) {
		svc := &fakeService{enforceFn: func(ctx context.Context, req EnforceRequest) (bool, error) {
			assert.Equal(t, "company-1", req.CompanyID)
			return req.Resource == ResourceLeave && req.Action == ActionManage, nil
		}}

		body, _ := json.Marshal(EnforceRequest{EmployeeID: "emp-1", CompanyID: "company-9", Resource: "leave", Action: "manage"})
		req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newEnforceRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Ok   bool            `json:"ok"`
			Data EnforceResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Allowed)
	})

	t.Run("negative missing fields", func(t *testing.T) {
		svc := &fakeService{}
		req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBufferString(`{"employee_id":"emp-1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newEnforceRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative service error hidden", func(t *testing.T) {
		svc := &fakeService{enforceFn: func(ctx context.Context, req EnforceRequest) (bool, error) {
			return false, errors.New("casbin adapter exploded")
		}}
		body, _ := json.Marshal(EnforceRequest{EmployeeID: "emp-1", Resource: "leave", Action: "manage"})
		req := httptest.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		newEnforceRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "exploded")
	})
}
