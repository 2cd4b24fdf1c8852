package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/supplier-workflow/internal/application/port"
	"github.com/garyjia/supplier-workflow/internal/application/service"
	"github.com/garyjia/supplier-workflow/internal/application/workflow"
	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

const testSecret = "test-secret"

var (
	purchasing = domainwf.Actor{ID: 1, Role: domainwf.RolePurchasing}
	supplier   = domainwf.Actor{ID: 4, Role: domainwf.RoleSupplier, CompanyID: 42}
)

type fixture struct {
	claims      *mockClaimService
	ratings     *mockRatingService
	audit       *mockAuditService
	coordinator *mockCoordinator
	logger      *mockLogger
	server      *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		claims:      &mockClaimService{},
		ratings:     &mockRatingService{},
		audit:       &mockAuditService{},
		coordinator: &mockCoordinator{},
		logger:      &mockLogger{},
	}
	cfg := DefaultServerConfig()
	cfg.AuthSecret = testSecret

	server, err := NewServer(cfg, Services{
		Claims:      f.claims,
		Ratings:     f.ratings,
		Audit:       f.audit,
		Coordinator: f.coordinator,
	}, func() (bool, interface{}) {
		return true, map[string]string{"database": "ok"}
	}, f.logger)
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) do(t *testing.T, method, path string, actor *domainwf.Actor, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := SignActorToken(testSecret, *actor, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewServer_RequiresSecret(t *testing.T) {
	_, err := NewServer(DefaultServerConfig(), Services{}, nil, &mockLogger{})
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok"}, data["components"])
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultServerConfig()
	cfg.AuthSecret = testSecret
	server, err := NewServer(cfg, Services{}, func() (bool, interface{}) { return false, nil }, &mockLogger{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/claims", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decode(t, rec).Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := SignActorToken("other-secret", purchasing, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := SignActorToken(testSecret, purchasing, -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestActorToken_RoundTrip(t *testing.T) {
	token, err := SignActorToken(testSecret, supplier, time.Hour)
	require.NoError(t, err)

	actor, err := ParseActorToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, supplier, actor)
}

func TestSignActorToken_RejectsBadActors(t *testing.T) {
	_, err := SignActorToken(testSecret, domainwf.Actor{ID: 1, Role: "admin"}, time.Hour)
	assert.Error(t, err)

	_, err = SignActorToken(testSecret, domainwf.Actor{ID: 4, Role: domainwf.RoleSupplier}, time.Hour)
	assert.Error(t, err, "supplier without company")

	_, err = SignActorToken("", purchasing, time.Hour)
	assert.Error(t, err)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: claim 9", domainwf.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: area", domainwf.ErrValidationFailed), http.StatusUnprocessableEntity, "validation_failed"},
		{domainwf.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{domainwf.ErrConflict, http.StatusConflict, "conflict"},
		{domainwf.ErrWindowExpired, http.StatusForbidden, "not_eligible"},
		{domainwf.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: disk I/O", domainwf.ErrStorage), http.StatusInternalServerError, "internal"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCreateClaim(t *testing.T) {
	f := newFixture(t)
	f.claims.createFunc = func(ctx context.Context, actor domainwf.Actor, input service.CreateClaimInput) (*entity.Claim, error) {
		assert.Equal(t, purchasing, actor)
		assert.True(t, decimal.RequireFromString("1250.50").Equal(input.DamageAmount))
		return &entity.Claim{ID: 7, ClaimNumber: "CLM-2026-001", Status: domainwf.StateNew.String()}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/claims", &purchasing, map[string]interface{}{
		"supplier_id":   42,
		"area":          "SITE",
		"damage_amount": "1250.50",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decode(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "CLM-2026-001", data["claim_number"])
}

func TestCreateClaim_ValidationError(t *testing.T) {
	f := newFixture(t)
	f.claims.createFunc = func(ctx context.Context, actor domainwf.Actor, input service.CreateClaimInput) (*entity.Claim, error) {
		return nil, fmt.Errorf("%w: claim_description is required", domainwf.ErrValidationFailed)
	}

	rec := f.do(t, http.MethodPost, "/api/claims", &purchasing, map[string]interface{}{"supplier_id": 42})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "claim_description is required")
}

func TestCreateClaim_MalformedBody(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"truncated json", http.MethodPost, "/api/claims", "{", http.StatusBadRequest, "bad_request"},
		{"empty body", http.MethodPost, "/api/claims", "", http.StatusBadRequest, "bad_request"},
		{"unparseable amount", http.MethodPost, "/api/claims", `{"supplier_id":42,"damage_amount":"lots"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"wrong field type", http.MethodPost, "/api/claims", `{"supplier_id":"acme"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"edit with unparseable amount", http.MethodPatch, "/api/claims/7", `{"damage_amount":"lots"}`, http.StatusUnprocessableEntity, "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.claims.createFunc = func(ctx context.Context, actor domainwf.Actor, input service.CreateClaimInput) (*entity.Claim, error) {
				t.Fatal("service must not be called")
				return nil, nil
			}
			f.claims.editFunc = func(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error) {
				t.Fatal("service must not be called")
				return nil, nil
			}

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			token, _ := SignActorToken(testSecret, purchasing, time.Hour)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			f.server.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec).Code)
		})
	}
}

func TestListClaims_PassesFilter(t *testing.T) {
	f := newFixture(t)
	var got port.ClaimFilter
	f.claims.listFunc = func(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) ([]*entity.Claim, error) {
		got = filter
		return nil, nil
	}

	rec := f.do(t, http.MethodGet, "/api/claims?status=APPROVED&supplier_id=42&limit=10&offset=20", &purchasing, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, port.ClaimFilter{Status: "APPROVED", SupplierID: 42, Limit: 10, Offset: 20}, got)
	assert.Equal(t, []interface{}{}, decode(t, rec).Data)
}

func TestGetClaim_IncludesEligibility(t *testing.T) {
	f := newFixture(t)
	f.coordinator.describeFunc = func(ctx context.Context, entityType string, entityID int64, actor domainwf.Actor) (*workflow.View, error) {
		assert.Equal(t, entity.EntityTypeClaim, entityType)
		assert.Equal(t, int64(9), entityID)
		return &workflow.View{
			EntityType:  entityType,
			EntityID:    entityID,
			Status:      domainwf.StateSentToSupplier.String(),
			Eligibility: workflow.Eligibility{CanRespond: true},
		}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/claims/9", &supplier, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec).Data.(map[string]interface{})
	eligibility := data["eligibility"].(map[string]interface{})
	assert.Equal(t, true, eligibility["canRespond"])
	assert.Equal(t, false, eligibility["canApprove"])
}

func TestGetClaim_InvalidID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/claims/abc", &purchasing, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditClaim(t *testing.T) {
	f := newFixture(t)
	f.claims.editFunc = func(ctx context.Context, actor domainwf.Actor, id int64, patch entity.ClaimPatch) (*entity.Claim, error) {
		require.NotNil(t, patch.SupplierResponse)
		assert.Equal(t, "we disagree", *patch.SupplierResponse)
		assert.False(t, patch.TouchesInternalFields())
		return &entity.Claim{ID: id, SupplierResponse: *patch.SupplierResponse}, nil
	}

	rec := f.do(t, http.MethodPatch, "/api/claims/9", &supplier, map[string]interface{}{"supplier_response": "we disagree"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransitionClaim(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"applied", nil, http.StatusOK},
		{"wrong state", fmt.Errorf("%w: operations cannot approve in LEGAL_APPROVED", domainwf.ErrInvalidTransition), http.StatusConflict},
		{"lost update", domainwf.ErrConflict, http.StatusConflict},
		{"missing", domainwf.ErrNotFound, http.StatusNotFound},
		{"store down", fmt.Errorf("%w: update claim: disk full", domainwf.ErrStorage), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.coordinator.applyFunc = func(ctx context.Context, req workflow.TransitionRequest) (*workflow.TransitionResult, error) {
				assert.Equal(t, entity.EntityTypeClaim, req.EntityType)
				assert.Equal(t, int64(9), req.EntityID)
				assert.Equal(t, "approve", req.Action)
				assert.Equal(t, "looks fine", req.Comment)
				if tt.err != nil {
					return nil, tt.err
				}
				return &workflow.TransitionResult{EntityType: entity.EntityTypeClaim, FromStatus: "NEW", ToStatus: "APPROVED"}, nil
			}

			rec := f.do(t, http.MethodPost, "/api/claims/9/transitions", &purchasing, TransitionRequest{Action: "approve", Comment: "looks fine"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decode(t, rec).Error)
				assert.Contains(t, f.logger.errors, "Claim transition failed")
			}
		})
	}
}

func TestTransitionClaim_RequiresAction(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/claims/9/transitions", &purchasing, map[string]string{"comment": "x"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptRating(t *testing.T) {
	f := newFixture(t)
	f.coordinator.applyFunc = func(ctx context.Context, req workflow.TransitionRequest) (*workflow.TransitionResult, error) {
		assert.Equal(t, entity.EntityTypeRating, req.EntityType)
		assert.Equal(t, domainwf.TriggerAccept.String(), req.Action)
		assert.Equal(t, supplier, req.Actor)
		return nil, domainwf.ErrWindowExpired
	}

	rec := f.do(t, http.MethodPost, "/api/ratings/5/accept", &supplier, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "not_eligible", resp.Code)
	assert.Contains(t, resp.Error, "acceptance window expired")
}

func TestCreateRating(t *testing.T) {
	f := newFixture(t)
	f.ratings.createFunc = func(ctx context.Context, actor domainwf.Actor, input service.CreateRatingInput) (*entity.SupplierRating, error) {
		assert.Equal(t, 5, input.HSERating)
		return &entity.SupplierRating{ID: 5, OverallRating: 4.6}, nil
	}
	ops := domainwf.Actor{ID: 2, Role: domainwf.RoleOperations}

	rec := f.do(t, http.MethodPost, "/api/ratings", &ops, service.CreateRatingInput{SupplierID: 42, ProjectID: 3, HSERating: 5})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 4.6, decode(t, rec).Data.(map[string]interface{})["overall_rating"])
}

func TestListRatings(t *testing.T) {
	f := newFixture(t)
	f.ratings.listFunc = func(ctx context.Context, actor domainwf.Actor, supplierID int64, limit, offset int) ([]*entity.SupplierRating, error) {
		assert.Equal(t, int64(42), supplierID)
		assert.Equal(t, 5, limit)
		return []*entity.SupplierRating{{ID: 1}, {ID: 2}}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/ratings?supplier_id=42&limit=5", &purchasing, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec).Data, 2)
}

func TestRequestRating(t *testing.T) {
	f := newFixture(t)
	f.ratings.requestFunc = func(ctx context.Context, actor domainwf.Actor, input service.RequestRatingInput) (*entity.RatingRequest, error) {
		assert.Equal(t, int64(2), input.EngineerID)
		return &entity.RatingRequest{SupplierID: input.SupplierID, EngineerID: input.EngineerID}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/rating-requests", &purchasing, service.RequestRatingInput{SupplierID: 42, ProjectID: 3, EngineerID: 2})

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.audit.trailFunc = func(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) ([]*entity.AuditEntry, error) {
		if actor.Role == domainwf.RoleSupplier {
			return nil, domainwf.ErrForbidden
		}
		assert.Equal(t, entity.EntityTypeRating, entityType)
		return []*entity.AuditEntry{{ID: 1, Action: entity.AuditActionRatingCreated}}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/ratings/5/audit", &purchasing, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/ratings/5/audit", &supplier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportClaimRegister(t *testing.T) {
	f := newFixture(t)
	f.audit.registerFunc = func(ctx context.Context, actor domainwf.Actor, filter port.ClaimFilter) (*service.Export, error) {
		assert.Equal(t, "APPROVED", filter.Status)
		return &service.Export{FileName: "claim-register.xlsx", Content: []byte("PK")}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/claims/export?status=APPROVED", &purchasing, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="claim-register.xlsx"`)
	assert.Equal(t, "PK", rec.Body.String())
}

func TestExportClaimAudit(t *testing.T) {
	f := newFixture(t)
	f.audit.exportFunc = func(ctx context.Context, actor domainwf.Actor, entityType string, entityID int64) (*service.Export, error) {
		assert.Equal(t, entity.EntityTypeClaim, entityType)
		assert.Equal(t, int64(9), entityID)
		return &service.Export{FileName: "audit-claim-9.xlsx", Content: []byte("PK")}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/claims/9/audit/export", &purchasing, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
