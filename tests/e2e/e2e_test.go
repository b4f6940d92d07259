//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aromapos/internal/config"
	"aromapos/internal/infra"
	"aromapos/internal/model"
	"aromapos/internal/router"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string // admin JWT
	dept   uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("aromapos_test"),
		tcPostgres.WithUsername("aromapos"),
		tcPostgres.WithPassword("aromapos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		StoreName:          "AromaPOS Test",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed department + admin user.
	dept := model.Department{Name: "Perfumery", Active: true}
	require.NoError(t, db.Create(&dept).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("aromapos2026"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     "admin.e2e",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
	}).Error)

	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := router.New(cfg, db, rdb, smtpCB)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "aromapos2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, db: db, token: loginBody.AccessToken, dept: dept.ID}
}

func (env *testEnv) seedProduct(t *testing.T, name string, qty int, price float64) uuid.UUID {
	t.Helper()
	p := model.Product{
		SKU:          fmt.Sprintf("SKU-%s", uuid.NewString()[:8]),
		Name:         name,
		DepartmentID: env.dept,
		UnitPrice:    decimal.NewFromFloat(price),
		TrackingMode: model.TrackQuantity,
		StockQty:     qty,
		Active:       true,
	}
	require.NoError(t, env.db.Create(&p).Error)
	return p.ID
}

func (env *testEnv) seedIngredient(t *testing.T, name string, volumeML float64) uuid.UUID {
	t.Helper()
	ing := model.Ingredient{
		DepartmentID: env.dept,
		Name:         name,
		VolumeOnHand: decimal.NewFromFloat(volumeML),
		Active:       true,
	}
	require.NoError(t, env.db.Create(&ing).Error)
	return ing.ID
}

func (env *testEnv) seedPricing(t *testing.T) {
	t.Helper()
	require.NoError(t, env.db.Create(&model.PricingConfig{
		DepartmentID:       env.dept,
		RetailRatePerML:    decimal.NewFromFloat(1.5),
		WholesaleRatePerML: decimal.NewFromFloat(1.2),
		CostTiers: []model.CostTier{
			{MinVolume: decimal.NewFromInt(0), MaxVolume: decimal.NewFromInt(50), Cost: decimal.NewFromInt(10)},
			{MinVolume: decimal.NewFromInt(51), MaxVolume: decimal.NewFromInt(100), Cost: decimal.NewFromInt(18)},
		},
		PresetPrices: []model.PresetPrice{
			{Volume: decimal.NewFromInt(30), Price: decimal.NewFromInt(55)},
		},
	}).Error)
}

func (env *testEnv) productStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, env.db.First(&p, "id = ?", id).Error)
	return p.StockQty
}

func (env *testEnv) ingredientVolume(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var ing model.Ingredient
	require.NoError(t, env.db.First(&ing, "id = ?", id).Error)
	return ing.VolumeOnHand
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Full sale cycle: commit a mixed cart, read it back, list it.
func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	env.seedPricing(t)
	prodID := env.seedProduct(t, "Soap Bar", 20, 5)
	lavID := env.seedIngredient(t, "Lavender", 100)
	vanID := env.seedIngredient(t, "Vanilla", 100)

	saleBody := map[string]any{
		"department_id":  env.dept.String(),
		"payment_method": "cash",
		"amount_paid":    "100",
		"items": []map[string]any{
			{"product_id": prodID.String(), "quantity": 3},
			{"quantity": 1, "mixture": map[string]any{
				"container_volume_ml": "30",
				"ingredients": []map[string]any{
					{"name": "Lavender"},
					{"name": "vanilla"}, // case-insensitive resolution
				},
			}},
		},
	}
	saleResp := do(t, env.server, "POST", "/v1/sales", jsonBody(t, saleBody), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID            string   `json:"id"`
		ReceiptNumber int      `json:"receipt_number"`
		Total         string   `json:"total"`
		Change        string   `json:"change"`
		Status        string   `json:"status"`
		Warnings      []string `json:"warnings"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, 1, sale.ReceiptNumber)
	// 3 × 5 = 15 plus the 30ml blend (preset 55 + container 10).
	assert.Equal(t, "80", sale.Total)
	assert.Equal(t, "20", sale.Change)
	assert.Empty(t, sale.Warnings)

	assert.Equal(t, 17, env.productStock(t, prodID))
	assert.Equal(t, "85", env.ingredientVolume(t, lavID).String())
	assert.Equal(t, "85", env.ingredientVolume(t, vanID).String())

	getResp := do(t, env.server, "GET", "/v1/sales/"+sale.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	listResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/sales?date=%s", time.Now().Format("2006-01-02")), nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Data  []json.RawMessage `json:"data"`
		Total int64             `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(1), list.Total)
}

// Void restores discrete stock; the poured mixture is written off by default.
func TestE2E_VoidRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	env.seedPricing(t)
	prodID := env.seedProduct(t, "Soap Bar", 10, 5)
	lavID := env.seedIngredient(t, "Lavender", 100)

	saleResp := do(t, env.server, "POST", "/v1/sales", jsonBody(t, map[string]any{
		"department_id":  env.dept.String(),
		"payment_method": "cash",
		"amount_paid":    "100",
		"items": []map[string]any{
			{"product_id": prodID.String(), "quantity": 3},
			{"quantity": 1, "mixture": map[string]any{
				"container_volume_ml": "30",
				"ingredients":         []map[string]any{{"name": "Lavender"}},
			}},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)
	require.Equal(t, 7, env.productStock(t, prodID))
	require.Equal(t, "70", env.ingredientVolume(t, lavID).String())

	voidResp := do(t, env.server, "DELETE", "/v1/sales/"+sale.ID,
		jsonBody(t, map[string]any{"reason": "customer changed their mind"}), env.token)
	require.Equal(t, http.StatusOK, voidResp.StatusCode)
	var voided struct {
		Status     string  `json:"status"`
		VoidReason *string `json:"void_reason"`
	}
	decodeJSON(t, voidResp, &voided)
	assert.Equal(t, "voided", voided.Status)
	require.NotNil(t, voided.VoidReason)

	// Product back on the shelf, poured volume stays consumed.
	assert.Equal(t, 10, env.productStock(t, prodID))
	assert.Equal(t, "70", env.ingredientVolume(t, lavID).String())

	// Shrinkage row documents the unrestored mixture.
	var count int64
	require.NoError(t, env.db.Model(&model.StockMovement{}).
		Where("type = ?", model.MovementShrinkage).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A second void is rejected.
	again := do(t, env.server, "DELETE", "/v1/sales/"+sale.ID,
		jsonBody(t, map[string]any{"reason": "double void attempt"}), env.token)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	assert.Equal(t, 10, env.productStock(t, prodID))
}

// Oversell clamps stock at zero; the sale still goes through.
func TestE2E_OversellClampsAtZero(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.seedProduct(t, "Soap Bar", 2, 5)

	saleResp := do(t, env.server, "POST", "/v1/sales", jsonBody(t, map[string]any{
		"department_id":  env.dept.String(),
		"payment_method": "cash",
		"amount_paid":    "50",
		"items": []map[string]any{
			{"product_id": prodID.String(), "quantity": 5},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	assert.Equal(t, 0, env.productStock(t, prodID))
}

// Insufficient payment rejects the sale before anything persists.
func TestE2E_InsufficientPaymentRejected(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.seedProduct(t, "Soap Bar", 10, 5)

	saleResp := do(t, env.server, "POST", "/v1/sales", jsonBody(t, map[string]any{
		"department_id":  env.dept.String(),
		"payment_method": "cash",
		"amount_paid":    "10",
		"items": []map[string]any{
			{"product_id": prodID.String(), "quantity": 3},
		},
	}), env.token)
	require.Equal(t, http.StatusBadRequest, saleResp.StatusCode)
	assert.Equal(t, 10, env.productStock(t, prodID))
}

// Quote endpoint prices a blend without touching stock, cached in Redis.
func TestE2E_QuoteEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.seedPricing(t)

	path := fmt.Sprintf("/v1/quote?department_id=%s&volume_ml=30&ingredients=2&tier=retail", env.dept)
	quoteResp := do(t, env.server, "GET", path, nil, "")
	require.Equal(t, http.StatusOK, quoteResp.StatusCode)
	var quote struct {
		UnitPrice           string `json:"unit_price"`
		ContainerCost       string `json:"container_cost"`
		Total               string `json:"total"`
		PerIngredientVolume string `json:"per_ingredient_volume_ml"`
	}
	decodeJSON(t, quoteResp, &quote)
	assert.Equal(t, "55", quote.UnitPrice)
	assert.Equal(t, "10", quote.ContainerCost)
	assert.Equal(t, "65", quote.Total)
	assert.Equal(t, "15", quote.PerIngredientVolume)

	// Second hit rides the cache and must agree.
	cached := do(t, env.server, "GET", path, nil, "")
	require.Equal(t, http.StatusOK, cached.StatusCode)
	var quote2 struct {
		Total string `json:"total"`
	}
	decodeJSON(t, cached, &quote2)
	assert.Equal(t, quote.Total, quote2.Total)
}

// Manual stock adjustment leaves an audit trail in the movements ledger.
func TestE2E_StockAdjustmentAudited(t *testing.T) {
	env := setupTestEnv(t)
	prodID := env.seedProduct(t, "Soap Bar", 10, 5)

	adjResp := do(t, env.server, "PATCH", "/v1/products/"+prodID.String()+"/stock",
		jsonBody(t, map[string]any{"delta": -4, "reason": "inventory recount"}), env.token)
	require.Equal(t, http.StatusNoContent, adjResp.StatusCode)
	assert.Equal(t, 6, env.productStock(t, prodID))

	movResp := do(t, env.server, "GET", "/v1/stock/movements?entity_id="+prodID.String(), nil, env.token)
	require.Equal(t, http.StatusOK, movResp.StatusCode)
	var movements struct {
		Data []struct {
			Type   string `json:"type"`
			Delta  string `json:"delta"`
			Reason string `json:"reason"`
		} `json:"data"`
	}
	decodeJSON(t, movResp, &movements)
	require.Len(t, movements.Data, 1)
	assert.Equal(t, "adjustment", movements.Data[0].Type)
	assert.Equal(t, "-4", movements.Data[0].Delta)
	assert.Equal(t, "inventory recount", movements.Data[0].Reason)
}

// Pricing config round-trip through the admin surface.
func TestE2E_PricingConfigUpsert(t *testing.T) {
	env := setupTestEnv(t)

	putResp := do(t, env.server, "PUT", "/v1/pricing/"+env.dept.String(),
		jsonBody(t, map[string]any{
			"retail_rate_per_ml":    "2.0",
			"wholesale_rate_per_ml": "1.5",
			"cost_tiers": []map[string]any{
				{"min_volume_ml": "0", "max_volume_ml": "100", "cost": "12"},
			},
			"preset_prices": []map[string]any{
				{"volume_ml": "50", "price": "95"},
			},
		}), env.token)
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	quoteResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/quote?department_id=%s&volume_ml=50&ingredients=1", env.dept), nil, "")
	require.Equal(t, http.StatusOK, quoteResp.StatusCode)
	var quote struct {
		Total string `json:"total"`
	}
	decodeJSON(t, quoteResp, &quote)
	// Preset 95 + container cost 12.
	assert.Equal(t, "107", quote.Total)
}
