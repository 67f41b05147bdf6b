package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"food-delivery-platform/auth"
	"food-delivery-platform/config"
	"food-delivery-platform/handlers"
	"food-delivery-platform/mailer"
	"food-delivery-platform/routes"
	"food-delivery-platform/services"
	"food-delivery-platform/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, exposeReset bool) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	db, err := config.OpenDB(config.DBConfig{Driver: "sqlite", DSN: "file::memory:"}, log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens, err := auth.NewTokens("handler-test-secret")
	require.NoError(t, err)
	runner := tenancy.NewRunner(db, false)
	h := &handlers.Handler{
		DB:               db,
		Accounts:         services.NewAccounts(db, tokens, mailer.LogMailer{}, "http://localhost:3000"),
		Users:            services.NewUsers(runner),
		Tenants:          services.NewTenants(db),
		Catalog:          services.NewCatalog(runner),
		Orders:           services.NewOrders(runner, nil, nil, nil, decimal.RequireFromString("0.05")),
		Affiliates:       services.NewAffiliates(runner),
		ExposeResetToken: exposeReset,
	}
	handlers.RegisterValidators()

	r := gin.New()
	routes.SetupRoutes(r, h, tokens)
	return &api{t: t, router: r}
}

func (a *api) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *api) mustDo(want int, method, path, token string, body interface{}) map[string]interface{} {
	a.t.Helper()
	code, out := a.do(method, path, token, body)
	require.Equal(a.t, want, code, "%s %s -> %v", method, path, out)
	return out
}

func id(m map[string]interface{}, key string) uint {
	return uint(m[key].(map[string]interface{})["id"].(float64))
}

func (a *api) signup(tenant, email string) (token string, user map[string]interface{}) {
	out := a.mustDo(http.StatusCreated, http.MethodPost, "/api/auth/signup", "", gin.H{
		"tenant_name": tenant, "name": "Owner", "email": email, "password": "password1",
	})
	return out["token"].(string), out["user"].(map[string]interface{})
}

func TestAuthEndpoints(t *testing.T) {
	a := newAPI(t, false)
	token, user := a.signup("Platform", "root@platform.test")
	assert.Equal(t, "ADMIN", user["role"])
	assert.NotContains(t, user, "password_hash")

	me := a.mustDo(http.StatusOK, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, "root@platform.test", me["user"].(map[string]interface{})["email"])

	code, out := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "root@platform.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", out["error"])
	code, out2 := a.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@platform.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, out, out2, "unknown email and wrong password look the same")

	code, out = a.do(http.MethodPost, "/api/auth/signup", "", gin.H{"tenant_name": "X", "name": "Y", "email": "bad", "password": "password1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "email")

	code, _ = a.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	forgot := a.mustDo(http.StatusOK, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "root@platform.test"})
	assert.NotContains(t, forgot, "reset_token")
}

func TestPasswordResetOverHTTP(t *testing.T) {
	a := newAPI(t, true)
	a.signup("Platform", "root@platform.test")

	unknown := a.mustDo(http.StatusOK, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "ghost@platform.test"})
	assert.NotContains(t, unknown, "reset_token")

	forgot := a.mustDo(http.StatusOK, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "root@platform.test"})
	reset, ok := forgot["reset_token"].(string)
	require.True(t, ok)

	code, _ := a.do(http.MethodGet, "/api/me", reset, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "a reset token cannot be used as a session")

	a.mustDo(http.StatusOK, http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": reset, "password": "password2"})
	a.mustDo(http.StatusOK, http.MethodPost, "/api/auth/login", "", gin.H{"email": "root@platform.test", "password": "password2"})
	code, _ = a.do(http.MethodPost, "/api/auth/reset-password", "", gin.H{"token": reset, "password": "password3"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t, false)
	adminToken, _ := a.signup("Platform", "root@platform.test")
	owner, ownerUser := a.signup("Burger Co", "owner@burger.test")
	require.Equal(t, "OWNER", ownerUser["role"])
	tenantID := uint(ownerUser["tenant_id"].(float64))

	restaurant := id(a.mustDo(http.StatusCreated, http.MethodPost, "/api/restaurants", owner, gin.H{
		"name": "Burger Place", "delivery_fee": "5.00", "minimum_order": "0",
	}), "restaurant")
	product := id(a.mustDo(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/restaurants/%d/products", restaurant), owner, gin.H{
		"name": "Burger", "base_price": "20.00",
	}), "product")
	groupOut := a.mustDo(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/restaurants/%d/option-groups", restaurant), owner, gin.H{
		"name": "Extras", "free_quota": 1, "options": []gin.H{{"name": "Bacon", "price_delta": "3.00"}},
	})
	group := groupOut["option_group"].(map[string]interface{})
	bacon := uint(group["options"].([]interface{})[0].(map[string]interface{})["id"].(float64))
	a.mustDo(http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/products/%d/option-groups", product), owner, gin.H{
		"option_group_id": uint(group["id"].(float64)),
	})

	menu := a.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/tenants/%d/restaurants/%d/menu", tenantID, restaurant), "", nil)
	assert.Len(t, menu["products"], 1)

	customer := a.mustDo(http.StatusCreated, http.MethodPost, "/api/auth/register", "", gin.H{
		"tenant_id": tenantID, "name": "Cat", "email": "cat@burger.test", "password": "password1",
	})["token"].(string)

	code, out := a.do(http.MethodPost, "/api/orders", customer, gin.H{
		"restaurant_id": restaurant, "fulfillment": "DRONE",
		"items": []gin.H{{"product_id": product, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "fulfillment")

	code, out = a.do(http.MethodPost, "/api/orders", customer, gin.H{
		"restaurant_id": restaurant, "fulfillment": "PICKUP",
		"items": []gin.H{{"product_id": product, "quantity": 1, "options": []gin.H{{"option_id": bacon, "quantity": 100}}}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "quantity must be at most 99")

	placed := a.mustDo(http.StatusCreated, http.MethodPost, "/api/orders", customer, gin.H{
		"restaurant_id": restaurant, "fulfillment": "PICKUP",
		"items": []gin.H{{"product_id": product, "quantity": 1, "options": []gin.H{{"option_id": bacon, "quantity": 2}}}},
	})
	order := placed["order"].(map[string]interface{})
	assert.True(t, decimal.RequireFromString("23.00").Equal(decimal.RequireFromString(order["total"].(string))))
	assert.Equal(t, "PENDING", order["status"])
	orderID := uint(order["id"].(float64))
	statusPath := fmt.Sprintf("/api/orders/%d/status", orderID)

	code, _ = a.do(http.MethodPatch, statusPath, customer, gin.H{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out = a.do(http.MethodPatch, statusPath, owner, gin.H{"status": "DELIVERED"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PENDING", out["current_status"])
	assert.ElementsMatch(t, []interface{}{"CONFIRMED", "CANCELED"}, out["valid_next_states"])

	for _, s := range []string{"CONFIRMED", "PREPARING", "OUT_FOR_DELIVERY", "DELIVERED"} {
		out = a.mustDo(http.StatusOK, http.MethodPatch, statusPath, owner, gin.H{"status": s})
		assert.Equal(t, s, out["current_status"])
	}

	detail := a.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), customer, nil)
	assert.Len(t, detail["order"].(map[string]interface{})["events"], 5)

	kitchen := a.mustDo(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/restaurants/%d/orders", restaurant), owner, nil)
	assert.Equal(t, float64(1), kitchen["order_summary"].(map[string]interface{})["DELIVERED"])

	code, _ = a.do(http.MethodGet, "/api/admin/orders", owner, nil)
	assert.Equal(t, http.StatusForbidden, code)
	all := a.mustDo(http.StatusOK, http.MethodGet, "/api/admin/orders", adminToken, nil)
	assert.Equal(t, "23.00", all["delivered_revenue"])
}

func TestStateMachineAndHealth(t *testing.T) {
	a := newAPI(t, false)
	info := a.mustDo(http.StatusOK, http.MethodGet, "/api/state-machine", "", nil)
	assert.Len(t, info["transitions"], 7)
	assert.ElementsMatch(t, []interface{}{"STAFF", "OWNER", "ADMIN"}, info["allowed_roles"])

	health := a.mustDo(http.StatusOK, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "ok", health["status"])
}
