// internal/router/router_test.go
package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/utils"
)

const testAdminKey = "test-admin-key"

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:routertest?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(
		&models.Asset{},
		&models.AssetVersion{},
		&models.Order{},
		&models.Bid{},
		&models.License{},
		&models.UsageRecord{},
		&models.Account{},
		&models.LedgerEntry{},
		&models.Event{},
		&models.PlatformSetting{},
	))

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminKey), bcrypt.MinCost)
	suite.Require().NoError(err)

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "router-test-secret",
			AccessTokenTTL: 1,
		},
		Platform: config.PlatformConfig{
			FeeBps:          250,
			FeeAccount:      uuid.New(),
			EscrowAccount:   uuid.New(),
			AdminKeyHash:    string(hash),
			EventFeedLimit:  500,
			MaxQueryResults: 100,
		},
	}
	suite.Require().NoError(database.SeedInitialData(db, cfg))

	suite.router = Initialize(db, cfg)
}

func (suite *RouterTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *RouterTestSuite) newAccount() (string, string) {
	w := suite.request("POST", "/v1/auth/accounts", "", nil)
	suite.Require().Equal(http.StatusCreated, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	return data["account_id"].(string), data["token"].(string)
}

func (suite *RouterTestSuite) TestHealthCheck() {
	w := suite.request("GET", "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestMintRequiresAuth() {
	body := map[string]interface{}{
		"kind":         "model",
		"name":         "unauthorized mint",
		"content_hash": utils.HashString("nope"),
	}

	w := suite.request("POST", "/v1/assets", "", body)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request("POST", "/v1/assets", "not-a-token", body)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *RouterTestSuite) TestMintAndFetchAsset() {
	_, token := suite.newAccount()

	w := suite.request("POST", "/v1/assets", token, map[string]interface{}{
		"kind":         "dataset",
		"name":         "router test asset",
		"content_hash": utils.HashString("router test asset v1"),
		"royalty_bps":  250,
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	response := suite.decode(w)
	suite.Require().True(response["success"].(bool))
	asset := response["data"].(map[string]interface{})["asset"].(map[string]interface{})
	assetID := asset["id"].(float64)
	suite.Require().NotZero(assetID)

	w = suite.request("GET", "/v1/assets", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", "/v1/events?type=asset_minted", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	feed := suite.decode(w)["data"].(map[string]interface{})["events"].([]interface{})
	assert.NotEmpty(suite.T(), feed)
}

func (suite *RouterTestSuite) TestValidationFailureReturns400() {
	_, token := suite.newAccount()

	w := suite.request("POST", "/v1/assets", token, map[string]interface{}{
		"kind":         "model",
		"name":         "bad hash",
		"content_hash": "zzz",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestAdminRequiresKey() {
	_, token := suite.newAccount()
	body := map[string]interface{}{"fee_bps": 300}

	w := suite.request("PUT", "/v1/admin/settings/fee", token, body)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	req, _ := http.NewRequest("PUT", "/v1/admin/settings/fee", bytes.NewBufferString(`{"fee_bps": 300}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Admin-Key", testAdminKey)

	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestAccountBalanceStartsAtZero() {
	_, token := suite.newAccount()

	w := suite.request("GET", "/v1/account/balance", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	data := suite.decode(w)["data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(0), data["balance"].(float64))
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
