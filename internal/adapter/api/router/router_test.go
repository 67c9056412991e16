package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"accmarket/internal/adapter/api"
	"accmarket/internal/adapter/api/handler"
	"accmarket/internal/adapter/api/middleware"
	adapter "accmarket/internal/adapter/repository"
	"accmarket/internal/domain/service"
	"accmarket/internal/infrastructure/database"
	"accmarket/internal/infrastructure/events"
	"accmarket/internal/infrastructure/firebase"
	"accmarket/internal/infrastructure/ratelimit"
	"accmarket/internal/usecase"
	"accmarket/pkg/response"
)

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type fakeUploader struct {
	folder string
}

func (u *fakeUploader) Upload(_ context.Context, file io.Reader, folder string) (string, error) {
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	u.folder = folder
	return "https://storage.googleapis.com/bucket/public/" + folder + "/x.png", nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	e        *echo.Echo
	uploader *fakeUploader
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { sqlDB.Close() })

	retry := adapter.NewRetrier(1, time.Millisecond)
	shopRepo := adapter.NewGormShopRepository(db, retry)
	accRepo := adapter.NewGormAccRepository(db, retry)
	gameRepo := adapter.NewGormGameRepository(db, retry)
	reviewRepo := adapter.NewGormReviewRepository(db, retry)
	policy := service.DefaultCommissionPolicy()
	publisher := events.NopPublisher{}

	shopUC := usecase.NewShopUseCase(shopRepo, accRepo, publisher, policy)
	accUC := usecase.NewAccUseCase(accRepo, shopRepo, gameRepo, publisher, 0)
	listingUC := usecase.NewListingUseCase(shopRepo, accRepo, gameRepo, reviewRepo, policy)
	mediationUC := usecase.NewMediationUseCase(listingUC, usecase.AdminContact{Name: "Admin", URL: "https://wa.me/6200000000"})
	uploader := &fakeUploader{}

	h := &handler.Handlers{
		Shop:   handler.NewShopHandler(shopUC, listingUC),
		Acc:    handler.NewAccHandler(accUC, listingUC, mediationUC),
		Admin:  handler.NewAdminHandler(shopUC, accUC),
		Game:   handler.NewGameHandler(usecase.NewGameUseCase(gameRepo)),
		Review: handler.NewReviewHandler(usecase.NewReviewUseCase(reviewRepo, shopRepo)),
		Upload: handler.NewUploadHandler(uploader, 1<<20),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		}),
	}

	verifier := fakeVerifier{
		"seller": {UID: "seller-1", Claims: map[string]interface{}{}},
		"admin":  {UID: "admin-1", Claims: map[string]interface{}{firebase.RoleClaim: firebase.RoleAdmin}},
	}

	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler
	var limit echo.MiddlewareFunc
	if limiter != nil {
		limit = middleware.RateLimit(limiter)
	}
	Setup(e, h, middleware.NewAuthMiddleware(verifier), limit)
	return &testServer{e: e, uploader: uploader}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

type idSlugStatus struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/v1/shops", "", map[string]string{"name": "Sky Store"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, env = s.do(t, http.MethodPost, "/v1/shops", "seller", map[string]string{"name": "Sky Store", "description": "Accounts"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var shop idSlugStatus
	decode(t, env, &shop)
	assert.Equal(t, "sky-store", shop.Slug)
	assert.Equal(t, "PENDING", shop.Status)

	code, _ = s.do(t, http.MethodGet, "/v1/shops/sky-store", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodPost, "/v1/admin/shops/"+shop.ID+"/approve", "seller", nil)
	require.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPost, "/v1/admin/shops/"+shop.ID+"/approve", "admin", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env, &shop)
	assert.Equal(t, "APPROVED", shop.Status)

	code, env = s.do(t, http.MethodPost, "/v1/admin/games", "admin", map[string]interface{}{
		"name": "Mobile Legends",
		"fields": []map[string]interface{}{
			{"key": "rank", "label": "Rank", "type": "select", "required": true, "options": []string{"Epic", "Mythic"}},
		},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var game idSlugStatus
	decode(t, env, &game)

	code, env = s.do(t, http.MethodPost, "/v1/seller/accs", "seller", map[string]interface{}{
		"game_id":     game.ID,
		"title":       "Mythic Glory account",
		"description": "Mythic account with many skins",
		"price":       150000,
		"images":      []string{"https://img.example/1.png"},
		"attributes":  map[string]interface{}{"rank": "Mythic"},
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var acc idSlugStatus
	decode(t, env, &acc)
	assert.Equal(t, "PENDING", acc.Status)

	code, env = s.do(t, http.MethodGet, "/v1/accs", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []idSlugStatus `json:"items"`
		Total int64          `json:"total"`
	}
	decode(t, env, &page)
	assert.Empty(t, page.Items)

	code, env = s.do(t, http.MethodPost, "/v1/admin/accs/"+acc.ID+"/approve", "admin", nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(t, http.MethodGet, "/v1/accs?game=mobile-legends", "", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, acc.ID, page.Items[0].ID)

	code, env = s.do(t, http.MethodGet, "/v1/accs/"+acc.Slug, "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var detail struct {
		Acc   idSlugStatus `json:"acc"`
		Guide struct {
			Price   int64  `json:"price"`
			Warning string `json:"warning"`
			Steps   []struct {
				Step int `json:"step"`
			} `json:"steps"`
		} `json:"purchase_guide"`
	}
	decode(t, env, &detail)
	assert.Equal(t, acc.ID, detail.Acc.ID)
	assert.Equal(t, int64(150000), detail.Guide.Price)
	assert.NotEmpty(t, detail.Guide.Warning)
	assert.Len(t, detail.Guide.Steps, 5)

	code, _ = s.do(t, http.MethodGet, "/v1/shops/sky-store", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPost, "/v1/seller/accs/"+acc.ID+"/mark-sold", "seller", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env, &acc)
	assert.Equal(t, "SOLD", acc.Status)

	code, env = s.do(t, http.MethodPut, "/v1/seller/accs/"+acc.ID, "seller", map[string]interface{}{"price": 1000})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "IMMUTABLE_STATE", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/accs/"+acc.Slug, "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodGet, "/v1/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodPost, "/v1/shops", "seller", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/v1/accs?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = s.do(t, http.MethodPost, "/v1/seller/accs", "seller", map[string]interface{}{"game_id": "g", "title": "t"})
	assert.Equal(t, http.StatusConflict, code, "acc submit without an approved shop")
	assert.Equal(t, "OWNER_NOT_APPROVED", env.Error.Code)
}

func TestVerifiedBadgeToggle(t *testing.T) {
	s := newTestServer(t, nil)
	code, env := s.do(t, http.MethodPost, "/v1/shops", "seller", map[string]string{"name": "Sky Store"})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var shop idSlugStatus
	decode(t, env, &shop)

	var badge struct {
		IsVerified bool `json:"is_verified"`
	}
	code, env = s.do(t, http.MethodPut, "/v1/admin/shops/"+shop.ID, "admin", map[string]bool{"isVerified": true})
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env, &badge)
	assert.True(t, badge.IsVerified)

	code, env = s.do(t, http.MethodPut, "/v1/admin/shops/"+shop.ID, "admin", map[string]bool{"is_verified": false})
	require.Equal(t, http.StatusOK, code, env.Error)
	decode(t, env, &badge)
	assert.False(t, badge.IsVerified)

	code, env = s.do(t, http.MethodPut, "/v1/admin/shops/"+shop.ID, "admin", map[string]bool{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		code, _ := s.do(t, http.MethodGet, "/v1/games", "", nil)
		require.Equal(t, http.StatusOK, code)
	}
	code, env := s.do(t, http.MethodGet, "/v1/games", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/v1/seller/shop", "seller", nil)
	assert.NotEqual(t, http.StatusTooManyRequests, code, "authenticated callers have their own bucket")
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, rec.Body.String())
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "shot.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("folder", "covers"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/seller/uploads", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer seller")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "covers/seller-1", s.uploader.folder)
	assert.True(t, strings.Contains(rec.Body.String(), "covers/seller-1"))
}
