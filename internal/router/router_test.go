package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"smoothies/internal/config"
	"smoothies/internal/model"
	"smoothies/internal/nutrition"
	"smoothies/internal/order"
	"smoothies/internal/testutil"
	"smoothies/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Rule string          `json:"rule"`
	Data json.RawMessage `json:"data"`
}

func setup(t *testing.T, failing ...string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	return setupWith(t, config.AppConfig{
		SubmitRateLimit:  100,
		SubmitRateWindow: time.Minute,
		AdminToken:       "secret",
	}, failing...)
}

func setupWith(t *testing.T, cfg config.AppConfig, failing ...string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedFruits(t, db, map[string]string{"Apple": "apple", "Mango": "mango"})

	fail := map[string]bool{}
	for _, f := range failing {
		fail[f] = true
	}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/api/fruit/")
		if fail[key] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if key == "kiwi" {
			_, _ = w.Write([]byte(`[{"name":"Kiwi","vitamin_c":"high"}]`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"` + key + `","family":"Testaceae","nutrition":{"calories":42}}`))
	}))
	t.Cleanup(api.Close)

	svc := workflow.NewService(db,
		nutrition.NewClient(nutrition.Options{BaseURL: api.URL + "/api/fruit"}),
		order.NewWriter(db, nil, nil),
		workflow.Options{},
	)
	r := gin.New()
	require.NoError(t, Setup(r, svc, nil, cfg))
	return r, db
}

func do(r http.Handler, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestPing(t *testing.T) {
	r, _ := setup(t)
	rec := do(r, http.MethodGet, "/ping", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFormRendersCatalog(t *testing.T) {
	r, _ := setup(t)
	rec := do(r, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `<option value="Apple"`)
	require.Contains(t, body, `<option value="Mango"`)
	require.Contains(t, body, "Please select ingredients for your smoothie.")
	require.NotContains(t, body, "Submit Order")
}

func TestFormShowsPartialNutrition(t *testing.T) {
	r, _ := setup(t, "mango")
	rec := do(r, http.MethodGet, "/?name_on_order=Kevin&ingredients=Apple&ingredients=Mango", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "Apple Nutrition Information")
	require.Contains(t, body, "Testaceae")
	require.Contains(t, body, "Could not load nutrition for Mango")
	require.Contains(t, body, "Submit Order")
}

func TestFormShowsUnknownNutritionShape(t *testing.T) {
	r, db := setup(t)
	testutil.SeedFruits(t, db, map[string]string{"Kiwi": "kiwi"})

	rec := do(r, http.MethodGet, "/?ingredients=Kiwi", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Kiwi Nutrition Information")
	require.Contains(t, body, "vitamin_c")
	require.NotContains(t, body, "Could not load nutrition")
}

func TestFormSubmit(t *testing.T) {
	r, db := setup(t)
	form := url.Values{"name_on_order": {"Kevin"}, "ingredients": {"Apple", "Mango"}, "form_token": {"t1"}}
	rec := do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Your Smoothie is ordered, Kevin!")

	var got model.Order
	require.NoError(t, db.First(&got).Error)
	require.Equal(t, "Apple, Mango", got.Ingredients)
	require.False(t, got.OrderFilled)
}

func TestFormSubmitRateLimitedRendersPage(t *testing.T) {
	r, db := setupWith(t, config.AppConfig{SubmitRateLimit: 1, SubmitRateWindow: time.Hour})
	form := url.Values{"name_on_order": {"Kevin"}, "ingredients": {"Apple"}, "form_token": {"t1"}}
	rec := do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	form.Set("form_token", "t2")
	rec = do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.Contains(t, body, "Too many orders, please try again later.")
	require.Contains(t, body, `<option value="Apple" selected>`)
	require.Contains(t, body, `value="t2"`)
	require.Equal(t, int64(1), testutil.CountOrders(t, db))

	// JSON 接口仍返回 JSON
	rec = do(r, http.MethodPost, "/api/orders", "application/json", `{"name_on_order":"Kevin","ingredients":["Apple"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodPost, "/api/orders", "application/json", `{"name_on_order":"Kevin","ingredients":["Apple"]}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, 429, decode(t, rec).Code)
}

func TestFormSubmitWithoutNameIsBlocked(t *testing.T) {
	r, db := setup(t)
	form := url.Values{"name_on_order": {""}, "ingredients": {"Apple"}}
	rec := do(r, http.MethodPost, "/", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Please enter the name on your smoothie.")
	require.Zero(t, testutil.CountOrders(t, db))
}

func TestFormEscapesName(t *testing.T) {
	r, _ := setup(t)
	rec := do(r, http.MethodGet, "/?name_on_order=%3Cscript%3Ex%3C%2Fscript%3E", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "<script>x</script>")
}

func TestAPIFruits(t *testing.T) {
	r, _ := setup(t)
	rec := do(r, http.MethodGet, "/api/fruits", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		Name      string `json:"name"`
		LookupKey string `json:"lookup_key"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 2)
	require.Equal(t, "Apple", items[0].Name)
	require.Equal(t, "apple", items[0].LookupKey)
}

func TestAPIFruitsCatalogFailure(t *testing.T) {
	r, db := setup(t)
	require.NoError(t, db.Migrator().DropTable(&model.FruitOption{}))
	rec := do(r, http.MethodGet, "/api/fruits", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 500, decode(t, rec).Code)
}

func TestAPINutrition(t *testing.T) {
	r, _ := setup(t, "mango")
	rec := do(r, http.MethodGet, "/api/nutrition?ingredients=Apple&ingredients=Mango", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []workflow.IngredientView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &views))
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Nutrition)
	require.Empty(t, views[0].Err)
	require.Nil(t, views[1].Nutrition)
	require.NotEmpty(t, views[1].Err)

	rec = do(r, http.MethodGet, "/api/nutrition", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPICreateOrder(t *testing.T) {
	r, db := setup(t)
	rec := do(r, http.MethodPost, "/api/orders", "application/json",
		`{"name_on_order":"O'Brien","ingredients":["Mango","Apple"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Order model.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Equal(t, "O'Brien", data.Order.NameOnOrder)
	require.Equal(t, "Mango, Apple", data.Order.Ingredients)
	require.Equal(t, int64(1), testutil.CountOrders(t, db))
}

func TestAPICreateOrderValidation(t *testing.T) {
	r, db := setup(t)

	rec := do(r, http.MethodPost, "/api/orders", "application/json", `{"name_on_order":"Kevin","ingredients":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, order.RuleSelectionRequired, decode(t, rec).Rule)

	rec = do(r, http.MethodPost, "/api/orders", "application/json", `{"name_on_order":"","ingredients":["Apple"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, order.RuleNameRequired, decode(t, rec).Rule)

	rec = do(r, http.MethodPost, "/api/orders", "application/json", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Zero(t, testutil.CountOrders(t, db))
}

func TestAPIPendingAndFill(t *testing.T) {
	r, _ := setup(t)
	rec := do(r, http.MethodPost, "/api/orders", "application/json", `{"name_on_order":"Kevin","ingredients":["Apple"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Order model.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))

	rec = do(r, http.MethodGet, "/api/orders/pending", "", "")
	var pending []model.Order
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pending))
	require.Len(t, pending, 1)

	fillURL := "/api/orders/" + created.Order.OrderUID + "/fill"
	rec = do(r, http.MethodPost, fillURL, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, fillURL, "", "", "X-Admin-Token", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodPost, "/api/orders/nope/fill", "", "", "X-Admin-Token", "secret")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodGet, "/api/orders/pending", "", "")
	pending = nil
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pending))
	require.Empty(t, pending)
}
