package router

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"smoothies/internal/catalog"
	"smoothies/internal/config"
	"smoothies/internal/middleware"
	"smoothies/internal/nutrition"
	"smoothies/internal/order"
	"smoothies/internal/workflow"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// 表单页面与二进制一起发布。
//
//go:embed templates/order.gohtml
var templatesFS embed.FS

// LoadTemplates 解析内嵌模板。
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/order.gohtml")
}

// Setup 注册全部 HTTP 路由。rdb 为 nil 时下单限流退化为进程内令牌桶。
func Setup(r *gin.Engine, svc *workflow.Service, rdb *rd.Client, cfg config.AppConfig) error {
	tmpl, err := LoadTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	newLimit := func(reject middleware.RejectFunc) gin.HandlerFunc {
		if rdb != nil {
			return middleware.RedisRateLimit(rdb, cfg.SubmitRateLimit, cfg.SubmitRateWindow, reject)
		}
		return middleware.LocalRateLimit(cfg.SubmitRateLimit, cfg.SubmitRateWindow, reject)
	}
	formLimit := newLimit(formRejected(svc))
	apiLimit := newLimit(nil)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})
	// 表单页
	r.GET("/", renderForm(svc))
	r.POST("/", formLimit, submitForm(svc))
	// JSON API
	r.GET("/api/fruits", listFruits(svc))
	r.GET("/api/nutrition", getNutrition(svc))
	r.POST("/api/orders", apiLimit, createOrder(svc))
	r.GET("/api/orders/pending", listPending(svc))
	r.POST("/api/orders/:order_uid/fill", markFilled(svc, cfg.AdminToken))
	return nil
}

// renderForm 渲染下单表单；带 ingredients 查询参数时同时展示营养数据。
func renderForm(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form workflow.Form
		if err := c.ShouldBindQuery(&form); err != nil {
			c.HTML(http.StatusBadRequest, "order.gohtml", workflow.Page{Error: err.Error()})
			return
		}
		page, err := svc.Render(c.Request.Context(), form)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "order.gohtml", page)
			return
		}
		c.HTML(http.StatusOK, "order.gohtml", page)
	}
}

// submitForm 表单提交：成功 200，校验拦截 400，写库失败 500。
func submitForm(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form workflow.Form
		if err := c.ShouldBind(&form); err != nil {
			c.HTML(http.StatusBadRequest, "order.gohtml", workflow.Page{Error: err.Error()})
			return
		}
		page, err := svc.Submit(c.Request.Context(), form)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "order.gohtml", page)
			return
		}
		c.HTML(pageStatus(page.State), "order.gohtml", page)
	}
}

// formRejected 表单提交被限流：回显表单与错误提示，保留原 token 便于稍后重试。
func formRejected(svc *workflow.Service) middleware.RejectFunc {
	return func(c *gin.Context) {
		selection := order.Normalize(c.PostFormArray("ingredients"))
		page := workflow.Page{
			State:       workflow.SubmitBlocked,
			Name:        strings.TrimSpace(c.PostForm("name_on_order")),
			Selection:   selection,
			Ingredients: order.Compose(selection),
			CanSubmit:   len(selection) > 0,
			Token:       c.PostForm("form_token"),
			MaxAdvised:  order.MaxIngredients,
			Error:       middleware.TooManyMsg,
		}
		if cat, err := svc.Catalog(c.Request.Context()); err == nil {
			page.Options = cat.Items()
		}
		c.HTML(http.StatusTooManyRequests, "order.gohtml", page)
	}
}

func pageStatus(s workflow.State) int {
	switch s {
	case workflow.SubmitBlocked:
		return http.StatusBadRequest
	case workflow.SubmitFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// listFruits 水果目录。
func listFruits(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := svc.Catalog(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": cat.Items()})
	}
}

// getNutrition 逐个水果的营养数据，单个失败只体现在对应条目的 error 字段。
func getNutrition(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		selection := c.QueryArray("ingredients")
		if len(order.Normalize(selection)) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "ingredients is required"})
			return
		}
		views, err := svc.Nutrition(c.Request.Context(), selection)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": views})
	}
}

// createOrder JSON 下单。
func createOrder(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form workflow.Form
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		o, err := svc.Place(c.Request.Context(), form)
		if err != nil {
			writeError(c, err)
			return
		}
		data := gin.H{"order": o}
		if w := order.CapWarning(order.Normalize(form.Ingredients)); w != "" {
			data["warning"] = w
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": data})
	}
}

// listPending 未出餐订单。
func listPending(svc *workflow.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.PendingOrders(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// markFilled 标记出餐。要求简单管理员 token。
func markFilled(svc *workflow.Service, adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 未配置 token 时接口关闭
		if adminToken == "" || c.GetHeader("X-Admin-Token") != adminToken {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "invalid admin token"})
			return
		}
		uid := strings.TrimSpace(c.Param("order_uid"))
		o, err := svc.MarkFilled(c.Request.Context(), uid)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": o})
	}
}

// writeError 统一把错误类型映射为 HTTP 状态码。
func writeError(c *gin.Context, err error) {
	var verr *order.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": verr.Message, "rule": verr.Rule})
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": err.Error()})
	case catalog.IsDataAccess(err), order.IsWrite(err):
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
	case nutrition.IsFetch(err):
		c.JSON(http.StatusBadGateway, gin.H{"code": 502, "msg": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
	}
}
