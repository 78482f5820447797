package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"smoothies/internal/catalog"
	"smoothies/internal/model"
	"smoothies/internal/nutrition"
	"smoothies/internal/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fetcher 营养查询出口，*nutrition.Client 实现它。
type Fetcher interface {
	FetchAll(ctx context.Context, items []nutrition.Item) []nutrition.Result
}

// SubmitGuard 防重复提交：同一表单 token 只允许一次写库。
type SubmitGuard interface {
	Acquire(ctx context.Context, token string) (attemptID string, ok bool, err error)
	Release(ctx context.Context, token, attemptID string) error
}

// Form 用户提交或回显的表单内容。
type Form struct {
	Name        string   `form:"name_on_order" json:"name_on_order"`
	Ingredients []string `form:"ingredients" json:"ingredients"`
	Token       string   `form:"form_token" json:"form_token"`
}

// IngredientView 单个水果的营养展示块；Err 非空时只展示错误。
type IngredientView struct {
	Ingredient string           `json:"ingredient"`
	Key        string           `json:"lookup_key"`
	Nutrition  *model.Nutrition `json:"nutrition,omitempty"`
	Err        string           `json:"error,omitempty"`
}

// Page 一次渲染的全部输出。
type Page struct {
	State        State               `json:"state"`
	Name         string              `json:"name_on_order"`
	Options      []catalog.Ingredient `json:"options"`
	Selection    []string            `json:"selection"`
	Ingredients  string              `json:"ingredients"`
	Nutrition    []IngredientView    `json:"nutrition"`
	Warnings     []string            `json:"warnings,omitempty"`
	Error        string              `json:"error,omitempty"`
	Confirmation string              `json:"confirmation,omitempty"`
	Order        *model.Order        `json:"order,omitempty"`
	CanSubmit    bool                `json:"can_submit"`
	Token        string              `json:"form_token"`
	MaxAdvised   int                 `json:"max_ingredients"`
}

// Selected 模板辅助：name 是否在当前选择中。
func (p Page) Selected(name string) bool {
	for _, s := range p.Selection {
		if s == name {
			return true
		}
	}
	return false
}

// Options Service 的依赖与策略。
type Options struct {
	CapMode CapMode
	Guard   SubmitGuard
}

// CapMode 见 order.CapMode。
type CapMode = order.CapMode

// Service 串起 目录读取 → 选择 → 营养查询 → 下单。
// 不持有请求间状态；db 句柄显式注入，每次调用按 ctx 派生会话。
type Service struct {
	db      *gorm.DB
	fetcher Fetcher
	writer  *order.Writer
	opts    Options
}

func NewService(db *gorm.DB, fetcher Fetcher, writer *order.Writer, opts Options) *Service {
	return &Service{db: db, fetcher: fetcher, writer: writer, opts: opts}
}

// Catalog 读取当前目录。
func (s *Service) Catalog(ctx context.Context) (catalog.Catalog, error) {
	return catalog.Load(ctx, s.db)
}

// Nutrition 按名称查询营养数据；目录中不存在的名称直接记为 FetchError。
func (s *Service) Nutrition(ctx context.Context, selection []string) ([]IngredientView, error) {
	cat, err := catalog.Load(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, cat, order.Normalize(selection)), nil
}

// Render 渲染表单：目录不可读时返回 DataAccessError。
func (s *Service) Render(ctx context.Context, form Form) (Page, error) {
	page := Page{
		State:      Idle,
		Name:       strings.TrimSpace(form.Name),
		Token:      uuid.New().String(),
		MaxAdvised: order.MaxIngredients,
	}

	cat, err := catalog.Load(ctx, s.db)
	if err != nil {
		slog.ErrorContext(ctx, "catalog load failed", "err", err)
		page.Error = "The fruit catalog is unavailable: " + err.Error()
		return page, err
	}
	page.Options = cat.Items()

	page.Selection = order.Normalize(form.Ingredients)
	if len(page.Selection) == 0 {
		page.Warnings = append(page.Warnings, "Please select ingredients for your smoothie.")
		return page, nil
	}

	page.State = IngredientsSelected
	page.Ingredients = order.Compose(page.Selection)
	page.CanSubmit = true
	if w := order.CapWarning(page.Selection); w != "" {
		page.Warnings = append(page.Warnings, w)
	}

	page.Nutrition = s.lookup(ctx, cat, page.Selection)
	page.State = NutritionDisplayed
	return page, nil
}

// Submit 渲染并尝试下单。页面始终返回，错误已写进 page.Error。
// 仅目录不可读时返回非 nil error。
func (s *Service) Submit(ctx context.Context, form Form) (Page, error) {
	page, err := s.Render(ctx, form)
	if err != nil {
		return page, err
	}

	page.State = Submitting
	placed, err := s.place(ctx, page.Name, page.Selection, form.Token)
	switch {
	case err == nil:
		page.State = OrderConfirmed
		page.Order = &placed
		page.Confirmation = fmt.Sprintf("Your Smoothie is ordered, %s!", placed.NameOnOrder)
	case order.IsValidation(err):
		page.State = SubmitBlocked
		page.Error = err.Error()
	default:
		page.State = SubmitFailed
		page.Error = "Your order could not be saved: " + err.Error()
	}
	return page, nil
}

// Place 校验并写入订单（API 入口，不渲染营养数据）。
func (s *Service) Place(ctx context.Context, form Form) (model.Order, error) {
	return s.place(ctx, strings.TrimSpace(form.Name), order.Normalize(form.Ingredients), form.Token)
}

func (s *Service) place(ctx context.Context, name string, selection []string, token string) (model.Order, error) {
	if err := order.Validate(name, selection, s.opts.CapMode); err != nil {
		slog.InfoContext(ctx, "order rejected", "rule", err.(*order.ValidationError).Rule)
		return model.Order{}, err
	}

	release := func() {}
	if s.opts.Guard != nil && token != "" {
		attemptID, ok, err := s.opts.Guard.Acquire(ctx, token)
		switch {
		case err != nil:
			// Redis 出错时放行（降级策略）
			slog.WarnContext(ctx, "submit guard unavailable", "err", err)
		case !ok:
			return model.Order{}, &order.ValidationError{
				Rule:    RuleDuplicateSubmit,
				Message: "This order was already submitted.",
			}
		default:
			release = func() {
				if err := s.opts.Guard.Release(context.WithoutCancel(ctx), token, attemptID); err != nil {
					slog.WarnContext(ctx, "submit guard release", "err", err)
				}
			}
		}
	}

	placed, err := s.writer.Submit(ctx, s.writer.Build(name, selection))
	if err != nil {
		// 写库失败释放 token，允许用户重试
		release()
		slog.ErrorContext(ctx, "order submit failed", "name_on_order", name, "err", err)
		return model.Order{}, err
	}
	slog.InfoContext(ctx, "order submitted",
		"order_uid", placed.OrderUID,
		"ingredients", placed.Ingredients,
		"order_filled", placed.OrderFilled,
	)
	return placed, nil
}

// RuleDuplicateSubmit 同一表单 token 重复提交。
const RuleDuplicateSubmit = "duplicate_submit"

// PendingOrders 未出餐订单。
func (s *Service) PendingOrders(ctx context.Context) ([]model.Order, error) {
	return s.writer.ListPending(ctx)
}

// MarkFilled 标记出餐。
func (s *Service) MarkFilled(ctx context.Context, orderUID string) (model.Order, error) {
	return s.writer.MarkFilled(ctx, orderUID)
}

func (s *Service) lookup(ctx context.Context, cat catalog.Catalog, selection []string) []IngredientView {
	views := make([]IngredientView, len(selection))
	items := make([]nutrition.Item, 0, len(selection))
	pos := make([]int, 0, len(selection))

	for i, name := range selection {
		views[i] = IngredientView{Ingredient: name}
		key, ok := cat.Lookup(name)
		if !ok {
			views[i].Err = (&nutrition.FetchError{Ingredient: name, Reason: "not in catalog"}).Error()
			continue
		}
		views[i].Key = key
		items = append(items, nutrition.Item{Ingredient: name, Key: key})
		pos = append(pos, i)
	}

	for j, r := range s.fetcher.FetchAll(ctx, items) {
		v := &views[pos[j]]
		if r.Err != nil {
			slog.WarnContext(ctx, "nutrition fetch failed", "ingredient", r.Ingredient, "err", r.Err)
			v.Err = r.Err.Error()
			continue
		}
		payload := r.Payload
		v.Nutrition = &payload
	}
	return views
}
