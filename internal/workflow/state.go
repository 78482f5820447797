package workflow

// State 单次渲染内的页面状态，不跨请求保存；每次渲染从 Idle 开始。
type State int

const (
	Idle State = iota
	IngredientsSelected
	NutritionDisplayed
	Submitting
	OrderConfirmed
	SubmitFailed
	// SubmitBlocked 提交被校验拦下，未写库。
	SubmitBlocked
)

var stateNames = map[State]string{
	Idle:                "idle",
	IngredientsSelected: "ingredients_selected",
	NutritionDisplayed:  "nutrition_displayed",
	Submitting:          "submitting",
	OrderConfirmed:      "order_confirmed",
	SubmitFailed:        "submit_failed",
	SubmitBlocked:       "submit_blocked",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Terminal 终态：下一次渲染回到 Idle。
func (s State) Terminal() bool {
	return s == OrderConfirmed || s == SubmitFailed || s == SubmitBlocked
}

// MarshalText 让 JSON 输出可读的状态名。
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
