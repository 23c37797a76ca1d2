package shopping

import (
	"strings"
	"time"

	"shopping-list-generator/internal/pkg/common"
)

// DefaultTitleFormat 預設清單標題，{startDate} 會被替換
const DefaultTitleFormat = "Liste de courses - Semaine du {startDate}"

// DefaultFamilySize 未指定家庭人數時的預設值
const DefaultFamilySize = 4

// Settings 產生器設定
type Settings struct {
	DefaultFamilySize     int
	DefaultRecipeServings int
	UrgencyWindow         time.Duration
	TitleFormat           string
}

// Generator 購物清單產生器。不持有可變狀態，可同時被多個請求使用
type Generator struct {
	settings Settings
	now      func() time.Time
	newID    func() string
}

// NewGenerator 創建產生器，零值設定使用預設值
func NewGenerator(settings Settings) *Generator {
	if settings.DefaultFamilySize <= 0 {
		settings.DefaultFamilySize = DefaultFamilySize
	}
	if settings.DefaultRecipeServings <= 0 {
		settings.DefaultRecipeServings = DefaultRecipeServings
	}
	if settings.UrgencyWindow <= 0 {
		settings.UrgencyWindow = DefaultUrgencyWindow
	}
	if settings.TitleFormat == "" {
		settings.TitleFormat = DefaultTitleFormat
	}
	return &Generator{
		settings: settings,
		now:      time.Now,
		newID:    common.GenerateUUID,
	}
}

// WithClock 替換時間來源
func (g *Generator) WithClock(now func() time.Time) *Generator {
	clone := *g
	clone.now = now
	return &clone
}

// WithIDGenerator 替換識別碼來源
func (g *Generator) WithIDGenerator(newID func() string) *Generator {
	clone := *g
	clone.newID = newID
	return &clone
}

// Settings 回傳產生器設定
func (g *Generator) Settings() Settings {
	return g.settings
}

// Generate 依菜單產生購物清單。每次呼叫產生全新的清單，不與其他呼叫共用狀態
func (g *Generator) Generate(plan MealPlan, opts Options) (*ShoppingList, error) {
	opts, err := g.validate(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	now := g.now()

	sourced := Extract(plan, float64(opts.FamilySize), g.settings.DefaultRecipeServings)
	aggregated := Aggregate(sourced)
	buckets := Categorize(aggregated)

	enricher := Enricher{Now: now, UrgencyWindow: g.settings.UrgencyWindow, NewID: g.newID}
	categories := NewCategories()
	for _, cat := range categoryOrder {
		for _, item := range buckets[cat] {
			categories[cat] = append(categories[cat], enricher.Enrich(item, cat))
		}
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(g.settings.TitleFormat, opts.StartDate)
	}

	list := &ShoppingList{
		ID:           g.newID(),
		Title:        title,
		StartDate:    opts.StartDate,
		EndDate:      opts.EndDate,
		FamilySize:   opts.FamilySize,
		Status:       StatusActive,
		Categories:   categories,
		CreatedAt:    now,
		LastModified: now,
	}
	list.RecomputeStats()

	common.LogGeneration(list.ID, list.Stats.TotalItems, list.Stats.TotalRecipes, time.Since(start))
	return list, nil
}

func (g *Generator) validate(opts Options) (Options, error) {
	if opts.FamilySize < 0 {
		return opts, common.NewValidationError("family_size must not be negative")
	}
	if opts.FamilySize == 0 {
		opts.FamilySize = g.settings.DefaultFamilySize
	}

	var startDate, endDate time.Time
	var err error
	if opts.StartDate != "" {
		if startDate, err = time.Parse(isoDate, opts.StartDate); err != nil {
			return opts, common.NewValidationError("start_date must be formatted as YYYY-MM-DD")
		}
	}
	if opts.EndDate != "" {
		if endDate, err = time.Parse(isoDate, opts.EndDate); err != nil {
			return opts, common.NewValidationError("end_date must be formatted as YYYY-MM-DD")
		}
	}
	if opts.StartDate != "" && opts.EndDate != "" && endDate.Before(startDate) {
		return opts, common.NewValidationError("start_date is after end_date")
	}
	return opts, nil
}

func formatTitle(format, startDate string) string {
	return strings.ReplaceAll(format, "{startDate}", startDate)
}
