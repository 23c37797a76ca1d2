package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultWorkers 未設定時同時查詢目錄的數量
const DefaultWorkers = 4

// PlanSlot 尚未解析的菜單格位：食譜可內嵌或以識別碼引用
type PlanSlot struct {
	Key      shopping.SlotKey
	Recipe   *shopping.RecipeRef
	RecipeID string
	Servings *float64
}

// Unresolved 無法解析的格位
type Unresolved struct {
	Key      shopping.SlotKey `json:"key"`
	RecipeID string           `json:"recipe_id"`
	Reason   string           `json:"reason"`
}

// Resolver 以固定數量的 worker 並行查詢菜單引用的食譜
type Resolver struct {
	fetcher   Fetcher
	workers   int
	processed int64
}

// fetchJob 查詢工作
type fetchJob struct {
	id     string
	result chan<- fetchResult
}

// fetchResult 查詢結果
type fetchResult struct {
	id     string
	recipe *shopping.RecipeRef
	err    error
}

// NewResolver 建立解析器，fetcher 可為 nil（所有引用都無法解析）
func NewResolver(fetcher Fetcher, workers int) *Resolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Resolver{fetcher: fetcher, workers: workers}
}

// Processed 累計查詢次數
func (r *Resolver) Processed() int64 {
	return atomic.LoadInt64(&r.processed)
}

// Resolve 將格位轉為菜單，維持原本順序。找不到的食譜略過並回報；目錄服務失敗則回傳錯誤
func (r *Resolver) Resolve(ctx context.Context, slots []PlanSlot) (shopping.MealPlan, []Unresolved, error) {
	results, err := r.fetchAll(ctx, pendingIDs(slots))
	if err != nil {
		return nil, nil, err
	}

	plan := make(shopping.MealPlan, 0, len(slots))
	var unresolved []Unresolved
	for _, slot := range slots {
		entry := shopping.PlanEntry{Key: slot.Key, Recipe: slot.Recipe, Servings: slot.Servings}
		if entry.Recipe != nil || slot.RecipeID == "" {
			plan = append(plan, entry)
			continue
		}

		res := results[slot.RecipeID]
		if res.err != nil {
			common.LogWarn("Skipping unresolved meal slot",
				zap.String("slot", slot.Key.String()),
				zap.String("recipe_id", slot.RecipeID),
				zap.Error(res.err),
			)
			unresolved = append(unresolved, Unresolved{Key: slot.Key, RecipeID: slot.RecipeID, Reason: res.err.Error()})
			continue
		}

		entry.Recipe = res.recipe
		plan = append(plan, entry)
	}

	return plan, unresolved, nil
}

// pendingIDs 需要查詢的食譜識別碼，去重並保持首次出現順序
func pendingIDs(slots []PlanSlot) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, slot := range slots {
		if slot.Recipe != nil || slot.RecipeID == "" || seen[slot.RecipeID] {
			continue
		}
		seen[slot.RecipeID] = true
		ids = append(ids, slot.RecipeID)
	}
	return ids
}

// fetchAll 並行查詢，任一查詢發生非「找不到」的錯誤時取消其餘工作並回傳該錯誤
func (r *Resolver) fetchAll(ctx context.Context, ids []string) (map[string]fetchResult, error) {
	results := make(map[string]fetchResult, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := r.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	queue := make(chan fetchJob, len(ids))
	out := make(chan fetchResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				job.result <- r.fetch(ctx, job.id)
			}
		}()
	}

	for _, id := range ids {
		queue <- fetchJob{id: id, result: out}
	}
	close(queue)

	go func() {
		wg.Wait()
		close(out)
	}()

	var firstErr error
	for res := range out {
		results[res.id] = res
		if res.err != nil && !isSkippable(res.err) && firstErr == nil {
			firstErr = res.err
			cancel()
		}
	}

	common.LogDebug("Recipe lookups finished",
		zap.Int("recipes", len(ids)),
		zap.Int("workers", workers),
		zap.Int64("processed_total", r.Processed()),
	)

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (r *Resolver) fetch(ctx context.Context, id string) fetchResult {
	if err := ctx.Err(); err != nil {
		return fetchResult{id: id, err: err}
	}
	defer atomic.AddInt64(&r.processed, 1)

	if r.fetcher == nil {
		return fetchResult{id: id, err: ErrCatalogDisabled}
	}
	recipe, err := r.fetcher.FetchRecipe(ctx, id)
	if err == nil && recipe == nil {
		err = fmt.Errorf("recipe %s: %w", id, ErrRecipeNotFound)
	}
	return fetchResult{id: id, recipe: recipe, err: err}
}

func isSkippable(err error) bool {
	return errors.Is(err, ErrRecipeNotFound) || errors.Is(err, ErrCatalogDisabled)
}
