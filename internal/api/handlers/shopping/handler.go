// Package shopping 提供購物清單的 HTTP 處理程序。
package shopping

import (
	"net/http"
	"time"

	"shopping-list-generator/internal/core/catalog"
	core "shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/core/shopping/store"
	"shopping-list-generator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 購物清單處理程序
type Handler struct {
	generator *core.Generator
	store     store.Store
	resolver  *catalog.Resolver
	now       func() time.Time
	newID     func() string
	debug     bool
}

// NewHandler 創建購物清單處理程序
func NewHandler(generator *core.Generator, st store.Store, resolver *catalog.Resolver, debug bool) *Handler {
	if resolver == nil {
		resolver = catalog.NewResolver(nil, 0)
	}
	return &Handler{
		generator: generator,
		store:     st,
		resolver:  resolver,
		now:       time.Now,
		newID:     common.GenerateUUID,
		debug:     debug,
	}
}

const (
	listsPath  = "/shopping-lists"
	addItem    = "/:id/items"
	toggleItem = "/:id/items/:itemId/toggle"
)

// RepeatableRoutes 回傳允許相同內容重複送出的 POST 路由樣板：
// 連續切換兩次會回到原狀態，重複加入同一項目則累加數量
func RepeatableRoutes(basePath string) []string {
	return []string{
		basePath + listsPath + addItem,
		basePath + listsPath + toggleItem,
	}
}

// Register 註冊路由
func (h *Handler) Register(group *gin.RouterGroup) {
	lists := group.Group(listsPath)
	lists.POST("", h.HandleGenerate)
	lists.GET("/:id", h.HandleGet)
	lists.POST("/:id/archive", h.HandleArchive)
	lists.POST(addItem, h.HandleAddItem)
	lists.POST(toggleItem, h.HandleToggle)
	lists.PUT("/:id/items/:itemId/notes", h.HandleUpdateNotes)
	lists.DELETE("/:id/items/:itemId", h.HandleRemoveItem)
	lists.DELETE("/:id/categories/:category/completed", h.HandleClearCompleted)
}

// HandleGenerate 依菜單產生並保存購物清單
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := requestIDFrom(c)

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	slots, err := req.slots()
	if err != nil {
		h.fail(c, err)
		return
	}

	plan, unresolved, err := h.resolver.Resolve(c.Request.Context(), slots)
	if err != nil {
		common.LogError("食譜解析失敗", zap.Error(err), zap.String("request_id", requestID))
		h.fail(c, err)
		return
	}

	list, err := h.generator.Generate(plan, req.options())
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.Save(c.Request.Context(), list); err != nil {
		common.LogError("清單保存失敗", zap.Error(err), zap.String("list_id", list.ID))
		h.fail(c, err)
		return
	}

	common.LogInfo("購物清單已建立",
		zap.String("request_id", requestID),
		zap.String("list_id", list.ID),
		zap.Int("meal_slots", len(slots)),
		zap.Int("unresolved", len(unresolved)),
		zap.Int("total_items", list.Stats.TotalItems),
	)

	c.JSON(http.StatusCreated, GenerateResponse{ShoppingList: list, Warnings: unresolved})
}

// HandleGet 取得購物清單
func (h *Handler) HandleGet(c *gin.Context) {
	list, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// HandleArchive 封存購物清單
func (h *Handler) HandleArchive(c *gin.Context) {
	h.update(c, func(list *core.ShoppingList) error {
		return list.Archive(h.now())
	}, http.StatusOK)
}

// HandleToggle 切換項目完成狀態
func (h *Handler) HandleToggle(c *gin.Context) {
	var req ToggleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, common.ErrInvalidRequest.Wrap(err))
			return
		}
	}

	itemID := c.Param("itemId")
	h.update(c, func(list *core.ShoppingList) error {
		_, err := list.ToggleItem(itemID, req.UserID, h.now())
		return err
	}, http.StatusOK)
}

// HandleUpdateNotes 更新項目備註
func (h *Handler) HandleUpdateNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	itemID := c.Param("itemId")
	h.update(c, func(list *core.ShoppingList) error {
		_, err := list.UpdateNotes(itemID, req.Notes, h.now())
		return err
	}, http.StatusOK)
}

// HandleAddItem 手動加入項目
func (h *Handler) HandleAddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	ing := core.Ingredient{Name: req.Name, Quantity: req.Quantity, Unit: req.Unit, Category: req.Category}
	h.update(c, func(list *core.ShoppingList) error {
		_, err := list.AddCustomItem(ing, h.newID(), h.now())
		return err
	}, http.StatusCreated)
}

// HandleRemoveItem 移除項目
func (h *Handler) HandleRemoveItem(c *gin.Context) {
	itemID := c.Param("itemId")
	h.update(c, func(list *core.ShoppingList) error {
		return list.RemoveItem(itemID, h.now())
	}, http.StatusOK)
}

// HandleClearCompleted 清除分類中已完成的項目
func (h *Handler) HandleClearCompleted(c *gin.Context) {
	category, ok := core.ParseCategory(c.Param("category"))
	if !ok {
		h.fail(c, common.ErrUnknownCategory)
		return
	}

	removed := 0
	list, err := h.store.Update(c.Request.Context(), c.Param("id"), func(list *core.ShoppingList) error {
		n, err := list.ClearCompleted(category, h.now())
		removed = n
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ClearCompletedResponse{Removed: removed, List: list})
}

func (h *Handler) update(c *gin.Context, fn store.UpdateFunc, status int) {
	list, err := h.store.Update(c.Request.Context(), c.Param("id"), fn)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, list)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, resp := common.ToErrorResponse(err, h.debug)
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestIDFrom(c)),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func requestIDFrom(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.Writer.Header().Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}
