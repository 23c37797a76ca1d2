package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Wrap 以相同代碼與狀態包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{Code: e.Code, Message: e.Message, Status: e.Status, Err: err}
}

// Is 以錯誤代碼比對
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ToErrorResponse 將錯誤轉為 HTTP 狀態碼與響應主體
func ToErrorResponse(err error, debug bool) (int, ErrorResponse) {
	var custom *CustomError
	switch {
	case errors.As(err, &custom):
		resp := ErrorResponse{Code: custom.Code, Message: custom.Message}
		if debug && custom.Err != nil {
			resp.Details = custom.Err.Error()
		}
		return custom.Status, resp
	case IsValidationError(err):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeInvalidRequest, Message: err.Error()}
	default:
		resp := ErrorResponse{Code: ErrCodeInternalError, Message: ErrInternalError.Message}
		if debug && err != nil {
			resp.Details = err.Error()
		}
		return http.StatusInternalServerError, resp
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest   = "INVALID_REQUEST"    // 400
	ErrCodeNotFound         = "NOT_FOUND"          // 404
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED" // 405
	ErrCodeConflict         = "CONFLICT"           // 409
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest   = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrMethodNotAllowed = NewError(ErrCodeMethodNotAllowed, "不支援的請求方法", http.StatusMethodNotAllowed, nil)
	ErrConflict         = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrListNotFound    = NewError("LIST_NOT_FOUND", "購物清單不存在", http.StatusNotFound, nil)
	ErrItemNotFound    = NewError("ITEM_NOT_FOUND", "購物項目不存在", http.StatusNotFound, nil)
	ErrUnknownCategory = NewError("UNKNOWN_CATEGORY", "未知的分類", http.StatusBadRequest, nil)
	ErrCatalogError    = NewError("CATALOG_ERROR", "食譜目錄服務錯誤", http.StatusBadGateway, nil)
	ErrStoreError      = NewError("STORE_ERROR", "清單儲存錯誤", http.StatusServiceUnavailable, nil)
	ErrCacheFull       = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
)
