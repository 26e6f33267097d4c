package errors

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam    = 400
	CodeUnauthorized    = 401
	CodePaymentRequired = 402
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeLimitExceeded   = 429
	CodeServerError     = 500
	CodeStorageError    = 503
)

// AppError 业务错误，携带错误码向上传递
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// ========== 业务错误快捷构造 ==========

func NewValidation(message string) *AppError {
	return New(CodeInvalidParam, message)
}

func NewNotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

func NewPaymentRequired(message string) *AppError {
	return New(CodePaymentRequired, message)
}

func NewLimitExceeded(message string) *AppError {
	return New(CodeLimitExceeded, message)
}

// NewIntegrity 校验和不匹配等完整性错误，按篡改处理
func NewIntegrity(message string) *AppError {
	return New(CodeInvalidParam, message)
}

func NewStorage(message string) *AppError {
	return New(CodeStorageError, message)
}
