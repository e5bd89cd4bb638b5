package constants

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyRequest            = "request"
	KeyHeader             = "header"
	KeyBody               = "body"
	KeyRequestHost        = "host"
	KeyRequestIP          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyCacheKey           = "cacheKey"
	KeyUserID             = "userId"
	KeyCartID             = "cartId"
	KeyCartItemID         = "cartItemId"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyOrderID            = "orderId"
	KeyOrderItems         = "orderItems"
	KeyOrderStatus        = "orderStatus"
	KeyPaymentStatus      = "paymentStatus"
	KeyIdempotencyKey     = "idempotencyKey"
	KeyFilter             = "filter"
	KeyReservationMode    = "reservationMode"
	KeyMigrationDirection = "migrationDirection"
)
