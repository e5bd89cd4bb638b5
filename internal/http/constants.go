package http

const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
	ValueApplicationJson = "application/json"
	BearerPrefix         = "bearer "
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
