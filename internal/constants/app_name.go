package constants

const (
	AppCartService     = "cart-service"
	AppOrderService    = "order-service"
	AppUserService     = "user-service"
	AppCheckout        = "checkout"
	AudienceUser       = "audience-user"
	ChannelOrderEvents = "order-events"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)
