package constants

// 下游服务名，既是 Nacos 中的注册名，也是静态地址表的 key
const (
	RestaurantService = "restaurant-service"
	PaymentService    = "payment-service"
	DeliveryService   = "delivery-service"
)

// 网关透传的调用方身份 header
const (
	HeaderUserRole  = "x-user-role"
	HeaderUserID    = "x-user-id"
	HeaderUserEmail = "x-user-email"
)

const RoleCustomer = "customer"

// 下游接口路径
const (
	BasketPath          = "/api/basket/%s"
	ClearBasketPath     = "/api/basket/%s/clear"
	PaymentProcessPath  = "/api/payment/process"
	RestaurantPath      = "/api/restaurant/%s"
	DeliveryByOrderPath = "/api/delivery/order/%s"
)
