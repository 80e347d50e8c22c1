package messaging

const (
	ExchangeName      = "weather"
	ResultRoutingKey  = "weather.result"
	FailureRoutingKey = "weather.failure"
)
