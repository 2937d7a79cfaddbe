package constants

import "github.com/go-playground/validator/v10"

type ContextKey string

const (
	AppKey    ContextKey = "app"
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	LoggerKey ContextKey = "logger"
	ParamsKey ContextKey = "params"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
