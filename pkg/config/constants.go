package config

const EnvPrefix = "SHOPFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "SHOPFRONT_APP_ENV"
	EnvPort   = "SHOPFRONT_APP_PORT"

	EnvDBDSN    = "SHOPFRONT_DB_DSN"
	EnvDBDriver = "SHOPFRONT_DB_DRIVER"
	EnvDBHost   = "SHOPFRONT_DB_HOST"
	EnvDBUser   = "SHOPFRONT_DB_USER"
	EnvDBName   = "SHOPFRONT_DB_NAME"

	EnvRedisURL = "SHOPFRONT_REDIS_URL"

	EnvJWTSecret              = "SHOPFRONT_JWT_SECRET"
	EnvJWTIssuer              = "SHOPFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "SHOPFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOPFRONT_REFRESH_TOKEN_TTL_MINUTES"
)
