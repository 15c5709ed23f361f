package config

const EnvPrefix = "HOMETEX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv             = "HOMETEX_APP_ENV"
	EnvPort               = "HOMETEX_APP_PORT"
	EnvStorageDriver      = "HOMETEX_STORAGE_DRIVER"
	EnvRedisURL           = "HOMETEX_REDIS_URL"
	EnvRedisAddr          = "HOMETEX_REDIS_ADDR"
	EnvDBDSN              = "HOMETEX_DB_DSN"
	EnvBackendBaseURL     = "HOMETEX_BACKEND_BASE_URL"
	EnvOrderDelay         = "HOMETEX_ORDER_PLACEMENT_DELAY"
	EnvNotifyDebounce     = "HOMETEX_NOTIFY_DEBOUNCE_WINDOW"
	EnvNotifyFeedCapacity = "HOMETEX_NOTIFY_FEED_CAPACITY"
)
