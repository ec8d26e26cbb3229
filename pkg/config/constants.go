package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv  = "VENDA_APP_ENV"
	EnvAppPort = "VENDA_APP_PORT"

	EnvDBDSN  = "VENDA_DB_DSN"
	EnvDBHost = "VENDA_DB_HOST"
	EnvDBUser = "VENDA_DB_USER"
	EnvDBName = "VENDA_DB_NAME"

	EnvCheckoutCommitTimeout = "VENDA_CHECKOUT_COMMIT_TIMEOUT"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
