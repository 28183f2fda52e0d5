package constants

const (
	ALLOWED_ORIGINS       = "/orghub/ALLOWED_ORIGINS"
	DATABASE_RDS_ENDPOINT = "/orghub/DATABASE_RDS_ENDPOINT"
	DATABASE_PORT         = "/orghub/DATABASE_PORT"
	DATABASE_NAME         = "/orghub/DATABASE_NAME"
	DATABASE_USERNAME     = "/orghub/DATABASE_USERNAME"
	DATABASE_PASSWORD     = "/orghub/DATABASE_PASSWORD"
	SSL_MODE              = "/orghub/SSL_MODE"
	COGNITO_USER_POOL_ID  = "/orghub/COGNITO_USER_POOL_ID"
	COGNITO_CLIENT_ID     = "/orghub/COGNITO_CLIENT_ID"
	DRIVER_NAME           = "postgres"
)
