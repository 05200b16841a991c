package config

const (
	EnvPrefix = "mealbridge"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "MEALBRIDGE_APP_ENV"
	EnvPort               = "MEALBRIDGE_APP_PORT"
	EnvDBDSN              = "MEALBRIDGE_DB_DSN"
	EnvDBHost             = "MEALBRIDGE_DB_HOST"
	EnvDBUser             = "MEALBRIDGE_DB_USER"
	EnvDBName             = "MEALBRIDGE_DB_NAME"
	EnvDBPassword         = "MEALBRIDGE_DB_PASSWORD"
	EnvRedisURL           = "MEALBRIDGE_REDIS_URL"
	EnvMongoURI           = "MEALBRIDGE_MONGO_URI"
	EnvJWTSecret          = "MEALBRIDGE_JWT_SECRET"
	EnvJWTIssuer          = "MEALBRIDGE_JWT_ISSUER"
	EnvJWTExpMins         = "MEALBRIDGE_JWT_EXPIRATION_MINUTES"
	EnvClientURL          = "MEALBRIDGE_CLIENT_URL"
	EnvVAPIDPublicKey     = "MEALBRIDGE_VAPID_PUBLIC_KEY"
	EnvVAPIDPrivateKey    = "MEALBRIDGE_VAPID_PRIVATE_KEY"
	EnvStripeSecretKey    = "MEALBRIDGE_STRIPE_SECRET_KEY"
	EnvStripeWebhookKey   = "MEALBRIDGE_STRIPE_WEBHOOK_SECRET"
	EnvGCPProjectID       = "MEALBRIDGE_GCP_PROJECT_ID"
	EnvPubSubDomainTopic  = "MEALBRIDGE_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub    = "MEALBRIDGE_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvTrackingTrailLimit = "MEALBRIDGE_TRACKING_TRAIL_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
