// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.bodylimit", "1M")
	v.SetDefault("http.cors.allowedorigins", []string{})
	v.SetDefault("http.ratelimit.enabled", false)
	v.SetDefault("http.ratelimit.requestspersecond", 10.0)
	v.SetDefault("http.ratelimit.burst", 20)
	v.SetDefault("http.idempotency.ttl", 24*time.Hour)

	v.SetDefault("datastore.type", "sqlite")
	v.SetDefault("datastore.slowquerythreshold", 200*time.Millisecond)
	v.SetDefault("datastore.sqlite.path", "camrelay.db")
	v.SetDefault("datastore.mysql.host", "localhost")
	v.SetDefault("datastore.mysql.port", "3306")
	v.SetDefault("datastore.mysql.username", "")
	v.SetDefault("datastore.mysql.password", "")
	v.SetDefault("datastore.mysql.database", "camrelay")

	v.SetDefault("relay.permanent.url", "http://localhost:8090")
	v.SetDefault("relay.temporary.url", "http://localhost:8091")
	v.SetDefault("relay.timeout", 15*time.Second)
	v.SetDefault("relay.useragent", "camrelay")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.publickeyfile", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
