package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Portal    PortalSettings    `mapstructure:"portal"`
	Schedule  ScheduleSettings  `mapstructure:"schedule"`
	Admin     AdminSettings     `mapstructure:"admin"`
	Crypto    CryptoSettings    `mapstructure:"crypto"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	Migrate           bool          `mapstructure:"migrate"`
}

// RedisSettings configures the connection backing the delayed queue.
type RedisSettings struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	DB          int    `mapstructure:"db"`
	Password    string `mapstructure:"password"`
	TLSEnabled  bool   `mapstructure:"tls_enabled"`
	QueuePrefix string `mapstructure:"queue_prefix"`
}

// KafkaSettings configures the attempt event producer. Empty brokers
// switch the service to the stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// PortalSettings describes the university portal endpoints and the
// client behavior used against them.
type PortalSettings struct {
	LoginURL        string        `mapstructure:"login_url"`
	CaptchaProbeURL string        `mapstructure:"captcha_probe_url"`
	AuthProbeURL    string        `mapstructure:"auth_probe_url"`
	LogoutURL       string        `mapstructure:"logout_url"`
	BusinessNowURL  string        `mapstructure:"business_now_url"`
	FormInstanceURL string        `mapstructure:"form_instance_url"`
	FormSubmitURL   string        `mapstructure:"form_submit_url"`
	LoginOrigin     string        `mapstructure:"login_origin"`
	AppOrigin       string        `mapstructure:"app_origin"`
	AppReferer      string        `mapstructure:"app_referer"`
	UserAgent       string        `mapstructure:"user_agent"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// ScheduleSettings drives the daily dispatcher and the queue pollers.
type ScheduleSettings struct {
	DailyAt       string        `mapstructure:"daily_at"`
	Timezone      string        `mapstructure:"timezone"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Workers       int           `mapstructure:"workers"`
	PollBatchSize int           `mapstructure:"poll_batch_size"`
}

// AdminSettings holds the single management API credential.
type AdminSettings struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// CryptoSettings keys the credential cipher used for portal passwords.
type CryptoSettings struct {
	Secret string `mapstructure:"secret"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CLOCK")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.queue_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"portal.login_url",
		"portal.captcha_probe_url",
		"portal.auth_probe_url",
		"portal.logout_url",
		"portal.business_now_url",
		"portal.form_instance_url",
		"portal.form_submit_url",
		"portal.login_origin",
		"portal.app_origin",
		"portal.app_referer",
		"portal.user_agent",
		"portal.request_timeout",
		"schedule.daily_at",
		"schedule.timezone",
		"schedule.poll_interval",
		"schedule.workers",
		"schedule.poll_batch_size",
		"admin.username",
		"admin.password_hash",
		"admin.jwt_secret",
		"admin.token_ttl",
		"crypto.secret",
		"telemetry.metrics_namespace",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "campus-clock")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "clock")
	v.SetDefault("postgres.password", "clock_password")
	v.SetDefault("postgres.database", "clock")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.queue_prefix", "clock:attempt_queue")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "clock")

	v.SetDefault("portal.login_url", "https://ids.xmu.edu.cn/authserver/login?service=https://xmuxg.xmu.edu.cn/login/cas/xmu")
	v.SetDefault("portal.captcha_probe_url", "https://ids.xmu.edu.cn/authserver/needCaptcha.html")
	v.SetDefault("portal.auth_probe_url", "https://xmuxg.xmu.edu.cn/login/check")
	v.SetDefault("portal.logout_url", "https://ids.xmu.edu.cn/authserver/logout?service=https://xmuxg.xmu.edu.cn/xmu/login")
	v.SetDefault("portal.business_now_url", "https://xmuxg.xmu.edu.cn/api/app/214/business/now?getFirst=true")
	v.SetDefault("portal.form_instance_url", "https://xmuxg.xmu.edu.cn/api/formEngine/business/%s/myFormInstance")
	v.SetDefault("portal.form_submit_url", "https://xmuxg.xmu.edu.cn/api/formEngine/formInstance/%s")
	v.SetDefault("portal.login_origin", "https://ids.xmu.edu.cn")
	v.SetDefault("portal.app_origin", "https://xmuxg.xmu.edu.cn")
	v.SetDefault("portal.app_referer", "https://xmuxg.xmu.edu.cn/app/214")
	v.SetDefault("portal.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.88 Safari/537.36")
	v.SetDefault("portal.request_timeout", "30s")

	v.SetDefault("schedule.daily_at", "08:00")
	v.SetDefault("schedule.timezone", "Asia/Shanghai")
	v.SetDefault("schedule.poll_interval", "15s")
	v.SetDefault("schedule.workers", 4)
	v.SetDefault("schedule.poll_batch_size", 32)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", "12h")

	v.SetDefault("crypto.secret", "")

	v.SetDefault("telemetry.metrics_namespace", "clock")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "CLOCK_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
