package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/credstack/internal/flagx"
	"github.com/dmitrijs2005/credstack/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept "1m" style strings or integer nanoseconds. Empty or zero
// fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC            string           `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            string           `json:"endpoint_addr_http"`
	DatabaseDSN                 string           `json:"database_dsn"`
	SecretKey                   string           `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration   `json:"access_token_validity_duration"`
	PasswordHashCost            int              `json:"password_hash_cost"`
	LockoutThreshold            int              `json:"lockout_threshold"`
	LockoutDurations            []timex.Duration `json:"lockout_durations"`
	LockoutResetOnExpiry        *bool            `json:"lockout_reset_on_expiry"`
	SchedulerInterval           timex.Duration   `json:"scheduler_interval"`
	SchedulerTickTimeout        timex.Duration   `json:"scheduler_tick_timeout"`
	AutomationConfigFile        string           `json:"automation_config_file"`
	NotifyDriver                string           `json:"notify_driver"`
	AMQPURL                     string           `json:"amqp_url"`
	AMQPExchange                string           `json:"amqp_exchange"`
	NATSURL                     string           `json:"nats_url"`
	NATSSubject                 string           `json:"nats_subject"`
	RedisAddr                   string           `json:"redis_addr"`
	RedisChannel                string           `json:"redis_channel"`
	S3RootUser                  string           `json:"s3_root_user"`
	S3RootPassword              string           `json:"s3_root_password"`
	S3Bucket                    string           `json:"s3_bucket"`
	S3Region                    string           `json:"s3_region"`
	S3BaseEndpoint              string           `json:"s3_base_endpoint"`
	LogLevel                    string           `json:"log_level"`
}

// parseJson loads values from the JSON file named by -c/-config, if any.
// It panics when the file cannot be read or is not valid JSON, since the
// server cannot start with a config the operator did not intend.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.PasswordHashCost > 0 {
		config.PasswordHashCost = c.PasswordHashCost
	}
	if c.LockoutThreshold > 0 {
		config.LockoutThreshold = c.LockoutThreshold
	}
	if len(c.LockoutDurations) > 0 {
		config.LockoutDurations = timex.Durations(c.LockoutDurations)
	}
	if c.LockoutResetOnExpiry != nil {
		config.LockoutResetOnExpiry = *c.LockoutResetOnExpiry
	}
	if c.SchedulerInterval.Duration > 0 {
		config.SchedulerInterval = c.SchedulerInterval.Duration
	}
	if c.SchedulerTickTimeout.Duration > 0 {
		config.SchedulerTickTimeout = c.SchedulerTickTimeout.Duration
	}
	setString(&config.AutomationConfigFile, c.AutomationConfigFile)
	setString(&config.NotifyDriver, c.NotifyDriver)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPExchange, c.AMQPExchange)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.NATSSubject, c.NATSSubject)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisChannel, c.RedisChannel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
