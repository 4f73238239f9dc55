package conf

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/rc/schema"
	"github.com/txix-open/jsonschema"
)

func init() {
	schema.CustomGenerators.Register("logLevel", func(field reflect.StructField, t *jsonschema.Schema) {
		t.Type = "string"
		t.Enum = []interface{}{"debug", "info", "error", "fatal"}
	})
}

type Remote struct {
	Redis     *Redis    `schema:"Настройки Redis,обязательно, если используется распределенный кеш абонементов"`
	Ledger    Ledger    `schema:"Настройки подключения к блокчейну"`
	Caching   Caching   `schema:"Настройки кеширования"`
	RateLimit RateLimit `schema:"Настройки ограничения частоты запросов"`
	Logging   Logging   `schema:"Настройки логирования"`
}

type Ledger struct {
	RpcUrl              string `validate:"required" schema:"Адрес JSON-RPC узла"`
	ContractAddress     string `validate:"required" schema:"Адрес пакета с абонементами"`
	RequestTimeoutInSec int    `validate:"required" schema:"Таймаут запроса к узлу,в секундах"`
	MaxRetries          int    `schema:"Количество повторов запросов на чтение,по умолчанию 3"`
}

type Caching struct {
	EntitlementTtlInSec int `validate:"required" schema:"Время кеширования абонементов,в секундах"`
}

type RateLimit struct {
	WindowSizeInSec int `validate:"required" schema:"Размер окна,в секундах"`
	MaxRequests     int `validate:"required,gte=1,lte=100000" schema:"Запросов в окне,на один абонемент"`
}

type Logging struct {
	LogLevel         log.Level `schemaGen:"logLevel" schema:"Уровень логирования,логирование запросов осуществляется на уровне debug"`
	RequestLogEnable bool      `schema:"Включить логирование запросов"`
}

type Redis struct {
	Address  string         `schema:"Адрес,обязательно, если sentinel не указан"`
	Username string         `schema:"Имя пользователя"`
	Password string         `schema:"Пароль"`
	Sentinel *RedisSentinel `schema:"Настройки sentinel,обязательно, если address не указан"`
}

type RedisSentinel struct {
	Addresses  []string `validate:"required" schema:"Адреса нод в кластере"`
	MasterName string   `validate:"required" schema:"Имя мастера"`
	Username   string   `schema:"Имя пользователя в sentinel"`
	Password   string   `schema:"Пароль в sentinel"`
}

func (r Remote) Validate() error {
	if r.Redis != nil && r.Redis.Sentinel == nil && r.Redis.Address == "" {
		return errors.New("invalid redis config. sentinel or address are required")
	}
	return nil
}

func (l Ledger) Retries() int {
	if l.MaxRetries <= 0 {
		return 3
	}
	return l.MaxRetries
}
