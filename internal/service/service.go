// Package service holds the static lookup tables that turn a service
// kind and a resolved host port into connection strings and environment
// variables.
//
// Every function takes the port as an argument and echoes it verbatim.
// Nothing in this package knows a default port to fall back on; the
// internal ports in containerPorts are only ever used to ask the runtime
// for a mapping.
package service

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// DefaultHost is the hostname sidecar ports are published on.
const DefaultHost = "localhost"

// Credentials used by the provisioning script for every service that
// takes a user and password. They are fixed, not generated.
const (
	User     = "sidecar"
	Password = "sidecar"
	Database = "sidecar"
)

// Known service kinds.
const (
	Postgres = "postgres"
	Redis    = "redis"
	Mongo    = "mongo"
	Kafka    = "kafka"
	RabbitMQ = "rabbitmq"
)

// containerPorts maps each service kind to the port it listens on inside
// its container.
var containerPorts = map[string]int{
	Postgres: 5432,
	Redis:    6379,
	Mongo:    27017,
	Kafka:    9092,
	RabbitMQ: 5672,
}

// Known returns the built-in service kinds in the order they are
// suggested to users.
func Known() []string {
	return []string{Postgres, Redis, Mongo, Kafka, RabbitMQ}
}

// ContainerPort returns the internal port for service. Built-in kinds
// take precedence over extra, which lets users teach the CLI about
// additional services without shadowing the standard ones.
func ContainerPort(service string, extra map[string]int) (int, bool) {
	if p, ok := containerPorts[service]; ok {
		return p, true
	}
	if p, ok := extra[service]; ok && p > 0 {
		return p, true
	}
	return 0, false
}

// ExtraServices returns the names in extra that are not built-in,
// sorted for stable output.
func ExtraServices(extra map[string]int) []string {
	var names []string
	for name, port := range extra {
		if _, builtin := containerPorts[name]; !builtin && port > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// hostPort joins host and port. An empty host falls back to DefaultHost.
func hostPort(host string, port int) string {
	if host == "" {
		host = DefaultHost
	}
	return host + ":" + strconv.Itoa(port)
}

// BuildURI returns the connection string for service at host:port.
// Unknown services get a bare host:port.
func BuildURI(service, host string, port int) string {
	addr := hostPort(host, port)
	switch service {
	case Postgres:
		return fmt.Sprintf("postgresql://%s:%s@%s/%s", User, Password, addr, Database)
	case Redis:
		return "redis://" + addr
	case Mongo:
		return fmt.Sprintf("mongodb://%s:%s@%s", User, Password, addr)
	case Kafka:
		return addr
	case RabbitMQ:
		return fmt.Sprintf("amqp://%s:%s@%s", User, Password, addr)
	default:
		return addr
	}
}

// MgmtURL returns the RabbitMQ management UI URL for a host port.
func MgmtURL(host string, port int) string {
	return "http://" + hostPort(host, port)
}

// BuildEnv returns the environment variables for service, in print order.
// For rabbitmq, RABBITMQ_MGMT_URL is added only when meta carries a
// non-zero mgmt_port.
func BuildEnv(service, host string, port int, meta model.Metadata) model.EnvList {
	if host == "" {
		host = DefaultHost
	}
	uri := BuildURI(service, host, port)
	p := strconv.Itoa(port)

	switch service {
	case Postgres:
		return model.EnvList{
			{Key: "DATABASE_URL", Value: uri},
			{Key: "POSTGRES_HOST", Value: host},
			{Key: "POSTGRES_PORT", Value: p},
			{Key: "POSTGRES_USER", Value: User},
			{Key: "POSTGRES_PASSWORD", Value: Password},
			{Key: "POSTGRES_DB", Value: Database},
		}
	case Redis:
		return model.EnvList{
			{Key: "REDIS_URL", Value: uri},
			{Key: "REDIS_HOST", Value: host},
			{Key: "REDIS_PORT", Value: p},
		}
	case Mongo:
		return model.EnvList{
			{Key: "MONGODB_URL", Value: uri},
			{Key: "MONGODB_HOST", Value: host},
			{Key: "MONGODB_PORT", Value: p},
		}
	case Kafka:
		return model.EnvList{
			{Key: "KAFKA_BOOTSTRAP_SERVERS", Value: uri},
		}
	case RabbitMQ:
		env := model.EnvList{
			{Key: "AMQP_URL", Value: uri},
			{Key: "RABBITMQ_HOST", Value: host},
			{Key: "RABBITMQ_PORT", Value: p},
		}
		if mgmt := meta.MgmtPort(); mgmt > 0 {
			env = append(env, model.EnvVar{Key: "RABBITMQ_MGMT_URL", Value: MgmtURL(host, mgmt)})
		}
		return env
	default:
		return model.EnvList{
			{Key: "SERVICE_URI", Value: uri},
		}
	}
}
