package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry announces service instances to a discovery backend.
type ServiceRegistry interface {
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error
	Deregister(id string) error
}
