// Package discovery centralizes in-network service address conventions.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceDiagram is the diagram gRPC service identity.
	ServiceDiagram = "diagramd"
)

var grpcPorts = map[string]int{
	ServiceDiagram: 8082,
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// DefaultGRPCPort returns the canonical gRPC port for a service, or 0.
func DefaultGRPCPort(service string) int {
	return grpcPorts[strings.TrimSpace(service)]
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return service + ":" + strconv.Itoa(port)
}
