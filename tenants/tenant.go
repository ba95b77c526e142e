package tenants

import "strings"

// Tenant describes one independent class of console user (super-admin,
// supporter or customer). Each tenant has its own backend base path, its own
// storage namespace and its own set of console routes.
type Tenant struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	BasePath      string   `json:"basePath" yaml:"basePath"`           // Backend path prefix, e.g. "/admin"
	StoragePrefix string   `json:"storagePrefix" yaml:"storagePrefix"` // Key namespace for persisted sessions
	ConsolePath   string   `json:"consolePath" yaml:"consolePath"`     // Console route prefix, e.g. "/admin"
	HomeRoute     string   `json:"homeRoute" yaml:"homeRoute"`
	SignInRoute   string   `json:"signInRoute" yaml:"signInRoute"`
	Resources     []string `json:"resources" yaml:"resources"` // Resource collections this tenant may browse
}

// Endpoint returns the backend path of a tenant auth endpoint such as
// "login", "refresh" or "logout". Paths keep the trailing slash the backend
// expects.
func (t *Tenant) Endpoint(name string) string {
	return strings.TrimSuffix(t.BasePath, "/") + "/" + strings.Trim(name, "/") + "/"
}

// HasResource reports whether the tenant console exposes the named resource.
func (t *Tenant) HasResource(name string) bool {
	for _, r := range t.Resources {
		if r == name {
			return true
		}
	}
	return false
}
