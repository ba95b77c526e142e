package tenants

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Well known tenant IDs
const (
	AdminID     = "admin"
	SupporterID = "supporter"
	CustomerID  = "customer"
)

// Defaults returns the three built-in tenants.
func Defaults() []*Tenant {
	return []*Tenant{
		{
			ID:            AdminID,
			Name:          "Super Admin",
			BasePath:      "/admin",
			StoragePrefix: "admin_",
			ConsolePath:   "/admin",
			HomeRoute:     "/admin/dashboard",
			SignInRoute:   "/admin/login",
			Resources:     []string{"tickets", "supporters", "designations", "users"},
		},
		{
			ID:            SupporterID,
			Name:          "Supporter",
			BasePath:      "/supporter",
			StoragePrefix: "supporter_",
			ConsolePath:   "/supporter",
			HomeRoute:     "/supporter/dashboard",
			SignInRoute:   "/supporter/login",
			Resources:     []string{"tickets", "messages"},
		},
		{
			ID:            CustomerID,
			Name:          "Customer",
			BasePath:      "/customer",
			StoragePrefix: "customer_",
			ConsolePath:   "/customer",
			HomeRoute:     "/customer/dashboard",
			SignInRoute:   "/customer/login",
			Resources:     []string{"tickets", "messages"},
		},
	}
}

type tenantsFile struct {
	Tenants []*Tenant `yaml:"tenants"`
}

// LoadFile reads tenant definitions from a YAML file. Entries whose ID matches
// a built-in tenant override only the fields they set.
func LoadFile(path string) ([]*Tenant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}

	var file tenantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}

	merged := Defaults()
	index := make(map[string]*Tenant, len(merged))
	for _, t := range merged {
		index[t.ID] = t
	}

	for _, t := range file.Tenants {
		if t == nil || t.ID == "" {
			return nil, fmt.Errorf("tenants file: tenant without id")
		}
		base, ok := index[t.ID]
		if !ok {
			if err := t.validate(); err != nil {
				return nil, err
			}
			merged = append(merged, t)
			index[t.ID] = t
			continue
		}
		overlay(base, t)
	}
	return merged, nil
}

// Populate stores every tenant in the repo.
func Populate(repo Repo, list []*Tenant) error {
	for _, t := range list {
		if err := repo.Upsert(t); err != nil {
			return fmt.Errorf("upsert tenant %s: %w", t.ID, err)
		}
	}
	return nil
}

func (t *Tenant) validate() error {
	switch {
	case t.BasePath == "":
		return fmt.Errorf("tenant %s: basePath is required", t.ID)
	case t.StoragePrefix == "":
		return fmt.Errorf("tenant %s: storagePrefix is required", t.ID)
	case t.ConsolePath == "" || t.HomeRoute == "" || t.SignInRoute == "":
		return fmt.Errorf("tenant %s: consolePath, homeRoute and signInRoute are required", t.ID)
	}
	return nil
}

func overlay(dst, src *Tenant) {
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.BasePath != "" {
		dst.BasePath = src.BasePath
	}
	if src.StoragePrefix != "" {
		dst.StoragePrefix = src.StoragePrefix
	}
	if src.ConsolePath != "" {
		dst.ConsolePath = src.ConsolePath
	}
	if src.HomeRoute != "" {
		dst.HomeRoute = src.HomeRoute
	}
	if src.SignInRoute != "" {
		dst.SignInRoute = src.SignInRoute
	}
	if len(src.Resources) > 0 {
		dst.Resources = src.Resources
	}
}
