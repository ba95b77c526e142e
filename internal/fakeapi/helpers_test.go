package fakeapi_test

import "github.com/jrsteele09/helpdesk-console/tenants"

var adminTenant = func() tenants.Tenant {
	for _, t := range tenants.Defaults() {
		if t.ID == tenants.AdminID {
			return *t
		}
	}
	panic("admin tenant missing")
}()
