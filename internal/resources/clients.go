package resources

import (
	"context"
	"fmt"
	"strings"

	"garansi-console/internal/apiclient"
	"garansi-console/internal/pagination"
	"garansi-console/internal/rbac"
)

type (
	Products    = Collection[Product, ProductInput]
	Stores      = Collection[Store, StoreInput]
	Supervisors = Collection[Supervisor, SupervisorInput]
	Sales       = Collection[SalesPerson, SalesInput]
)

func NewProducts(api *apiclient.Client, s SubjectSource) *Products {
	return newCollection[Product, ProductInput](api, s, rbac.ResourceProducts, "products", mapProduct)
}

func NewStores(api *apiclient.Client, s SubjectSource) *Stores {
	return newCollection[Store, StoreInput](api, s, rbac.ResourceStores, "stores", mapStore)
}

func NewSupervisors(api *apiclient.Client, s SubjectSource) *Supervisors {
	return newCollection[Supervisor, SupervisorInput](api, s, rbac.ResourceSupervisors, "supervisors", mapSupervisor)
}

func NewSales(api *apiclient.Client, s SubjectSource) *Sales {
	return newCollection[SalesPerson, SalesInput](api, s, rbac.ResourceSales, "sales", mapSalesPerson)
}

// Customers adds phone lookup to the generic collection.
type Customers struct {
	*Collection[Customer, CustomerInput]
}

func NewCustomers(api *apiclient.Client, s SubjectSource) *Customers {
	return &Customers{newCollection[Customer, CustomerInput](api, s, rbac.ResourceCustomers, "customers", mapCustomer)}
}

// FindByPhone returns the customer registered under phone. Formatting
// differences such as +62 versus 0 are ignored.
func (c *Customers) FindByPhone(ctx context.Context, phone string) (Customer, error) {
	want := normalizePhone(phone)
	if want == "" {
		return Customer{}, fmt.Errorf("%w: phone", ErrMissingID)
	}
	env, err := c.List(ctx, pagination.Request{Page: 1, Limit: pagination.MaxLimit, Search: strings.TrimSpace(phone)})
	if err != nil {
		return Customer{}, err
	}
	for _, cust := range env.Items {
		if normalizePhone(cust.Phone) == want {
			return cust, nil
		}
	}
	return Customer{}, fmt.Errorf("%w: customer with phone %s", ErrNotFound, phone)
}
