package httpapi

import (
	"github.com/gin-gonic/gin"

	"garansi-console/internal/rbac"
	"garansi-console/internal/resources"
)

// Mount registers every console page on r.
func (h *Handlers) Mount(r gin.IRouter) {
	s := h.Session

	r.GET("/", h.Home)
	r.GET(rbac.PathLogin, rbac.GuardLogin(s), h.LoginPage)
	r.POST(rbac.PathLogin, rbac.GuardLogin(s), h.Login)
	r.POST("/logout", h.Logout)
	r.POST("/password/forgot", rbac.GuardLogin(s), h.ForgotPassword)

	account := r.Group("/account", rbac.Guard(s))
	{
		account.GET("", h.Account)
		account.PUT("/password", h.ChangePassword)
		account.GET("/activity", h.Activity)
	}

	r.GET(rbac.PathDashboard, rbac.Guard(s, rbac.AllowedRoles(rbac.ResourceDashboard, rbac.ActionRead)...), h.Dashboard)

	products := mountCollection[resources.Product, resources.ProductInput](r, s, rbac.PathProducts, h.Products, "category", "status")
	products.GET("/search", searchHandler(h.ProductSearch, h.Products))

	mountCollection[resources.Store, resources.StoreInput](r, s, "/stores", h.Stores, "city", "status")
	mountCollection[resources.Supervisor, resources.SupervisorInput](r, s, "/supervisors", h.Supervisors, "status")
	mountCollection[resources.SalesPerson, resources.SalesInput](r, s, "/sales", h.Sales, "storeId", "status")

	customers := mountCollection[resources.Customer, resources.CustomerInput](r, s, "/customers", h.Customers, "productId", "status")
	customers.GET("/search", searchHandler(h.CustomerSearch, h.Customers))
	customers.GET("/lookup", h.CustomerByPhone)
}
