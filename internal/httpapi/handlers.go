package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"garansi-console/internal/audit"
	"garansi-console/internal/authapi"
	"garansi-console/internal/rbac"
	"garansi-console/internal/reporting"
	"garansi-console/internal/resources"
	"garansi-console/internal/session"
)

// Handlers groups console page handlers for dependency injection.
// Keep these thin: bind input, call the session or a resource client,
// return JSON or a redirect.
type Handlers struct {
	Session   *session.Store
	Auth      *authapi.Client
	Audit     *audit.Service
	Flash     *Flash
	Reporting *reporting.Service

	Products    *resources.Products
	Stores      *resources.Stores
	Supervisors *resources.Supervisors
	Sales       *resources.Sales
	Customers   *resources.Customers

	// Optional type-ahead search; plain List is used when nil.
	ProductSearch  *resources.LiveSearch[resources.Product]
	CustomerSearch *resources.LiveSearch[resources.Customer]

	Clock func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// --- Session ---

type loginForm struct {
	Phone    string `json:"phone" form:"phone"`
	Password string `json:"password" form:"password"`
}

// Home sends the operator to the login page or their landing page.
func (h *Handlers) Home(c *gin.Context) {
	s := h.Session.Subject()
	if !s.Authenticated {
		c.Redirect(http.StatusSeeOther, rbac.PathLogin)
		return
	}
	c.Redirect(http.StatusSeeOther, rbac.DefaultLanding(s.Role))
}

func (h *Handlers) LoginPage(c *gin.Context) {
	body := gin.H{"page": "login"}
	if h.Flash != nil {
		if msg := h.Flash.Take(); msg != "" {
			body["message"] = msg
		}
	}
	c.JSON(http.StatusOK, body)
}

// Login failures render inline and leave the session as it was.
func (h *Handlers) Login(c *gin.Context) {
	var f loginForm
	if err := c.ShouldBind(&f); err != nil {
		badRequest(c, "invalid login form")
		return
	}
	u, err := h.Session.Login(c.Request.Context(), f.Phone, f.Password)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Flash != nil {
		h.Flash.Clear()
	}
	c.Redirect(http.StatusSeeOther, rbac.DefaultLanding(u.Role))
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Session.Logout(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, rbac.PathLogin)
}

type forgotPasswordForm struct {
	Phone       string `json:"phone" form:"phone"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

func (h *Handlers) ForgotPassword(c *gin.Context) {
	var f forgotPasswordForm
	if err := c.ShouldBind(&f); err != nil {
		badRequest(c, "invalid form")
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), f.Phone, f.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Account ---

func (h *Handlers) Account(c *gin.Context) {
	u, ok := h.Session.Identity()
	if !ok {
		c.Redirect(http.StatusSeeOther, rbac.PathLogin)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "landing": rbac.DefaultLanding(u.Role)})
}

type changePasswordForm struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
}

func (h *Handlers) ChangePassword(c *gin.Context) {
	var f changePasswordForm
	if err := c.ShouldBind(&f); err != nil {
		badRequest(c, "invalid form")
		return
	}
	ctx := c.Request.Context()
	if err := h.Auth.ChangePassword(ctx, f.CurrentPassword, f.NewPassword); err != nil {
		fail(c, err)
		return
	}
	if h.Audit != nil {
		if u, ok := h.Session.Identity(); ok {
			_ = h.Audit.Record(ctx, audit.EventTypePassword, u.ID.String(), u.Role.String(), "")
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) Activity(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusOK, gin.H{"items": []audit.Event{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	evs, err := h.Audit.Recent(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if evs == nil {
		evs = []audit.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"items": evs})
}

// --- Dashboard ---

func (h *Handlers) Dashboard(c *gin.Context) {
	year := h.now().Year()
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "year must be a number")
			return
		}
		year = n
	}
	ov, err := h.Reporting.Overview(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// --- Customers ---

func (h *Handlers) CustomerByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		badRequest(c, "phone is required")
		return
	}
	cust, err := h.Customers.FindByPhone(c.Request.Context(), phone)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}
