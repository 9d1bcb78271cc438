package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"garansi-console/internal/pagination"
	"garansi-console/internal/rbac"
	"garansi-console/internal/resources"
)

// collection is what every resource client offers.
type collection[T any, In any] interface {
	Resource() rbac.Resource
	List(ctx context.Context, req pagination.Request) (pagination.Envelope[T], error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id string, in In) (T, error)
	Delete(ctx context.Context, id string) error
}

// mountCollection registers the list/detail/mutation routes for one
// resource. Reads are guarded by the role table; writes additionally need
// write permission. filters names extra query parameters passed through to
// the API.
func mountCollection[T any, In any](r gin.IRouter, src rbac.SubjectSource, path string, col collection[T, In], filters ...string) *gin.RouterGroup {
	res := col.Resource()
	grp := r.Group(path, rbac.Guard(src, rbac.AllowedRoles(res, rbac.ActionRead)...))
	write := rbac.RequirePermission(src, res, rbac.ActionWrite)

	grp.GET("", func(c *gin.Context) {
		env, err := col.List(c.Request.Context(), pagination.FromQuery(c.Request.URL.Query(), filters...))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, env)
	})

	grp.GET("/:id", func(c *gin.Context) {
		item, err := col.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	grp.POST("", write, func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid json")
			return
		}
		item, err := col.Create(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	})

	grp.PUT("/:id", write, func(c *gin.Context) {
		var in In
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid json")
			return
		}
		item, err := col.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	grp.DELETE("/:id", write, func(c *gin.Context) {
		if err := col.Delete(c.Request.Context(), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	return grp
}

type lister[T any] interface {
	List(ctx context.Context, req pagination.Request) (pagination.Envelope[T], error)
}

// searchHandler serves type-ahead queries. With a LiveSearch, a burst of
// keystrokes collapses into one API call and older callers get 409.
func searchHandler[T any](ls *resources.LiveSearch[T], col lister[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := pagination.FromQuery(c.Request.URL.Query())
		if q := c.Query("q"); q != "" {
			req.Search = q
		}
		req = req.Normalize()

		var (
			env pagination.Envelope[T]
			err error
		)
		if ls != nil {
			env, err = ls.Search(c.Request.Context(), req)
		} else {
			env, err = col.List(c.Request.Context(), req)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}
