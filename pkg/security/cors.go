package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 前端通过 supabase-js 风格的客户端调用，需要放行 apikey 与 x-client-info
const (
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type, Accept-Encoding, X-Requested-With, Cache-Control"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsMaxAge       = "600"
)

// OriginPolicy 跨域来源白名单；为空或包含 "*" 时对所有来源开放，但不带 Credentials
type OriginPolicy struct {
	any     bool
	origins map[string]struct{}
}

func NewOriginPolicy(allowed []string) *OriginPolicy {
	p := &OriginPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	if len(p.origins) == 0 {
		p.any = true
	}
	return p
}

// Allows 白名单模式下 origin 是否允许携带凭证访问
func (p *OriginPolicy) Allows(origin string) bool {
	_, ok := p.origins[origin]
	return ok
}

// CORS 预检请求直接返回 204
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := NewOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")

		switch {
		case policy.any:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && policy.Allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
