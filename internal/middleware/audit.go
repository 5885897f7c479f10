package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/services"
)

const auditBodyLimit = 2000

var sensitiveKeys = map[string]bool{
	"password":         true,
	"old_password":     true,
	"new_password":     true,
	"confirm_password": true,
	"refresh_token":    true,
	"access_token":     true,
	"token":            true,
	"secret":           true,
}

// AuditLog records write requests (POST/PUT/PATCH/DELETE) in system_logs.
// Failed requests are logged at warning level.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil && c.ContentType() == gin.MIMEJSON {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			body = maskBody(raw)
		}

		c.Next()

		userID := GetUserID(c)
		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		status := c.Writer.Status()
		module, action := routeAction(c.FullPath(), method)
		message := fmt.Sprintf("%s %s %s -> %d", auditActor(c), method, c.Request.URL.Path, status)
		extra := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
		}
		if body != "" {
			extra["body"] = body
		}

		if status >= http.StatusBadRequest {
			services.LogWarning(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
			return
		}
		services.LogInfo(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
	}
}

func auditActor(c *gin.Context) string {
	if name := GetUsername(c); name != "" {
		return name
	}
	return "anonymous"
}

// routeAction derives module and action from the route pattern, e.g.
// "/api/trips/:id/members" + POST -> ("trips", "members.create")
func routeAction(fullPath, method string) (string, string) {
	path := strings.Trim(strings.TrimPrefix(fullPath, "/api"), "/")
	if path == "" {
		return "unknown", strings.ToLower(method)
	}

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") {
			segments = append(segments, seg)
		}
	}
	module := segments[0]

	verb := map[string]string{
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}[method]
	if verb == "" {
		verb = strings.ToLower(method)
	}
	if len(segments) > 1 {
		return module, strings.Join(segments[1:], ".") + "." + verb
	}
	return module, verb
}

// maskBody hides credential fields of a JSON object body and truncates it.
// Non-object bodies are dropped.
func maskBody(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	for key := range payload {
		if sensitiveKeys[strings.ToLower(key)] {
			payload[key] = "***"
		}
	}
	masked, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	out := string(masked)
	if len(out) > auditBodyLimit {
		out = out[:auditBodyLimit] + "...[truncated]"
	}
	return out
}
