package access

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UserContextKey ключ, под которым аутентификация кладёт *User в gin.Context.
const UserContextKey = "user"

type ginRequest struct {
	c       *gin.Context
	userKey string
}

func (r ginRequest) Principal() *User {
	v, ok := r.c.Get(r.userKey)
	if !ok {
		return nil
	}
	switch u := v.(type) {
	case *User:
		return u
	case User:
		return &u
	}
	return nil
}

func (r ginRequest) Header(name string) string {
	return r.c.GetHeader(name)
}

func (r ginRequest) PeerAddress() string {
	return r.c.Request.RemoteAddr
}

// Middleware применяет Gate к каждому запросу и прерывает его при отказе.
func Middleware(gate *Gate, userKey string) gin.HandlerFunc {
	if userKey == "" {
		userKey = UserContextKey
	}

	return func(c *gin.Context) {
		req := ginRequest{c: c, userKey: userKey}

		err := gate.Enforce(req, gate.now())
		if err == nil {
			c.Next()
			return
		}

		var denied *DeniedError
		if errors.As(err, &denied) {
			log.WithFields(log.Fields{
				"ip":   ClientIP(req),
				"path": c.Request.URL.Path,
			}).Info(denied.Message)
			c.AbortWithStatusJSON(denied.Status, gin.H{"message": denied.Message})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
