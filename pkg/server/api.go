package server

import (
	"net/http"
	"strconv"

	"github.com/gabstv/echobox/api"
	"github.com/gabstv/echobox/internal/pkg/logger"
	"github.com/gabstv/echobox/pkg/metrics"
	"github.com/gabstv/echobox/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newRouter(cfg Config, ack string, m *metrics.Metrics) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.WithComponent("api")

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Debug {
		r.Use(gin.Logger())
	}
	r.Use(func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	})

	r.GET("/health-check", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "echobox api")
	})

	r.GET("/get", func(c *gin.Context) {
		c.JSON(http.StatusOK, "Hello World")
	})

	// accepts json or form bodies; both keys must be present
	r.POST("/post", func(c *gin.Context) {
		req := postRequest{}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{
				Detail: validationDetail(err),
			})
			return
		}
		c.JSON(http.StatusOK, req.item())
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})))

	if cfg.Websockets.Enabled {
		r.GET("/ws", func(c *gin.Context) {
			err := util.ServeLines(c.Writer, c.Request, cfg.Websockets, func(msg string) string {
				log.Debug().Str("line", msg).Msg("websocket line received")
				return ack
			})
			if err != nil {
				log.Warn().Err(err).Msg("websocket closed")
			}
		})
	}

	return r
}
