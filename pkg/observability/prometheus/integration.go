package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Handler returns a fasthttp handler exposing the default registry
func Handler() fasthttp.RequestHandler {
	return HandlerFor(DefaultRegistry)
}

// HandlerFor returns a fasthttp handler exposing the given gatherer
func HandlerFor(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// NewServer builds a fasthttp server answering on path with the metrics of
// gatherer; every other path gets 404
func NewServer(path string, gatherer prometheus.Gatherer) *fasthttp.Server {
	if path == "" {
		path = "/metrics"
	}
	metricsHandler := HandlerFor(gatherer)
	return &fasthttp.Server{
		Name: "streamactor",
		Handler: func(ctx *fasthttp.RequestCtx) {
			if string(ctx.Path()) != path {
				ctx.SetStatusCode(fasthttp.StatusNotFound)
				return
			}
			metricsHandler(ctx)
		},
	}
}
