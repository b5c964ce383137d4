package main

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/deepdesert/go/internal/auth"
	"github.com/mcdev12/deepdesert/go/internal/mapservice"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: config.Server.CORSOrigins,
		AllowedHeaders: []string{"*"},
	})

	registerServices(mux, services)
	services.Gateway.RegisterRoutes(mux)
	setupHealthCheck(mux, services)

	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	interceptor := auth.NewInterceptor(services.Auth, mapservice.IsManageProcedure)
	path, handler := mapservice.NewHandler(services.Map, connect.WithInterceptors(interceptor))
	mux.Handle(path, handler)
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.Handle("/health", services.Health)
	mux.HandleFunc("/metrics", services.Health.MetricsHandler())
}
