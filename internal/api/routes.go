package api

import (
	"net/http"

	"github.com/reactit/kycdesk/pkg/middleware"
	"github.com/reactit/kycdesk/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	cfg := runtime.Config
	maxUpload := cfg.API.MaxUploadSizeBytes()

	files := newFilesHandler(
		runtime.Storage,
		runtime.Logger,
		maxUpload,
		cfg.Storage.URLTTLDuration(),
		runtime.FilesPath,
	)

	admin := []func(http.Handler) http.Handler{
		runtime.Auth.RequireRole(runtime.Auth.AdminRole()),
	}

	routes.Register(mux, routes.Group{
		// metrics sits inside the mux so the route label is the matched pattern
		Middleware: []func(http.Handler) http.Handler{
			middleware.Metrics(middleware.NewHTTPMetrics(runtime.Metrics)),
			runtime.Auth.Authenticate(),
		},
		Children: []routes.Group{
			domain.Verification.Handler().Routes(),
			domain.Samples.Handler().Routes(),
			domain.FaceVerify.Handler(maxUpload).Routes(),
			domain.Analysis.Handler(maxUpload).Routes(),
			domain.Customers.Handler().Routes(),
			domain.Documents.Handler(maxUpload).Routes(),
			domain.FaceMatches.Handler(maxUpload).Routes(),
			domain.Partners.Handler().Routes(),
			domain.Regulations.Handler().Routes(),
			domain.News.Handler().Routes(),
			files.routes(),
			{
				Middleware: admin,
				Children: []routes.Group{
					domain.Dashboard.Handler().Routes(),
					domain.Users.Handler().Routes(),
				},
			},
		},
	})
}
