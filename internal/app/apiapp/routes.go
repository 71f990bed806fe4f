package apiapp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/config"
	authsvc "github.com/chloe472/Reely/internal/services/auth"
	foldersvc "github.com/chloe472/Reely/internal/services/folders"
	uploadsvc "github.com/chloe472/Reely/internal/services/uploads"
	"github.com/chloe472/Reely/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	UploadsService *uploadsvc.Service
	FoldersService *foldersvc.Service
	Postgres       *pgxpool.Pool
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Postgres)
	uploadHandler := handlers.NewUploadHandler(deps.UploadsService, deps.Config.Media.MaxUploadSize)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.UploadsService)

	fileURL := func(filename string) string { return filename }
	if deps.UploadsService != nil {
		fileURL = deps.UploadsService.FileURL
	}
	folderHandler := handlers.NewFolderHandler(deps.FoldersService, fileURL)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/health", healthHandler.Handle)
	r.Get("/leaderboard", leaderboardHandler.Handle)

	r.With(authMW).Post("/upload", uploadHandler.Upload)
	r.With(authMW).Get("/upload/{id}", uploadHandler.Get)
	r.With(authMW).Delete("/upload/{id}", uploadHandler.Delete)
	r.With(authMW).Patch("/upload/{id}/guess", uploadHandler.Guess)
	r.With(authMW).Get("/history", uploadHandler.History)

	r.Route("/folders", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", folderHandler.List)
		r.Post("/", folderHandler.Create)
		r.Get("/{id}", folderHandler.Get)
		r.Put("/{id}", folderHandler.Update)
		r.Delete("/{id}", folderHandler.Delete)
		r.Post("/{id}/uploads/{uploadId}", folderHandler.AddUpload)
		r.Delete("/{id}/uploads/{uploadId}", folderHandler.RemoveUpload)
	})

	registerFileServer(r, deps.Config.Media.PublicPath, http.Dir(deps.Config.Media.Dir))
}

// registerFileServer serves stored media under the public path so upload
// URLs returned by the API resolve directly.
func registerFileServer(r chi.Router, path string, root http.FileSystem) {
	if path == "" || strings.ContainsAny(path, "{}*") {
		return
	}
	path = "/" + strings.Trim(path, "/")

	fs := http.StripPrefix(path, http.FileServer(root))
	r.Get(path+"/*", func(w http.ResponseWriter, r *http.Request) {
		fs.ServeHTTP(w, r)
	})
}
