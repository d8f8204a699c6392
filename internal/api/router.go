// Package api exposes the inventory over HTTP as a JSON API.
package api

import (
	"net/http"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/sample"
	"github.com/erazemk/inventar/internal/session"
	"github.com/erazemk/inventar/internal/store"
)

// Deps are the collaborators of the API handlers.
type Deps struct {
	Store      *store.Store
	Session    *session.Session
	Tokens     *auth.Tokens
	Thumbnails *imaging.Thumbnails
	Metrics    *metrics.Metrics // optional
	Seed       *sample.Seed

	Currency           string
	Language           string
	LoginRatePerMinute int
}

// catalogPaths maps each catalog kind to its collection path segment.
var catalogPaths = map[model.CatalogKind]string{
	model.KindRoom:     "rooms",
	model.KindOwner:    "owners",
	model.KindBrand:    "brands",
	model.KindCategory: "categories",
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Store: d.Store, Tokens: d.Tokens, limiter: newLoginLimiter(d.LoginRatePerMinute)}
	browseHandler := &BrowseHandler{Session: d.Session, Currency: d.Currency, Language: d.Language}
	itemsHandler := &ItemsHandler{Store: d.Store, Session: d.Session, Thumbnails: d.Thumbnails}
	selectionHandler := &SelectionHandler{Session: d.Session}
	dataHandler := &DataHandler{Store: d.Store, Session: d.Session, Seed: d.Seed}

	authMW := AuthMiddleware(d.Tokens, d.Store)
	protect := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("POST /api/auth/logout", protect(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", protect(authHandler.ChangePassword))

	// Browsing.
	mux.Handle("GET /api/projection", protect(browseHandler.Projection))
	mux.Handle("PUT /api/filter", protect(browseHandler.SetFilter))
	mux.Handle("DELETE /api/filter", protect(browseHandler.ResetFilter))
	mux.Handle("POST /api/refresh", protect(browseHandler.Refresh))
	mux.Handle("GET /api/scopes", protect(browseHandler.Scopes))
	mux.Handle("GET /api/settings", protect(browseHandler.Settings))

	// Items.
	mux.Handle("POST /api/items", protect(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}", protect(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", protect(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", protect(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/duplicate", protect(itemsHandler.Duplicate))
	mux.Handle("POST /api/items/{id}/attachments", protect(itemsHandler.Attach))
	mux.Handle("GET /api/items/{id}/image", protect(itemsHandler.GetImage))
	mux.Handle("GET /api/items/{id}/thumbnail", protect(itemsHandler.GetThumbnail))
	mux.Handle("GET /api/items/{id}/invoice", protect(itemsHandler.GetInvoice))

	// Batch delete.
	mux.Handle("GET /api/selection", protect(selectionHandler.Get))
	mux.Handle("POST /api/selection", protect(selectionHandler.Begin))
	mux.Handle("DELETE /api/selection", protect(selectionHandler.Cancel))
	mux.Handle("POST /api/selection/confirm", protect(selectionHandler.Confirm))
	mux.Handle("POST /api/selection/{id}", protect(selectionHandler.Toggle))

	// Catalogs.
	for _, kind := range model.CatalogKinds {
		h := &CatalogHandler{Store: d.Store, Kind: kind}
		base := "/api/" + catalogPaths[kind]
		mux.Handle("GET "+base, protect(h.List))
		mux.Handle("POST "+base, protect(h.Create))
		mux.Handle("PUT "+base+"/{id}", protect(h.Update))
		mux.Handle("DELETE "+base+"/{id}", protect(h.Delete))
		if kind == model.KindRoom {
			mux.Handle("PUT "+base+"/{id}/icon", protect(h.SetIcon))
			mux.Handle("GET "+base+"/{id}/icon", protect(h.GetIcon))
		}
	}

	// Data.
	mux.Handle("POST /api/sample-data", protect(dataHandler.GenerateSample))
	mux.Handle("GET /api/export.csv", protect(dataHandler.ExportCSV))
	mux.Handle("GET /api/export.xlsx", protect(dataHandler.ExportXLSX))

	var handler http.Handler = mux
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
		handler = d.Metrics.Middleware(handler)
	}
	return LoggingMiddleware(handler)
}
