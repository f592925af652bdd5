// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	freetsfeature "github.com/freethub/freethub/internal/app/features/freets"
	groupsfeature "github.com/freethub/freethub/internal/app/features/groups"
	healthfeature "github.com/freethub/freethub/internal/app/features/health"
	messagesfeature "github.com/freethub/freethub/internal/app/features/messages"
	sessionsfeature "github.com/freethub/freethub/internal/app/features/sessions"
	usersfeature "github.com/freethub/freethub/internal/app/features/users"
	"github.com/freethub/freethub/internal/app/membership"
	freetstore "github.com/freethub/freethub/internal/app/store/freets"
	groupstore "github.com/freethub/freethub/internal/app/store/groups"
	messagestore "github.com/freethub/freethub/internal/app/store/messages"
	userstore "github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/vote"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. FreetHub builds the stores once, wires
// the vote applier and membership manager on top of them, applies session
// middleware, and mounts one feature router per API area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	freets := freetstore.New(db)
	groups := groupstore.New(db)
	messages := messagestore.New(db)

	applier := vote.NewApplier(deps.MongoClient, users, freets, logger)
	manager := membership.NewManager(deps.MongoClient, groups, users, messages, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		usersHandler := usersfeature.NewHandler(users, freets, groups, manager, sessionMgr, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

		sessionsHandler := sessionsfeature.NewHandler(users, sessionMgr, logger)
		api.Mount("/session", sessionsfeature.Routes(sessionsHandler))

		freetsHandler := freetsfeature.NewHandler(deps.MongoClient, users, freets, applier, logger)
		api.Mount("/freets", freetsfeature.Routes(freetsHandler, sessionMgr))

		groupsHandler := groupsfeature.NewHandler(groups, users, messages, manager, logger)
		api.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

		messagesHandler := messagesfeature.NewHandler(users, manager, logger)
		api.Mount("/messages", messagesfeature.Routes(messagesHandler, sessionMgr))
	})

	return r, nil
}
