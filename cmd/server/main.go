package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/lunavps/auth-service/auth"
	"github.com/lunavps/auth-service/internal/config"
	"github.com/lunavps/auth-service/server"
	"github.com/lunavps/auth-service/sessions"
	sessionsqlite "github.com/lunavps/auth-service/sessions/sqlite"
	"github.com/lunavps/auth-service/token"
	"github.com/lunavps/auth-service/users"
	fakeuserrepo "github.com/lunavps/auth-service/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			stdlog.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	stdlog.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			stdlog.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	store, err := sessionsqlite.Open(c.GetDBPath())
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() { _ = store.Close() }()

	authService, err := buildAuthService(c, store)
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	srv, err := server.New(c, authService)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredSessions(sweepCtx, store, c.GetSessionSweepInterval())

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildAuthService(c config.Config, store sessions.Repo) (*auth.Service, error) {
	secret := c.GetJWTSecret()
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	issuer := token.New(
		token.NewHMACSigner(secret),
		token.WithIssuer(c.GetJWTIssuer()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)

	// The user store is owned by the platform service; the fake repo stands in
	// until it is wired up, seeded with an admin account from the environment.
	userRepo := fakeuserrepo.NewFakeUserRepo()
	if err := seedAdminUser(userRepo); err != nil {
		return nil, err
	}

	repos := auth.Repos{
		Users:    userRepo,
		Sessions: store,
	}

	return auth.NewService(repos, auth.NewCredentialsAuthenticator(userRepo), issuer)
}

func seedAdminUser(userRepo users.UserRepo) error {
	email := config.GetEnv("ADMIN_EMAIL", "")
	password := config.GetEnv("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return nil
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	return userRepo.Upsert(&users.User{
		Email:        email,
		PasswordHash: hash,
		Role:         users.RoleAdmin,
		Active:       true,
		CreatedAt:    time.Now(),
	})
}

func sweepExpiredSessions(ctx context.Context, store sessions.Repo, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if deleted > 0 {
				log.Info().Int("deleted", deleted).Msg("swept expired sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	stdlog.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
