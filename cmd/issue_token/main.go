package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/app"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

// issue_token mints a bearer token for an existing user, typically the
// service account a worker process runs as.
func main() {
	var userRaw, workerRaw string
	flag.StringVar(&userRaw, "user", "", "user id to issue the token for")
	flag.StringVar(&workerRaw, "worker", "", "worker id; the token is issued for the worker's user")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	userID, err := resolveUser(ctx, application, strings.TrimSpace(userRaw), strings.TrimSpace(workerRaw))
	if err != nil {
		fmt.Println(err)
		application.Close()
		os.Exit(1)
	}

	token, err := application.Services.Auth.IssueToken(ctx, userID)
	if err != nil {
		fmt.Printf("issue token: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "token for user %s valid for %s\n", userID, application.Services.Auth.GetAccessTTL())
	fmt.Println(token)
}

func resolveUser(ctx context.Context, a *app.App, userRaw, workerRaw string) (uuid.UUID, error) {
	switch {
	case userRaw != "" && workerRaw != "":
		return uuid.Nil, fmt.Errorf("pass either -user or -worker, not both")
	case userRaw != "":
		id, err := uuid.Parse(userRaw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid -user: %v", err)
		}
		return id, nil
	case workerRaw != "":
		id, err := uuid.Parse(workerRaw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid -worker: %v", err)
		}
		w, err := a.Repos.Worker.GetByID(dbctx.Context{Ctx: ctx}, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load worker: %v", err)
		}
		if w == nil {
			return uuid.Nil, fmt.Errorf("worker %s not found", id)
		}
		return w.UserID, nil
	default:
		return uuid.Nil, fmt.Errorf("-user or -worker is required")
	}
}
