// Command checkin performs a single interactive check-in against the
// portal without touching the database or the queue. Useful for
// verifying credentials and portal reachability.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/arklim/campus-clock/internal/infra/config"
	"github.com/arklim/campus-clock/internal/infra/logger"
	"github.com/arklim/campus-clock/internal/portal"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("username", "", "portal username")
	password := flag.String("password", "", "portal password")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Fatalf("failed to load timezone: %v", err)
	}

	client, err := portal.NewClient(portal.Endpoints{
		Login:        cfg.Portal.LoginURL,
		CaptchaProbe: cfg.Portal.CaptchaProbeURL,
		AuthProbe:    cfg.Portal.AuthProbeURL,
		Logout:       cfg.Portal.LogoutURL,
		BusinessNow:  cfg.Portal.BusinessNowURL,
		FormInstance: cfg.Portal.FormInstanceURL,
		FormSubmit:   cfg.Portal.FormSubmitURL,
		LoginOrigin:  cfg.Portal.LoginOrigin,
		AppOrigin:    cfg.Portal.AppOrigin,
		AppReferer:   cfg.Portal.AppReferer,
	}, portal.Credentials{
		Username: *username,
		Password: *password,
	},
		portal.WithLogger(zlog),
		portal.WithLocation(location),
		portal.WithUserAgent(cfg.Portal.UserAgent),
		portal.WithTimeout(cfg.Portal.RequestTimeout),
	)
	if err != nil {
		log.Fatalf("failed to init portal client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := client.Login(ctx); err != nil {
		if errors.Is(err, portal.ErrCaptchaRequired) {
			log.Fatal("portal requires a captcha; log in through a browser first")
		}
		log.Fatalf("login failed: %v", err)
	}

	err = client.Clock(ctx)
	switch {
	case err == nil:
		fmt.Println("check-in submitted and verified")
	case portal.IsBenignOutcome(err):
		fmt.Printf("nothing to do: %v\n", err)
	default:
		log.Fatalf("check-in failed: %v", err)
	}
}
