package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"

	"stockledger/internal/client"
	"stockledger/internal/database"
	"stockledger/internal/feed"
	"stockledger/internal/ledger"
	"stockledger/internal/ratelimit"
)

type Server struct {
	DB            database.Database
	Ledger        *ledger.Ledger
	Hub           *feed.Hub
	Client        client.Client
	Limiter       ratelimit.Limiter
	Logger        logger
	AuthSecretKey jwk.Key
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	Tracef(format string, v ...any)
}
