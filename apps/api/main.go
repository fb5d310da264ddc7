package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/nwschool/clubreg/apps/api/echo"
	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
	emailsvc "github.com/nwschool/clubreg/services/email"
	logsvc "github.com/nwschool/clubreg/services/logger"
	sheetsvc "github.com/nwschool/clubreg/services/sheets"
	syncsvc "github.com/nwschool/clubreg/services/sync"
	"github.com/nwschool/clubreg/storage/cache"
	"github.com/nwschool/clubreg/storage/database"
	inmemdb "github.com/nwschool/clubreg/storage/inmem"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up the sync tiers
	var archive syncsvc.Archive
	if conf.Database.URL != "" {
		arch, err := database.Open(conf.Database.URL, conf.Database.Retention)
		if err != nil {
			// the archive is an optional mirror; a dead database must not
			// keep registrations from opening
			logger.Error(fmt.Sprintf("opening snapshot archive: %v", err), err)
		} else {
			archive = arch
			defer func() { _ = arch.Close() }()
		}
	}

	store := inmemdb.NewStore()
	engine := syncsvc.NewEngine(
		store.Snapshot,
		sheetsvc.NewClient(conf),
		cache.NewFile(conf.Cache.File),
		archive,
		logger,
		conf.Sync.Debounce,
	)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	regSvc := registry.NewService(store, engine, mailSvc, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	registry.InitValidators(validate, translator)

	// load-or-default startup state
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), conf.Sheets.Timeout)
	snap, source := engine.Load(loadCtx)
	cancelLoad()
	store.Reset(snap)
	logger.Info(fmt.Sprintf("Registry loaded from %s: %d teachers, %d students, %d clubs",
		source, len(snap.Teachers), len(snap.Students), len(snap.Clubs)))

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			RegSvc:     regSvc,
			SyncEngine: engine,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// push whatever the session holds before going down
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		if err := engine.Flush(flushCtx); err != nil {
			logger.Error(fmt.Sprintf("final sync failed: %v", err), err)
		}
		cancelFlush()
		engine.Stop()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
