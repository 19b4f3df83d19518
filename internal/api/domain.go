package api

import (
	"fmt"

	"github.com/reactit/kycdesk/internal/analysis"
	"github.com/reactit/kycdesk/internal/customers"
	"github.com/reactit/kycdesk/internal/dashboard"
	"github.com/reactit/kycdesk/internal/documents"
	"github.com/reactit/kycdesk/internal/facematches"
	"github.com/reactit/kycdesk/internal/faceverify"
	"github.com/reactit/kycdesk/internal/news"
	"github.com/reactit/kycdesk/internal/ocr"
	"github.com/reactit/kycdesk/internal/partners"
	"github.com/reactit/kycdesk/internal/regulations"
	"github.com/reactit/kycdesk/internal/samples"
	"github.com/reactit/kycdesk/internal/users"
	"github.com/reactit/kycdesk/internal/verification"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	OCR          ocr.System
	Analysis     analysis.System
	Verification verification.System
	FaceVerify   faceverify.System

	Customers   customers.System
	Documents   documents.System
	FaceMatches facematches.System
	Partners    partners.System
	Regulations regulations.System
	Users       users.System
	Dashboard   dashboard.System
	News        news.System
	Samples     samples.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	cfg := runtime.Config
	db := runtime.Database.Connection()
	logger := runtime.Logger

	ocrSystem := ocr.New(&cfg.OCR, logger)
	analysisSystem := analysis.New(&cfg.Analyzer, logger)
	verificationSystem := verification.New(
		ocrSystem,
		analysisSystem,
		&cfg.Verification,
		runtime.Metrics,
		logger,
	)
	faceVerifySystem := faceverify.New(&cfg.FaceMatch, runtime.Metrics, logger)

	docsSystem := documents.New(
		db,
		runtime.Storage,
		analysisSystem,
		logger,
		runtime.Pagination,
		runtime.FilesPath,
		cfg.API.MaxUploadSizeBytes(),
	)

	customersSystem := customers.New(
		db,
		verificationSystem,
		docsSystem,
		logger,
		runtime.Pagination,
		verification.MaxRequestBytes(cfg.Verification.MaxImageSizeBytes()),
	)

	faceMatchesSystem := facematches.New(
		db,
		runtime.Storage,
		faceVerifySystem,
		logger,
		runtime.Pagination,
		runtime.FilesPath,
	)

	regulationsSystem := regulations.New(
		db,
		regulations.NewNotifier(runtime.Mail, cfg.Mail.Concurrency, logger),
		logger,
		runtime.Pagination,
	)

	usersSystem := users.New(&cfg.Identity, logger, runtime.Pagination)

	return &Domain{
		OCR:          ocrSystem,
		Analysis:     analysisSystem,
		Verification: verificationSystem,
		FaceVerify:   faceVerifySystem,
		Customers:    customersSystem,
		Documents:    docsSystem,
		FaceMatches:  faceMatchesSystem,
		Partners:     partners.New(db, logger, runtime.Pagination),
		Regulations:  regulationsSystem,
		Users:        usersSystem,
		Dashboard: dashboard.New(
			dashboard.NewStore(db),
			faceMatchesSystem,
			regulationsSystem,
			usersSystem,
			logger,
		),
		News:    news.New(&cfg.News, runtime.Cache, nil, logger),
		Samples: samples.New(0, logger),
	}
}

// Start registers readiness probes for the external tools.
func (d *Domain) Start(runtime *Runtime) error {
	if err := d.OCR.Start(runtime.Lifecycle); err != nil {
		return fmt.Errorf("ocr start failed: %w", err)
	}
	if err := d.Analysis.Start(runtime.Lifecycle); err != nil {
		return fmt.Errorf("analysis start failed: %w", err)
	}
	return nil
}
