package main

import (
	"fmt"
	"os"

	"github.com/nurpe/autoservice-offers/internal/auth"
	"github.com/nurpe/autoservice-offers/internal/config"
	"github.com/nurpe/autoservice-offers/internal/db"
	"github.com/nurpe/autoservice-offers/internal/excel"
	httphandler "github.com/nurpe/autoservice-offers/internal/http"
	"github.com/nurpe/autoservice-offers/internal/http/middleware"
	"github.com/nurpe/autoservice-offers/internal/logger"
	"github.com/nurpe/autoservice-offers/internal/pdf"
	"github.com/nurpe/autoservice-offers/internal/repository"
	"github.com/nurpe/autoservice-offers/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	offerRepo := repository.NewOfferRepository(database)
	numbers := repository.NewSequenceNumberGenerator(database)

	var fonts pdf.FontSet
	if cfg.PDF.FontFamily != "" {
		fonts, err = pdf.LoadFontFiles(cfg.PDF.FontFamily, cfg.PDF.FontRegularPath, cfg.PDF.FontBoldPath)
		if err != nil {
			log.Warn().Err(err).Str("font", pdf.DefaultFontFamily).Msg("falling back to embedded pdf font")
			fonts = pdf.FontSet{}
		}
	}
	pdfGenerator := pdf.NewGenerator(fonts, cfg.Offers.Location, log)
	workbook := excel.NewGenerator(cfg.Offers.Location)

	offerService := service.NewOfferService(offerRepo, numbers, pdfGenerator, workbook, cfg, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(offerService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.CORSAllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Str("pdf_font", pdfGenerator.DefaultFamily()).Msg("starting offers service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
