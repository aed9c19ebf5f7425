package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusforge/scheduler/api/swagger"
	internalhandler "github.com/campusforge/scheduler/internal/handler"
	internalmiddleware "github.com/campusforge/scheduler/internal/middleware"
	"github.com/campusforge/scheduler/internal/repository"
	"github.com/campusforge/scheduler/internal/scheduling"
	"github.com/campusforge/scheduler/internal/service"
	"github.com/campusforge/scheduler/pkg/cache"
	"github.com/campusforge/scheduler/pkg/config"
	"github.com/campusforge/scheduler/pkg/database"
	"github.com/campusforge/scheduler/pkg/logger"
	corsmiddleware "github.com/campusforge/scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/campusforge/scheduler/pkg/middleware/requestid"
	"github.com/campusforge/scheduler/pkg/storage"
)

// @title CampusForge Scheduler API
// @version 0.1.0
// @description Constraint-aware weekly academic timetable generator
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	offeringRepo := repository.NewCourseOfferingRepository(db)
	semesterScheduleRepo := repository.NewSemesterScheduleRepository(db)
	semesterSlotRepo := repository.NewSemesterScheduleSlotRepository(db)

	termSvc := service.NewTermService(termRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)

	termHandler := internalhandler.NewTermHandler(termSvc)
	classHandler := internalhandler.NewClassHandler(classSvc)
	subjectHandler := internalhandler.NewSubjectHandler(subjectSvc)
	teacherHandler := internalhandler.NewTeacherHandler(teacherSvc)

	var schedulerHandler *internalhandler.ScheduleGeneratorHandler
	if cfg.Scheduler.Enabled {
		schedulerSvc := service.NewScheduleGeneratorService(
			termRepo,
			classRepo,
			offeringRepo,
			subjectRepo,
			roomRepo,
			semesterScheduleRepo,
			semesterSlotRepo,
			db,
			nil,
			logr,
			toGeneratorConfig(cfg.Scheduler),
		)
		schedulerHandler = internalhandler.NewScheduleGeneratorHandler(schedulerSvc)
	}

	var redisClient interface{ Close() error }
	var exportCacheRepo service.ExportCache
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("export cache disabled", "error", err)
	} else {
		redisClient = client
		exportCacheRepo = repository.NewCacheRepository(client, logr)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	exportStore, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise export storage", "error", err)
	}
	var exportSigner *storage.SignedURLSigner
	if cfg.Storage.SigningSecret != "" {
		exportSigner = storage.NewSignedURLSigner(cfg.Storage.SigningSecret, cfg.Storage.SignedURLTTL)
	} else {
		logr.Sugar().Warnw("signed export downloads disabled: STORAGE_SIGNING_SECRET is empty")
	}

	exportSvc := service.NewExportService(semesterScheduleRepo, semesterSlotRepo, exportCacheRepo, exportStore, exportSigner, service.ExportServiceConfig{}, logr)
	exportHandler := internalhandler.NewExportHandler(exportSvc)

	termsGroup := api.Group("/terms")
	termsGroup.GET("", termHandler.List)
	termsGroup.GET("/active", termHandler.GetActive)
	termsGroup.POST("", termHandler.Create)
	termsGroup.PUT("/:id", termHandler.Update)
	termsGroup.POST("/active", termHandler.SetActive)
	termsGroup.DELETE("/:id", termHandler.Delete)

	classesGroup := api.Group("/classes")
	classesGroup.GET("", classHandler.List)
	classesGroup.GET("/:id", classHandler.Get)
	classesGroup.POST("", classHandler.Create)
	classesGroup.PUT("/:id", classHandler.Update)
	classesGroup.DELETE("/:id", classHandler.Delete)

	subjectsGroup := api.Group("/subjects")
	subjectsGroup.GET("", subjectHandler.List)
	subjectsGroup.GET("/:id", subjectHandler.Get)
	subjectsGroup.POST("", subjectHandler.Create)
	subjectsGroup.PUT("/:id", subjectHandler.Update)
	subjectsGroup.DELETE("/:id", subjectHandler.Delete)

	teachersGroup := api.Group("/teachers")
	teachersGroup.GET("", teacherHandler.List)
	teachersGroup.GET("/:id", teacherHandler.Get)
	teachersGroup.POST("", teacherHandler.Create)
	teachersGroup.PUT("/:id", teacherHandler.Update)
	teachersGroup.DELETE("/:id", teacherHandler.Delete)

	if schedulerHandler != nil {
		api.POST("/schedules/generate", schedulerHandler.Generate)
		api.POST("/schedules/commit", schedulerHandler.Commit)
		api.GET("/semester-schedule", schedulerHandler.List)
		api.GET("/semester-schedule/:id/slots", schedulerHandler.Slots)
		api.DELETE("/semester-schedule/:id", schedulerHandler.Delete)
	}

	api.GET("/semester-schedule/:id/view", exportHandler.View)
	api.GET("/semester-schedule/:id/export", exportHandler.Download)
	api.POST("/semester-schedule/:id/export/link", exportHandler.Sign)
	api.GET("/exports/download", exportHandler.FetchByToken)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// toGeneratorConfig converts the environment-facing scheduler config (plain
// strings and minute offsets) into the scheduling package's closed types.
// Break windows are institute-wide or per-department recurring rules in
// config, but the Calendar matches a break against an Interval's exact Day,
// so each configured window is expanded into one scheduling.BreakWindow per
// working day here.
func toGeneratorConfig(raw config.SchedulerConfig) service.ScheduleGeneratorConfig {
	days := make([]scheduling.Day, 0, len(raw.Days))
	for _, name := range raw.Days {
		if day, ok := dayFromName(name); ok {
			days = append(days, day)
		}
	}

	var breaks []scheduling.BreakWindow
	for _, b := range raw.Breaks {
		kind, ok := breakKindFromName(b.Kind)
		if !ok {
			continue
		}
		for _, day := range days {
			breaks = append(breaks, scheduling.BreakWindow{
				Kind: kind,
				Interval: scheduling.Interval{
					Day:      day,
					StartMin: b.StartMin,
					EndMin:   b.EndMin,
				},
				Dept:  b.Dept,
				Label: b.Label,
			})
		}
	}

	return service.ScheduleGeneratorConfig{
		ProposalTTL:            raw.ProposalTTL,
		Days:                   days,
		SlotGranularityMinutes: raw.SlotGranularityMinutes,
		WorkStartMin:           raw.WorkingHoursStart,
		WorkEndMin:             raw.WorkingHoursEnd,
		Breaks:                 breaks,
		MaxAttempts:            raw.MaxAttempts,
		Seed:                   raw.Seed,
	}
}

func dayFromName(name string) (scheduling.Day, bool) {
	switch name {
	case "monday", "Monday", "MON", "Mon":
		return scheduling.Monday, true
	case "tuesday", "Tuesday", "TUE", "Tue":
		return scheduling.Tuesday, true
	case "wednesday", "Wednesday", "WED", "Wed":
		return scheduling.Wednesday, true
	case "thursday", "Thursday", "THU", "Thu":
		return scheduling.Thursday, true
	case "friday", "Friday", "FRI", "Fri":
		return scheduling.Friday, true
	default:
		return 0, false
	}
}

func breakKindFromName(name string) (scheduling.BreakKind, bool) {
	switch name {
	case "morning":
		return scheduling.BreakMorning, true
	case "lunch":
		return scheduling.BreakLunch, true
	case "snack":
		return scheduling.BreakSnack, true
	default:
		return 0, false
	}
}
