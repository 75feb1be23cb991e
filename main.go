package main

import (
	"log"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/slotwise/booking-engine/config"
	"github.com/slotwise/booking-engine/internal/consumer"
	"github.com/slotwise/booking-engine/internal/handler"
	"github.com/slotwise/booking-engine/internal/middleware"
	"github.com/slotwise/booking-engine/internal/notification"
	"github.com/slotwise/booking-engine/internal/repository"
	"github.com/slotwise/booking-engine/internal/service"
	"github.com/slotwise/booking-engine/pkg/backoff"
	"github.com/slotwise/booking-engine/pkg/database"
	"github.com/slotwise/booking-engine/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Repositories
	hostRepo := repository.NewHostRepository(db)
	meetingTypeRepo := repository.NewMeetingTypeRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	// Services
	dispatcher := notification.NewAMQPDispatcher(publisher)
	availabilitySvc := service.NewAvailabilityService(hostRepo, meetingTypeRepo, availabilityRepo, bookingRepo, nil)
	reminderSvc := service.NewReminderService(reminderRepo, bookingRepo, publisher, dispatcher, nil)
	bookingSvc := service.NewBookingService(bookingRepo, meetingTypeRepo, hostRepo, availabilitySvc, reminderSvc, dispatcher, nil)
	meetingTypeSvc := service.NewMeetingTypeService(hostRepo, meetingTypeRepo)
	verificationSvc := service.NewVerificationService(hostRepo, service.DNSChecker{}, publisher, backoff.Default())

	// Delayed-queue consumer: fires due reminder/verification jobs
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ consumer: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewJobConsumer(reminderSvc, verificationSvc).Start(msgs)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "booking-engine"})
	})

	handler.NewBookingHandler(bookingSvc, availabilitySvc).RegisterRoutes(e)
	handler.NewHostHandler(availabilitySvc, meetingTypeSvc, bookingSvc, verificationSvc).RegisterRoutes(e)
	handler.NewJobHandler(reminderSvc, verificationSvc).RegisterRoutes(e)

	log.Printf("Booking Engine starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
