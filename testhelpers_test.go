//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AgendaLivre/service-scheduling/internal/adapter"
	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/internal/cache"
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
	schedulingEvents "github.com/AgendaLivre/service-scheduling/internal/events"
	"github.com/AgendaLivre/service-scheduling/internal/repository"
	"github.com/AgendaLivre/service-scheduling/internal/saga"
	"github.com/AgendaLivre/service-scheduling/pkg/kafka"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// schedulingStack holds wired-up scheduling service components.
type schedulingStack struct {
	Booking         *application.BookingService
	Slots           *application.SlotService
	Cache           *cache.StoreCache
	Consumer        *schedulingEvents.StoreEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_scheduling",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_scheduling sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Auto-migrate the models, then add the overlap exclusion constraint
	// that GORM tags cannot express.
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error)
	require.NoError(t, db.AutoMigrate(
		&repository.StoreModel{},
		&repository.ServiceModel{},
		&repository.AppointmentModel{},
		&repository.CouponModel{},
		&repository.CouponUsageModel{},
	))
	require.NoError(t, db.Exec(`
		ALTER TABLE appointments ADD CONSTRAINT appointments_no_overlap
		EXCLUDE USING gist (
			store_id WITH =,
			date WITH =,
			int4range(start_minute, end_minute) WITH &&
		) WHERE (status IN ('pending', 'confirmed'))
	`).Error)

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, schedulingEvents.TopicSchedulingEvents, schedulingEvents.TopicStoreEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupSchedulingStack wires up the full scheduling service stack.
func setupSchedulingStack(t *testing.T, db *gorm.DB, brokers []string) *schedulingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	apptRepo := repository.NewAppointmentRepository(db)
	storeRepo := repository.NewGormStoreRepository(db)
	couponRepo := repository.NewGormCouponRepository(db)
	storeCache := cache.NewStoreCache()
	producer := kafka.NewProducer(brokers, logger)
	notifier := adapter.NewLogNotifier(logger)
	redemption := saga.NewCouponRedemptionService(couponRepo, producer, logger)

	booking := application.NewBookingService(
		storeRepo, apptRepo, couponRepo,
		redemption, producer, notifier, storeCache, logger,
	)
	slots := application.NewSlotService(storeRepo, apptRepo, storeCache, logger)

	groupID := fmt.Sprintf("test-scheduling-%s", uuid.New().String()[:8])
	consumer := schedulingEvents.NewStoreEventConsumer(brokers, groupID, storeCache, logger)

	return &schedulingStack{
		Booking:         booking,
		Slots:           slots,
		Cache:           storeCache,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// weekdayHours returns a schedule open every day at the given times.
func weekdayHours(start, end string) schedule.WorkingHours {
	wh := schedule.WorkingHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		wh[day] = schedule.DayHours{Active: true, Start: start, End: end}
	}
	return wh
}

// seedStore inserts a store open 09:00-18:00 every day.
func seedStore(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	storeID := uuid.New()
	now := time.Now().UTC()
	model := repository.StoreModel{
		ID:           storeID,
		Name:         "Studio Bela Vista",
		Timezone:     "America/Sao_Paulo",
		WorkingHours: repository.WorkingHoursJSON(weekdayHours("09:00", "18:00")),
		StepMinutes:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed store")
	return storeID
}

// seedService inserts an active catalog service for a store.
func seedService(t *testing.T, db *gorm.DB, storeID uuid.UUID, durationMinutes int, priceCents int64) uuid.UUID {
	t.Helper()
	serviceID := uuid.New()
	now := time.Now().UTC()
	model := repository.ServiceModel{
		ID:              serviceID,
		StoreID:         storeID,
		Name:            "Corte de cabelo",
		DurationMinutes: durationMinutes,
		PriceCents:      priceCents,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed service")
	return serviceID
}

// seedCoupon inserts an active percentage coupon for a store.
func seedCoupon(t *testing.T, db *gorm.DB, storeID uuid.UUID, code string, percent int64, usageLimit int) uuid.UUID {
	t.Helper()
	couponID := uuid.New()
	now := time.Now().UTC()
	model := repository.CouponModel{
		ID:           couponID,
		StoreID:      storeID,
		Code:         code,
		DiscountType: "percentage",
		Value:        percent,
		UsageLimit:   usageLimit,
		Active:       true,
		StartsAt:     now.Add(-time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed coupon")
	return couponID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
