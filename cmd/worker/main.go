// Worker consumes notification events from Kafka and persists them for
// delivery. Set KAFKA_BROKERS, NOTIFICATION_KAFKA_TOPIC, KAFKA_GROUP_ID, and
// DATABASE_URL. GRPC_ADDR is required by config but unused (e.g. set to :0).
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"clubqueue/backend/internal/config"
	"clubqueue/backend/internal/db"
	"clubqueue/backend/internal/notification/domain"
	notifrepo "clubqueue/backend/internal/notification/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: db: %v", err)
	}
	defer conn.Close()
	repo := notifrepo.NewPostgresRepository(conn)

	topic := cfg.NotificationKafkaTopic
	if topic == "" {
		topic = "clubqueue-notifications"
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "clubqueue-notification-worker"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	log.Printf("worker: consuming from %s (group %s)", topic, groupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read error: %v", err)
			continue
		}

		var event domain.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("worker: bad event payload: %v", err)
			continue
		}
		if event.ID == "" || event.UserID == "" {
			log.Printf("worker: dropping event with missing id or user")
			continue
		}

		n := &domain.Notification{
			ID:        event.ID,
			UserID:    event.UserID,
			OrgID:     event.OrgID,
			Type:      event.Type,
			Message:   event.Message,
			CreatedAt: event.CreatedAt,
		}
		writeCtx, writeCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := repo.Create(writeCtx, n); err != nil {
			log.Printf("worker: persist notification %s failed: %v", n.ID, err)
		}
		writeCancel()
	}
}
