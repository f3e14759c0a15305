package events

import (
	"database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/ghuser/orderflow/pkg/config"
)

// newPostgresTransport opens cfg.DatabaseURL and builds a Watermill SQL
// publisher and subscriber on it. Schema tables are created on first use.
//
// All instances with the same cfg.ServiceName share a ConsumerGroup, so each
// message is processed by one instance of the service (load-balanced).
func newPostgresTransport(cfg *config.Config, wlog watermill.LoggerAdapter) (transport, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return transport{}, fmt.Errorf("events: open db: %w", err)
	}

	pub, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		wlog,
	)
	if err != nil {
		_ = db.Close()
		return transport{}, fmt.Errorf("events: new publisher: %w", err)
	}

	sub, err := watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    consumerGroup(cfg),
		},
		wlog,
	)
	if err != nil {
		_ = pub.Close()
		_ = db.Close()
		return transport{}, fmt.Errorf("events: new subscriber: %w", err)
	}

	return transport{
		publisher:  pub,
		subscriber: sub,
		ping:       db.PingContext,
		release:    db.Close,
	}, nil
}

func consumerGroup(cfg *config.Config) string {
	return cfg.ServiceName + "-consumer"
}
