package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "formfill", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	theDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := theDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: theDB, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Entity{},
		&types.CanonicalRecord{},
		&types.Template{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []string{
		`ALTER TABLE "user_token"
		   ADD CONSTRAINT "fk_user_token_user_id"
		   FOREIGN KEY ("user_id") REFERENCES "user"("id")
		   ON DELETE CASCADE`,
		`ALTER TABLE "entity"
		   ADD CONSTRAINT "fk_entity_owner_id"
		   FOREIGN KEY ("owner_id") REFERENCES "user"("id")
		   ON DELETE CASCADE`,
		`ALTER TABLE "canonical_record"
		   ADD CONSTRAINT "fk_canonical_record_entity_id"
		   FOREIGN KEY ("entity_id") REFERENCES "entity"("id")
		   ON DELETE CASCADE`,
		`ALTER TABLE "template"
		   ADD CONSTRAINT "fk_template_owner_id"
		   FOREIGN KEY ("owner_id") REFERENCES "user"("id")
		   ON DELETE CASCADE`,
	}
	for _, stmt := range constraints {
		if err := s.db.Exec(stmt).Error; err != nil {
			// Re-running migrations hits existing constraints.
			s.log.Debug("Constraint statement skipped", "error", err)
		}
	}
	return nil
}
