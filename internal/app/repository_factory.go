package app

import (
	"fmt"

	identityDomain "github.com/felixgeelhaar/mentora/internal/identity/domain"
	identityPersistence "github.com/felixgeelhaar/mentora/internal/identity/infrastructure/persistence"
	schedulingDomain "github.com/felixgeelhaar/mentora/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/mentora/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/mentora/internal/shared/application"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/mongostore"
	"github.com/felixgeelhaar/mentora/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	store  *mongostore.Store
	driver database.Driver
}

// NewRepositoryFactory creates a factory over a SQL connection.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// NewMongoRepositoryFactory creates a factory over a MongoDB store.
func NewMongoRepositoryFactory(store *mongostore.Store) *RepositoryFactory {
	return &RepositoryFactory{
		store:  store,
		driver: database.DriverMongo,
	}
}

// UserRepository creates the identity directory store.
func (f *RepositoryFactory) UserRepository() (identityDomain.UserRepository, error) {
	switch {
	case f.driver.IsSQL():
		return identityPersistence.NewSQLUserRepository(f.conn), nil
	case f.driver == database.DriverMongo:
		return identityPersistence.NewMongoUserRepository(f.store.Database()), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// MeetingRepository creates the meeting request store.
func (f *RepositoryFactory) MeetingRepository() (schedulingDomain.Repository, error) {
	switch {
	case f.driver.IsSQL():
		return schedulingPersistence.NewSQLMeetingRepository(f.conn), nil
	case f.driver == database.DriverMongo:
		return schedulingPersistence.NewMongoMeetingRepository(f.store.Database()), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates the outbox store.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch {
	case f.driver.IsSQL():
		return outbox.NewSQLRepository(f.conn), nil
	case f.driver == database.DriverMongo:
		return outbox.NewMongoRepository(f.store.Database()), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork creates the transaction boundary matching the repositories.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	switch {
	case f.driver.IsSQL():
		return database.NewUnitOfWork(f.conn), nil
	case f.driver == database.DriverMongo:
		return mongostore.NewUnitOfWork(f.store), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}
