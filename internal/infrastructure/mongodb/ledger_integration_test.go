package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockpilot/ledger-service/internal/domain"
	testhelpers "github.com/stockpilot/ledger-service/pkg/testing"
)

type LedgerIntegrationTestSuite struct {
	suite.Suite
	mongoContainer *testhelpers.MongoDBContainer
	client         *mongo.Client
	db             *mongo.Database
	stocks         *StockRepository
	movements      *MovementRepository
	alerts         *AlertRepository
	ledger         *TransactionalLedger
	ctx            context.Context
}

func (s *LedgerIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testhelpers.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.mongoContainer = container

	client, err := container.Connect(s.ctx)
	s.Require().NoError(err)
	s.client = client

	s.db = client.Database("ledger_test")
	s.stocks = NewStockRepository(s.db)
	s.movements = NewMovementRepository(s.db)
	s.alerts = NewAlertRepository(s.db)
	s.ledger = NewTransactionalLedger(s.db)
}

func (s *LedgerIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		s.mongoContainer.Close(s.ctx)
	}
}

func (s *LedgerIntegrationTestSuite) SetupTest() {
	s.db.Collection(stockRecordsCollection).DeleteMany(s.ctx, bson.M{})
	s.db.Collection(movementsCollection).DeleteMany(s.ctx, bson.M{})
	s.db.Collection(alertsCollection).DeleteMany(s.ctx, bson.M{})
}

func (s *LedgerIntegrationTestSuite) newRecord(productID string, stock int) *domain.StockRecord {
	record, err := domain.NewStockRecord(productID, "vendor-1", "Widget", "tools", 500, stock, nil, 10)
	s.Require().NoError(err)
	record.PullEvents()
	return record
}

func (s *LedgerIntegrationTestSuite) TestSaveAndFindStockRecord() {
	record := s.newRecord("prod-001", 20)
	s.Require().NoError(s.stocks.Save(s.ctx, record))

	found, err := s.stocks.FindByProductID(s.ctx, "prod-001")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(20, found.TotalStock())
	s.Equal(15, found.ReorderPoint)

	missing, err := s.stocks.FindByProductID(s.ctx, "nope")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *LedgerIntegrationTestSuite) TestSaveRejectsDuplicateProduct() {
	s.Require().NoError(s.stocks.Save(s.ctx, s.newRecord("prod-001", 20)))

	err := s.stocks.Save(s.ctx, s.newRecord("prod-001", 5))
	s.ErrorIs(err, domain.ErrRecordExists)
}

func (s *LedgerIntegrationTestSuite) TestSaveWithMovementIsAtomic() {
	record := s.newRecord("prod-001", 20)
	s.Require().NoError(s.stocks.Save(s.ctx, record))

	movement, err := record.ApplyMutation(domain.MutationRequest{
		MovementType: domain.MovementOut,
		Quantity:     15,
		Reason:       "order",
		PerformedBy:  "user-1",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.SaveWithMovement(s.ctx, record, movement))
	s.False(movement.ID.IsZero())

	found, err := s.stocks.FindByProductID(s.ctx, "prod-001")
	s.Require().NoError(err)
	s.Equal(5, found.TotalStock())

	count, err := s.movements.CountByProductID(s.ctx, "prod-001")
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *LedgerIntegrationTestSuite) TestMovementHistoryOrderAndReplay() {
	record := s.newRecord("prod-001", 0)
	s.Require().NoError(s.stocks.Save(s.ctx, record))

	for _, req := range []domain.MutationRequest{
		{MovementType: domain.MovementIn, Quantity: 50, Reason: "restock", PerformedBy: "u"},
		{MovementType: domain.MovementOut, Quantity: 12, Reason: "order", PerformedBy: "u"},
		{MovementType: domain.MovementAdjustment, Quantity: 30, Reason: "count", PerformedBy: "u"},
		{MovementType: domain.MovementOut, Quantity: 99, Reason: "oversold", PerformedBy: "u"},
	} {
		movement, err := record.ApplyMutation(req)
		s.Require().NoError(err)
		s.Require().NoError(s.ledger.SaveWithMovement(s.ctx, record, movement))
	}

	movements, total, err := s.movements.FindByProductID(s.ctx, "prod-001", domain.MovementFilter{}, 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(4), total)
	s.Require().Len(movements, 4)
	// most recent first
	s.Equal(domain.MovementOut, movements[0].MovementType)
	s.Equal(domain.MovementIn, movements[3].MovementType)

	balance, err := s.movements.ReplayBalance(s.ctx, "prod-001")
	s.Require().NoError(err)
	s.Equal(record.TotalStock(), balance)
	s.Equal(0, balance)
}

func (s *LedgerIntegrationTestSuite) TestMovementFilterByType() {
	record := s.newRecord("prod-001", 0)
	s.Require().NoError(s.stocks.Save(s.ctx, record))

	for _, mt := range []domain.MovementType{domain.MovementIn, domain.MovementOut, domain.MovementIn} {
		movement, err := record.ApplyMutation(domain.MutationRequest{
			MovementType: mt, Quantity: 5, Reason: "test", PerformedBy: "u",
		})
		s.Require().NoError(err)
		s.Require().NoError(s.ledger.SaveWithMovement(s.ctx, record, movement))
	}

	movements, total, err := s.movements.FindByProductID(s.ctx, "prod-001", domain.MovementFilter{MovementType: domain.MovementIn}, 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(movements, 2)
}

func (s *LedgerIntegrationTestSuite) TestAlertUpsertAndDeactivate() {
	alert := &domain.Alert{
		ProductID:    "prod-001",
		VendorID:     "vendor-1",
		ProductName:  "Widget",
		AlertType:    domain.AlertLowStock,
		Severity:     domain.SeverityHigh,
		CurrentStock: 5,
		Threshold:    10,
		ReorderPoint: 15,
		Active:       true,
	}
	s.Require().NoError(s.alerts.Upsert(s.ctx, alert))

	// second upsert for the same identity updates in place
	alert.Severity = domain.SeverityMedium
	alert.CurrentStock = 8
	s.Require().NoError(s.alerts.Upsert(s.ctx, alert))

	found, err := s.alerts.FindByProductAndType(s.ctx, "prod-001", domain.AlertLowStock)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(domain.SeverityMedium, found.Severity)
	s.Equal(8, found.CurrentStock)

	active, total, err := s.alerts.FindActive(s.ctx, "vendor-1", 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(active, 1)

	s.Require().NoError(s.alerts.DeactivateByProduct(s.ctx, "prod-001"))

	active, total, err = s.alerts.FindActive(s.ctx, "vendor-1", 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(0), total)
	s.Empty(active)
}

func TestLedgerIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(LedgerIntegrationTestSuite))
}
