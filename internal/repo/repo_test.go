package repo

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"nryli/internal/model"
)

// schema mirrors migrations/postgres in SQLite syntax.
const schema = `
CREATE TABLE registrations (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	registration_id     TEXT     NOT NULL UNIQUE,
	delegate_type       TEXT     NOT NULL,
	surname             TEXT     NOT NULL,
	first_name          TEXT     NOT NULL,
	middle_initial      TEXT,
	institution         TEXT     NOT NULL,
	institution_address TEXT     NOT NULL,
	institution_contact TEXT     NOT NULL,
	institution_email   TEXT     NOT NULL,
	region_cluster      TEXT     NOT NULL,
	delegate_contact    TEXT     NOT NULL,
	delegate_email      TEXT     NOT NULL,
	age                 INTEGER  NOT NULL,
	tshirt_size         TEXT     NOT NULL,
	dietary_preferences TEXT     NOT NULL DEFAULT 'None',
	dietary_comments    TEXT,
	payment_option      TEXT     NOT NULL,
	payment_proof_url   TEXT,
	transaction_ref     TEXT,
	status              TEXT     NOT NULL DEFAULT 'pending',
	created_at          DATETIME NOT NULL
);
`

type RepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo Repository
	ctx  context.Context
	base time.Time
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM registrations`).Scan(&n))
	return n
}

func TestWritesGoToMasterWhenReadHandleIsSeparate(t *testing.T) {
	master := openMemoryDB(t)
	read := openMemoryDB(t)
	repo, err := NewRepository(master, read, nil)
	require.NoError(t, err)
	ctx := context.Background()

	reg := model.Registration{
		RegistrationID: "NRYLI2025-00000001", DelegateType: "Student", Surname: "Rizal", FirstName: "Jose",
		Institution: "UP", InstitutionAddress: "Manila", InstitutionContact: "123", InstitutionEmail: "a@b.com",
		RegionCluster: model.RegionNCR, DelegateContact: "0917", DelegateEmail: "jose@x.com", Age: 20,
		TshirtSize: "M", DietaryPreferences: "None", PaymentOption: "cash", Status: model.StatusPending,
		CreatedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
	}
	_, err = repo.Insert(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, master))
	assert.Equal(t, 0, countRows(t, read))

	got, err := repo.GetByRegistrationID(ctx, reg.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, "Rizal", got.Surname)

	require.NoError(t, repo.UpdateStatus(ctx, reg.RegistrationID, model.StatusApproved))
	var status string
	require.NoError(t, master.QueryRow(`SELECT status FROM registrations`).Scan(&status))
	assert.Equal(t, "approved", status)

	// lists and aggregates come from the read handle
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	db, err := sql.Open("sqlite3", ":memory:")
	s.Require().NoError(err)
	// every pooled connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	s.Require().NoError(err)

	s.db = db
	s.repo, err = NewRepository(db, db, nil)
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.base = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *RepositorySuite) newRegistration(n int, region model.Region, delegateType string) model.Registration {
	comment := "no pork"
	return model.Registration{
		RegistrationID:     fmt.Sprintf("NRYLI2025-%08d", n),
		DelegateType:       delegateType,
		Surname:            "Surname",
		FirstName:          fmt.Sprintf("First%d", n),
		Institution:        "UP",
		InstitutionAddress: "Manila",
		InstitutionContact: "123",
		InstitutionEmail:   "inst@example.com",
		RegionCluster:      region,
		DelegateContact:    "0917",
		DelegateEmail:      fmt.Sprintf("d%d@example.com", n),
		Age:                18 + n,
		TshirtSize:         "M",
		DietaryPreferences: "None",
		DietaryComments:    &comment,
		PaymentOption:      "cash",
		Status:             model.StatusPending,
		CreatedAt:          s.base.Add(time.Duration(n) * time.Minute),
	}
}

func (s *RepositorySuite) seed(regs ...model.Registration) {
	for _, reg := range regs {
		_, err := s.repo.Insert(s.ctx, reg)
		s.Require().NoError(err)
	}
}

func (s *RepositorySuite) TestInsertReturnsStoredRecord() {
	reg := s.newRegistration(1, model.RegionNCR, "Student")

	stored, err := s.repo.Insert(s.ctx, reg)
	s.Require().NoError(err)
	s.NotZero(stored.ID)
	s.Equal(reg.RegistrationID, stored.RegistrationID)

	got, err := s.repo.GetByRegistrationID(s.ctx, reg.RegistrationID)
	s.Require().NoError(err)
	s.Equal(stored.ID, got.ID)
	s.Equal(model.StatusPending, got.Status)
	s.Equal(model.RegionNCR, got.RegionCluster)
	s.Nil(got.MiddleInitial)
	s.Require().NotNil(got.DietaryComments)
	s.Equal("no pork", *got.DietaryComments)
	s.True(reg.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", reg.CreatedAt, got.CreatedAt)
}

func (s *RepositorySuite) TestInsertDuplicateRegistrationID() {
	reg := s.newRegistration(1, model.RegionNCR, "Student")
	s.seed(reg)

	_, err := s.repo.Insert(s.ctx, reg)
	s.ErrorIs(err, ErrDuplicateRegistrationID)
}

func (s *RepositorySuite) TestListAllNewestFirstAndStable() {
	s.seed(
		s.newRegistration(1, model.RegionNCR, "Student"),
		s.newRegistration(3, model.RegionLuzon, "Student"),
		s.newRegistration(2, model.RegionVisayas, "Adviser"),
	)

	first, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(first, 3)
	s.Equal("NRYLI2025-00000003", first[0].RegistrationID)
	s.Equal("NRYLI2025-00000002", first[1].RegistrationID)
	s.Equal("NRYLI2025-00000001", first[2].RegistrationID)

	second, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *RepositorySuite) TestListAllEmpty() {
	regs, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(regs)
	s.Empty(regs)
}

func (s *RepositorySuite) TestUpdateStatusOnlyTouchesStatus() {
	s.seed(s.newRegistration(1, model.RegionNCR, "Student"), s.newRegistration(2, model.RegionNCR, "Student"))
	before, err := s.repo.GetByRegistrationID(s.ctx, "NRYLI2025-00000001")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateStatus(s.ctx, "NRYLI2025-00000001", model.StatusApproved))

	after, err := s.repo.GetByRegistrationID(s.ctx, "NRYLI2025-00000001")
	s.Require().NoError(err)
	s.Equal(model.StatusApproved, after.Status)

	after.Status = before.Status
	s.Equal(*before, *after)

	other, err := s.repo.GetByRegistrationID(s.ctx, "NRYLI2025-00000002")
	s.Require().NoError(err)
	s.Equal(model.StatusPending, other.Status)
}

func (s *RepositorySuite) TestUpdateStatusUnknownID() {
	err := s.repo.UpdateStatus(s.ctx, "NRYLI2025-99999999", model.StatusRejected)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestGetUnknownID() {
	_, err := s.repo.GetByRegistrationID(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestCountAllAndListField() {
	s.seed(
		s.newRegistration(1, model.RegionNCR, "Student"),
		s.newRegistration(2, model.RegionMindanao, "Adviser"),
		s.newRegistration(3, model.RegionNCR, "Student"),
	)

	count, err := s.repo.CountAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, count)

	regions, err := s.repo.ListField(s.ctx, "region_cluster")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"NCR", "Mindanao", "NCR"}, regions)

	ages, err := s.repo.ListField(s.ctx, "age")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"19", "20", "21"}, ages)

	_, err = s.repo.ListField(s.ctx, "surname; DROP TABLE registrations")
	s.ErrorIs(err, ErrUnknownField)
}

func (s *RepositorySuite) TestStatsGroupedQuery() {
	s.seed(
		s.newRegistration(1, model.RegionNCR, "Student"),
		s.newRegistration(2, model.RegionNCR, "Adviser"),
		s.newRegistration(3, model.RegionVisayas, "Student"),
		s.newRegistration(4, model.RegionMindanao, "Student"),
	)

	stats, err := s.repo.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.Total)
	s.Equal(map[string]int{"NCR": 2, "Visayas": 1, "Mindanao": 1}, stats.ByRegion)
	s.Equal(map[string]int{"Student": 3, "Adviser": 1}, stats.ByDelegateType)
}

func (s *RepositorySuite) TestStoreErrorsAreWrapped() {
	s.Require().NoError(s.db.Close())

	_, err := s.repo.ListAll(s.ctx)
	s.Error(err)
	s.NotErrorIs(err, ErrNotFound)

	// reopen so TearDownTest can close cleanly
	s.SetupTest()
}
