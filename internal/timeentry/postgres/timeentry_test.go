package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
	timeentryPostgres "github.com/frahmantamala/permit-to-work/internal/timeentry/postgres"
)

func TestTimeEntryPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Time Entry Postgres Suite")
}

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(&timeentryDatamodel.TimeEntry{})).To(Succeed())
	return db
}

var _ = Describe("Time Entry PostgreSQL Repository", func() {
	var (
		ctx  context.Context
		repo *timeentryPostgres.TimeEntryRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = timeentryPostgres.NewTimeEntryRepository(openTestDB())
	})

	create := func(permitID int64, workDate string, hours float64, description string) *timeentry.TimeEntry {
		e := &timeentry.TimeEntry{PermitID: permitID, UserID: 3, WorkDate: workDate, Hours: hours, Description: description}
		Expect(repo.Create(ctx, e)).To(Succeed())
		return e
	}

	Describe("Create", func() {
		It("assigns an id and a creation time", func() {
			e := create(39, "2024-01-10", 7.5, "scaffolding")

			Expect(e.ID).To(BeNumerically(">", 0))
			Expect(e.CreatedAt).NotTo(BeZero())
		})
	})

	Describe("ListByPermit", func() {
		It("returns the entries of one permit by work date, then insertion", func() {
			second := create(39, "2024-01-10", 2, "welding")
			first := create(39, "2024-01-09", 4, "rigging")
			third := create(39, "2024-01-10", 1.25, "cleanup")
			create(40, "2024-01-08", 8, "other permit")

			entries, err := repo.ListByPermit(ctx, 39)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect([]int64{entries[0].ID, entries[1].ID, entries[2].ID}).
				To(Equal([]int64{first.ID, second.ID, third.ID}))
			Expect(entries[2].Hours).To(BeNumerically("~", 1.25))
			Expect(entries[2].Description).To(Equal("cleanup"))
			Expect(entries[2].UserID).To(Equal(int64(3)))
		})

		It("returns an empty list for a permit without entries", func() {
			entries, err := repo.ListByPermit(ctx, 404)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})
})
