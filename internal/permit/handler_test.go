package permit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/clock"
	permitDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/permit"
	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	permitPostgres "github.com/frahmantamala/permit-to-work/internal/permit/postgres"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Permit Handler Integration", func() {
	var (
		router   chi.Router
		service  *permit.Service
		permit39 int64

		acmeUser  = &auth.User{ID: 3, Email: "acme@example.com", Role: auth.RoleEntreprenor, Firma: "Acme A/S"}
		betaUser  = &auth.User{ID: 4, Email: "beta@example.com", Role: auth.RoleEntreprenor, Firma: "Beta ApS"}
		ownerUser = &auth.User{ID: 1, Email: "owner@example.com", Role: auth.RoleOpgaveansvarlig}
		driftUser = &auth.User{ID: 2, Email: "drift@example.com", Role: auth.RoleDrift}
	)

	do := func(method, path, body string, user *auth.User) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if user != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), user))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeError := func(w *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(
			&permitDatamodel.Permit{},
			&permitDatamodel.Approval{},
			&permitDatamodel.ApprovalHistory{},
			&permitDatamodel.DailyResetMarker{},
			&timeentryDatamodel.TimeEntry{},
		)).To(Succeed())

		loc, err := time.LoadLocation("Europe/Copenhagen")
		Expect(err).NotTo(HaveOccurred())

		repo := permitPostgres.NewPermitRepository(db)
		service = permit.NewService(permit.ServiceDeps{
			Repo:    repo,
			Markers: permitPostgres.NewMarkerRepository(db),
			Clock:   clock.NewFixed(time.Date(2024, 1, 10, 9, 0, 0, 0, loc), loc),
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		handler := permit.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/permits", handler.ListPermits)
		router.Post("/permits", handler.CreatePermit)
		router.Get("/permits/{id}", handler.GetPermit)
		router.Delete("/permits/{id}", handler.DeletePermit)
		router.Post("/permits/{id}/approvals/{role}", handler.Approve)
		router.Put("/permits/{id}/work-status", handler.SetWorkStatus)
		router.Post("/admin/daily-reset", handler.RunDailyReset)

		p := permit.NewPermit(1, permit.CreatePermitDTO{WorkOrderNo: "WO-39", EntreprenorFirma: "Acme A/S", Status: "active"})
		Expect(repo.Create(context.Background(), p)).To(Succeed())
		permit39 = p.ID
	})

	path := func(suffix string) string {
		return "/permits/" + strconv.FormatInt(permit39, 10) + suffix
	}

	It("rejects requests without an authenticated user", func() {
		w := do(http.MethodGet, "/permits", "", nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a malformed permit id", func() {
		w := do(http.MethodGet, "/permits/abc", "", ownerUser)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("approves a role and returns the running count", func() {
		w := do(http.MethodPost, path("/approvals/drift"), "", driftUser)

		Expect(w.Code).To(Equal(http.StatusOK))
		var result permit.ApproveResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Role).To(Equal("drift"))
		Expect(result.ApprovedOn).To(Equal("2024-01-10"))
		Expect(result.ApprovedCount).To(Equal(1))
	})

	It("answers a double click with 409 ALREADY_APPROVED", func() {
		Expect(do(http.MethodPost, path("/approvals/entreprenor"), "", acmeUser).Code).To(Equal(http.StatusOK))

		w := do(http.MethodPost, path("/approvals/entreprenor"), "", acmeUser)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(w).Error.Type).To(Equal("ALREADY_APPROVED"))
	})

	It("returns a generic 403 for another firm's contractor", func() {
		w := do(http.MethodPost, path("/approvals/entreprenor"), "", betaUser)

		Expect(w.Code).To(Equal(http.StatusForbidden))
		body := decodeError(w)
		Expect(body.Error.Message).To(Equal("Not authorized"))
		Expect(body.Error.Message).NotTo(ContainSubstring("tenant"))
	})

	It("hides another firm's permit behind 404", func() {
		w := do(http.MethodGet, path(""), "", betaUser)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects an unknown approver role with 400", func() {
		w := do(http.MethodPost, path("/approvals/foreman"), "", ownerUser)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(w).Error.Code).To(Equal("INVALID_ROLE"))
	})

	It("gates the work status on the full approval set", func() {
		w := do(http.MethodPut, path("/work-status"), `{"status":"working"}`, acmeUser)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(w).Error.Code).To(Equal("APPROVALS_MISSING"))

		Expect(do(http.MethodPost, path("/approvals/opgaveansvarlig"), "", ownerUser).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, path("/approvals/drift"), "", driftUser).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, path("/approvals/entreprenor"), "", acmeUser).Code).To(Equal(http.StatusOK))

		w = do(http.MethodPut, path("/work-status"), `{"status":"working"}`, acmeUser)
		Expect(w.Code).To(Equal(http.StatusOK))
		var p permit.Permit
		Expect(json.NewDecoder(w.Body).Decode(&p)).To(Succeed())
		Expect(p.StatusDag).To(Equal(permit.DayStatusWorking))
		Expect(p.Ikon).To(Equal(permit.IconWorking))
	})

	It("rejects unknown fields in the work status body", func() {
		w := do(http.MethodPut, path("/work-status"), `{"status":"working","force":true}`, acmeUser)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("shows the approval view on the permit detail", func() {
		do(http.MethodPost, path("/approvals/opgaveansvarlig"), "", ownerUser)

		w := do(http.MethodGet, path(""), "", acmeUser)

		Expect(w.Code).To(Equal(http.StatusOK))
		var detail struct {
			ID           int64 `json:"id"`
			ApprovalView struct {
				ApprovedCount int `json:"approved_count"`
				Roles         []struct {
					Role       string `json:"role"`
					CanApprove bool   `json:"can_approve"`
				} `json:"roles"`
			} `json:"approval_view"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&detail)).To(Succeed())
		Expect(detail.ID).To(Equal(permit39))
		Expect(detail.ApprovalView.ApprovedCount).To(Equal(1))
		Expect(detail.ApprovalView.Roles).To(HaveLen(3))
		Expect(detail.ApprovalView.Roles[2].CanApprove).To(BeTrue())
	})

	It("lists only the contractor's firm", func() {
		Expect(do(http.MethodPost, "/permits", `{"work_order_no":"WO-40","entreprenor_firma":"Beta ApS"}`, driftUser).Code).
			To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/permits", "", acmeUser)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Count int `json:"count"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Count).To(Equal(1))
	})

	It("runs the daily reset on demand", func() {
		w := do(http.MethodPost, "/admin/daily-reset", "", &auth.User{ID: 5, Role: auth.RoleAdmin})

		Expect(w.Code).To(Equal(http.StatusOK))
		var report permit.ResetReport
		Expect(json.NewDecoder(w.Body).Decode(&report)).To(Succeed())
		Expect(report.Date).To(Equal("2024-01-10"))

		day, err := service.LastResetDay(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(day).To(Equal("2024-01-10"))
	})
})
