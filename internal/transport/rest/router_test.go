package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	authPostgres "github.com/frahmantamala/permit-to-work/internal/auth/postgres"
	"github.com/frahmantamala/permit-to-work/internal/clock"
	permitDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/permit"
	timeentryDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/timeentry"
	userDatamodel "github.com/frahmantamala/permit-to-work/internal/core/datamodel/user"
	"github.com/frahmantamala/permit-to-work/internal/core/metrics"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	permitPostgres "github.com/frahmantamala/permit-to-work/internal/permit/postgres"
	"github.com/frahmantamala/permit-to-work/internal/timeentry"
	timeentryPostgres "github.com/frahmantamala/permit-to-work/internal/timeentry/postgres"
	"github.com/frahmantamala/permit-to-work/internal/transport/rest"
	"github.com/frahmantamala/permit-to-work/internal/transport/swagger"
	"github.com/frahmantamala/permit-to-work/internal/user"
	userPostgres "github.com/frahmantamala/permit-to-work/internal/user/postgres"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Router Suite")
}

type apiClient struct {
	router http.Handler
}

func (c apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c apiClient) login(email string) string {
	w := c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password123"})
	Expect(w.Code).To(Equal(http.StatusOK), w.Body.String())
	var tokens auth.AuthTokens
	Expect(json.NewDecoder(w.Body).Decode(&tokens)).To(Succeed())
	return tokens.AccessToken
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
	return body.Error.Code
}

var _ = Describe("API router", func() {
	var (
		ctx      context.Context
		client   apiClient
		mux      *chi.Mux
		clk      *clock.Fixed
		markers  *permitPostgres.MarkerRepository
		permitID int64
		path     string
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(
			&userDatamodel.User{},
			&permitDatamodel.Permit{},
			&permitDatamodel.Approval{},
			&permitDatamodel.ApprovalHistory{},
			&permitDatamodel.DailyResetMarker{},
			&timeentryDatamodel.TimeEntry{},
		)).To(Succeed())

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		clk = clock.NewFixed(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), time.UTC)
		m := metrics.New()

		users := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, quiet)
		for _, dto := range []user.CreateUserDTO{
			{Email: "admin@example.com", Name: "Admin", Role: "admin"},
			{Email: "owner@example.com", Name: "Owner", Role: "opgaveansvarlig"},
			{Email: "drift@example.com", Name: "Drift", Role: "drift"},
			{Email: "acme@example.com", Name: "Acme", Role: "entreprenor", Firma: "Acme A/S"},
			{Email: "beta@example.com", Name: "Beta", Role: "entreprenor", Firma: "Beta ApS"},
		} {
			dto.Password = "password123"
			_, err := users.Create(ctx, dto)
			Expect(err).NotTo(HaveOccurred())
		}

		authService := auth.NewService(
			authPostgres.NewRepository(db),
			auth.NewJWTTokenGenerator("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
			bcrypt.MinCost, quiet)

		permitRepo := permitPostgres.NewPermitRepository(db)
		markers = permitPostgres.NewMarkerRepository(db)
		permits := permit.NewService(permit.ServiceDeps{
			Repo: permitRepo, Markers: markers, Clock: clk, Metrics: m, Logger: quiet,
		})
		times := timeentry.NewService(timeentryPostgres.NewTimeEntryRepository(db), permits, clk, quiet)

		doc, err := swagger.Load(ctx, filepath.Join("..", "..", "..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())

		mux = chi.NewRouter()
		rest.RegisterAllRoutes(mux, rest.RouteDeps{
			Health:           rest.NewHealthHandler(sqlDB),
			Logger:           quiet,
			AuthHandler:      auth.NewHandler(authService),
			UserHandler:      user.NewHandler(users),
			PermitHandler:    permit.NewHandler(permits),
			TimeEntryHandler: timeentry.NewHandler(times),
			RBAC:             auth.NewRBACAuthorization(quiet, m),
			ResetEnsurer:     permits,
			Metrics:          m,
			OpenAPI:          doc,
		})
		client = apiClient{router: mux}

		p := permit.NewPermit(1, permit.CreatePermitDTO{WorkOrderNo: "WO-7", EntreprenorFirma: "Acme A/S", Status: "active"})
		Expect(permitRepo.Create(ctx, p)).To(Succeed())
		permitID = p.ID
		path = "/api/v1/permits/" + strconv.FormatInt(permitID, 10)
	})

	It("documents every API route it serves", func() {
		doc, err := swagger.Load(ctx, filepath.Join("..", "..", "..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())

		var undocumented []string
		Expect(chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, rest.APIPrefix) {
				return nil
			}
			if !doc.Documents(method, strings.TrimPrefix(route, rest.APIPrefix)) {
				undocumented = append(undocumented, method+" "+route)
			}
			return nil
		})).To(Succeed())
		Expect(undocumented).To(BeEmpty())
	})

	It("serves ops endpoints without a token", func() {
		Expect(client.do(http.MethodGet, "/api/v1/ping", "", nil).Code).To(Equal(http.StatusOK))
		Expect(client.do(http.MethodGet, "/api/v1/health", "", nil).Code).To(Equal(http.StatusOK))
		Expect(client.do(http.MethodGet, "/openapi.yml", "", nil).Body.String()).To(HavePrefix("openapi:"))
	})

	It("reports an unhealthy extra component", func() {
		health := rest.NewHealthHandler(nil).WithCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") })
		r := chi.NewRouter()
		rest.RegisterAllRoutes(r, rest.RouteDeps{Health: health, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

		w := apiClient{router: r}.do(http.MethodGet, "/api/v1/health", "", nil)

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).To(ContainSubstring("dial tcp: refused"))
	})

	It("rejects protected routes without a token", func() {
		w := client.do(http.MethodGet, "/api/v1/permits", "", nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers unknown routes in the error envelope", func() {
		w := client.do(http.MethodGet, "/api/v1/nope", "", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(w)).To(Equal("ROUTE_NOT_FOUND"))
	})

	It("runs the daily approval round trip", func() {
		owner := client.login("owner@example.com")
		drift := client.login("drift@example.com")
		acme := client.login("acme@example.com")

		w := client.do(http.MethodPut, path+"/work-status", acme, map[string]string{"status": "working"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("APPROVALS_MISSING"))

		Expect(client.do(http.MethodPost, path+"/approvals/opgaveansvarlig", owner, nil).Code).To(Equal(http.StatusOK))
		Expect(client.do(http.MethodPost, path+"/approvals/DRIFT", drift, nil).Code).To(Equal(http.StatusOK))
		w = client.do(http.MethodPost, path+"/approvals/entreprenor", acme, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var result permit.ApproveResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.FullyApproved).To(BeTrue())

		w = client.do(http.MethodPost, path+"/approvals/entreprenor", acme, nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(w)).To(Equal("ALREADY_APPROVED_TODAY"))

		Expect(client.do(http.MethodPut, path+"/work-status", acme, map[string]string{"status": "working"}).Code).To(Equal(http.StatusOK))

		w = client.do(http.MethodGet, "/metrics", "", nil)
		Expect(w.Body.String()).To(ContainSubstring(`ptw_approvals_total{outcome="approved",role="entreprenor"} 1`))
	})

	It("resets yesterday's work on the first request of the day", func() {
		owner := client.login("owner@example.com")
		drift := client.login("drift@example.com")
		acme := client.login("acme@example.com")
		for role, token := range map[string]string{"opgaveansvarlig": owner, "drift": drift, "entreprenor": acme} {
			Expect(client.do(http.MethodPost, path+"/approvals/"+role, token, nil).Code).To(Equal(http.StatusOK))
		}
		Expect(client.do(http.MethodPut, path+"/work-status", acme, map[string]string{"status": "working"}).Code).To(Equal(http.StatusOK))

		clk.Set(time.Date(2024, 1, 11, 6, 0, 0, 0, time.UTC))
		w := client.do(http.MethodGet, path, acme, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var detail struct {
			StatusDag string `json:"status_dag"`
			Ikon      string `json:"ikon"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&detail)).To(Succeed())
		Expect(detail.StatusDag).To(Equal(string(permit.DayStatusAwaitingApproval)))
		Expect(detail.Ikon).To(Equal(string(permit.IconDefault)))

		day, err := markers.GetMarker(ctx, permit.MarkerDailyReset)
		Expect(err).NotTo(HaveOccurred())
		Expect(day).To(Equal("2024-01-11"))
	})

	It("hides another firm's permit and refuses its approval", func() {
		beta := client.login("beta@example.com")

		Expect(client.do(http.MethodGet, path, beta, nil).Code).To(Equal(http.StatusNotFound))

		w := client.do(http.MethodPost, path+"/approvals/entreprenor", beta, nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).NotTo(ContainSubstring("Acme"))
	})

	It("keeps administration behind the role gates", func() {
		acme := client.login("acme@example.com")
		drift := client.login("drift@example.com")
		admin := client.login("admin@example.com")

		create := map[string]string{"work_order_no": "WO-8", "entreprenor_firma": "Acme A/S"}
		Expect(client.do(http.MethodPost, "/api/v1/permits", acme, create).Code).To(Equal(http.StatusForbidden))
		Expect(client.do(http.MethodPost, "/api/v1/permits", drift, create).Code).To(Equal(http.StatusCreated))

		Expect(client.do(http.MethodDelete, path, drift, nil).Code).To(Equal(http.StatusForbidden))
		Expect(client.do(http.MethodPost, "/api/v1/admin/daily-reset", drift, nil).Code).To(Equal(http.StatusForbidden))

		Expect(client.do(http.MethodPost, "/api/v1/admin/daily-reset", admin, nil).Code).To(Equal(http.StatusOK))
		Expect(client.do(http.MethodDelete, path, admin, nil).Code).To(Equal(http.StatusNoContent))
		Expect(client.do(http.MethodGet, path, admin, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("logs time against a visible permit", func() {
		acme := client.login("acme@example.com")

		w := client.do(http.MethodPost, path+"/time-entries", acme, map[string]interface{}{"hours": 7.5})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = client.do(http.MethodGet, path+"/time-entries", acme, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"total_hours":7.5`))
	})

	It("returns the caller's profile", func() {
		acme := client.login("acme@example.com")

		w := client.do(http.MethodGet, "/api/v1/users/me", acme, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"firma":"Acme A/S"`))
	})
})
