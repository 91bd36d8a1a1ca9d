package decision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/kelly-developers/patientcare-sub000/internal/domain/surgery"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/apperr"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/db"
	"github.com/kelly-developers/patientcare-sub000/internal/platform/telemetry"
)

type mockDecisionRepo struct {
	mu        sync.Mutex
	decisions []*SurgicalDecision
}

func (m *mockDecisionRepo) Create(_ context.Context, d *SurgicalDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = uuid.New()
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *mockDecisionRepo) ListBySurgery(_ context.Context, surgeryID uuid.UUID) ([]*SurgicalDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SurgicalDecision
	for _, d := range m.decisions {
		if d.SurgeryID == surgeryID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDecisionRepo) Tally(_ context.Context, surgeryID uuid.UUID) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total, accepted int
	for _, d := range m.decisions {
		if d.SurgeryID != surgeryID {
			continue
		}
		total++
		if d.DecisionStatus == StatusAccepted {
			accepted++
		}
	}
	return total, accepted, nil
}

type mockSurgeryStore struct {
	surgeries map[uuid.UUID]*surgery.Surgery
}

func (m *mockSurgeryStore) GetByID(_ context.Context, id uuid.UUID) (*surgery.Surgery, error) {
	sg, ok := m.surgeries[id]
	if !ok {
		return nil, apperr.NotFound("surgery", id)
	}
	return sg, nil
}

func (m *mockSurgeryStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*surgery.Surgery, error) {
	return m.GetByID(ctx, id)
}

// lockingTxRunner serialises units of work the way a row lock would.
type lockingTxRunner struct{ mu sync.Mutex }

func (l *lockingTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

func newTestService(tx db.TxRunner, metrics *telemetry.Metrics) (*Service, *mockSurgeryStore) {
	store := &mockSurgeryStore{surgeries: make(map[uuid.UUID]*surgery.Surgery)}
	return NewService(&mockDecisionRepo{}, store, tx, metrics, zerolog.Nop()), store
}

func (m *mockSurgeryStore) add(status surgery.Status) uuid.UUID {
	id := uuid.New()
	m.surgeries[id] = &surgery.Surgery{ID: id, Status: status}
	return id
}

func submit(t *testing.T, svc *Service, surgeryID uuid.UUID, surgeon string, status Status) *Consensus {
	t.Helper()
	c, err := svc.Submit(context.Background(), &SurgicalDecision{SurgeryID: surgeryID, SurgeonName: surgeon, DecisionStatus: status})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return c
}

func TestService_Submit_QuorumScenarios(t *testing.T) {
	svc, store := newTestService(db.NoopTxRunner{}, nil)

	twoAccepted := store.add(surgery.StatusPendingConsent)
	submit(t, svc, twoAccepted, "Dr. Otieno", StatusAccepted)
	c := submit(t, svc, twoAccepted, "Dr. Wanjiru", StatusAccepted)
	if c.ConsensusReached || !c.RequiresMoreReviews {
		t.Errorf("two accepted: expected not reached and more reviews, got %+v", c)
	}

	majority := store.add(surgery.StatusPendingConsent)
	submit(t, svc, majority, "Dr. A", StatusAccepted)
	submit(t, svc, majority, "Dr. B", StatusDeclined)
	c = submit(t, svc, majority, "Dr. C", StatusAccepted)
	if !c.ConsensusReached || c.Outcome != OutcomeApproved {
		t.Errorf("2 of 3 accepted: expected approved, got %+v", c)
	}

	declined := store.add(surgery.StatusScheduled)
	for _, name := range []string{"Dr. A", "Dr. B", "Dr. C"} {
		c = submit(t, svc, declined, name, StatusDeclined)
	}
	if c.ConsensusReached || c.RequiresMoreReviews {
		t.Errorf("all declined: expected not reached without more reviews, got %+v", c)
	}
}

func TestService_Submit_Validation(t *testing.T) {
	svc, store := newTestService(db.NoopTxRunner{}, nil)
	id := store.add(surgery.StatusPendingConsent)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, &SurgicalDecision{SurgeonName: "x", DecisionStatus: StatusAccepted}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for surgery, got %v", err)
	}
	if _, err := svc.Submit(ctx, &SurgicalDecision{SurgeryID: id, DecisionStatus: StatusAccepted}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for surgeon, got %v", err)
	}
	if _, err := svc.Submit(ctx, &SurgicalDecision{SurgeryID: id, SurgeonName: "x", DecisionStatus: "MAYBE"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for status, got %v", err)
	}
	if _, err := svc.Submit(ctx, &SurgicalDecision{SurgeryID: uuid.New(), SurgeonName: "x", DecisionStatus: StatusAccepted}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	done := store.add(surgery.StatusCompleted)
	if _, err := svc.Submit(ctx, &SurgicalDecision{SurgeryID: done, SurgeonName: "x", DecisionStatus: StatusAccepted}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for completed surgery, got %v", err)
	}
}

func TestService_Submit_RecordsConsensusOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg, "test")
	svc, store := newTestService(db.NoopTxRunner{}, metrics)
	id := store.add(surgery.StatusPendingConsent)

	submit(t, svc, id, "A", StatusAccepted)
	submit(t, svc, id, "B", StatusAccepted)
	submit(t, svc, id, "C", StatusDeclined)
	submit(t, svc, id, "D", StatusAccepted)

	n, err := testutil.GatherAndCount(reg, "test_surgery_consensus_reached_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one series, got %d", n)
	}
	if v := testutil.ToFloat64(metrics.ConsensusReached); v != 1 {
		t.Errorf("expected consensus counted once, got %v", v)
	}
}

func TestService_Submit_ConcurrentTallyIsConsistent(t *testing.T) {
	svc, store := newTestService(&lockingTxRunner{}, nil)
	id := store.add(surgery.StatusPendingConsent)

	results := make(chan *Consensus, 3)
	var wg sync.WaitGroup
	for i, st := range []Status{StatusAccepted, StatusAccepted, StatusDeclined} {
		wg.Add(1)
		go func(i int, st Status) {
			defer wg.Done()
			c, err := svc.Submit(context.Background(), &SurgicalDecision{SurgeryID: id, SurgeonName: string(rune('A' + i)), DecisionStatus: st})
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			results <- c
		}(i, st)
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for c := range results {
		if seen[c.Total] {
			t.Errorf("two submissions observed the same total %d", c.Total)
		}
		seen[c.Total] = true
	}
	final, _ := svc.GetConsensus(context.Background(), id)
	if !final.ConsensusReached {
		t.Errorf("expected consensus after all votes, got %+v", final)
	}
}

func TestService_GetConsensus(t *testing.T) {
	svc, store := newTestService(db.NoopTxRunner{}, nil)
	id := store.add(surgery.StatusPendingConsent)
	submit(t, svc, id, "A", StatusAccepted)
	submit(t, svc, id, "B", StatusDeclined)

	c, err := svc.GetConsensus(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Total != 2 || c.Accepted != 1 || c.Declined != 1 || c.SurgeryID != id {
		t.Errorf("unexpected consensus: %+v", c)
	}
	if ok, _ := svc.HasConsensus(context.Background(), id); ok {
		t.Error("expected no consensus")
	}
	if _, err := svc.GetConsensus(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_Submit(t *testing.T) {
	svc, store := newTestService(db.NoopTxRunner{}, nil)
	h := NewHandler(svc)
	e := echo.New()
	id := store.add(surgery.StatusPendingConsent)

	body := `{"surgery_id":"` + id.String() + `","surgeon_name":"Dr. Kamau","decision_status":"ACCEPTED","factors_considered":{"asa_class":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/surgical-decisions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Submit(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"requires_more_reviews":true`) {
		t.Errorf("expected consensus in body, got %s", rec.Body.String())
	}
}

func TestHandler_GetConsensus_InvalidID(t *testing.T) {
	svc, _ := newTestService(db.NoopTxRunner{}, nil)
	h := NewHandler(svc)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("surgeryId")
	c.SetParamValues("bad")
	err := h.GetConsensus(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
