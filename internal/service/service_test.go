package service

import (
	"context"
	"sync"
	"time"

	"reviewrota/internal/domain"
	"reviewrota/internal/pkg/logger"
)

func testLogger() *logger.Logger {
	log, err := logger.New(&logger.Config{Level: "error", Format: "json"})
	if err != nil {
		panic(err)
	}
	return log
}

// memStore is an in-memory ReviewStore. It hands out deep copies the way a
// real backend would, so engine-side mutations only become visible through
// Update.
type memStore struct {
	mu      sync.Mutex
	reviews map[string]*domain.ReviewRequest

	failGet    map[string]error
	failUpdate error
	failRemove error
	failList   error

	removed []string
}

func newMemStore() *memStore {
	return &memStore{
		reviews: make(map[string]*domain.ReviewRequest),
		failGet: make(map[string]error),
	}
}

func cloneReview(req *domain.ReviewRequest) *domain.ReviewRequest {
	out := *req
	out.Languages = append([]string(nil), req.Languages...)
	out.Accepted = append([]domain.AcceptedReviewer(nil), req.Accepted...)
	out.Declined = append([]domain.DeclinedReviewer(nil), req.Declined...)
	out.Pending = append([]domain.PendingSlot(nil), req.Pending...)
	return &out
}

func (s *memStore) Create(_ context.Context, req *domain.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[req.ID]; ok {
		return domain.ErrReviewExists
	}
	s.reviews[req.ID] = cloneReview(req)
	return nil
}

func (s *memStore) GetByID(_ context.Context, reviewID string) (*domain.ReviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failGet[reviewID]; err != nil {
		return nil, err
	}
	req, ok := s.reviews[reviewID]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	return cloneReview(req), nil
}

func (s *memStore) Update(_ context.Context, req *domain.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	if _, ok := s.reviews[req.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	s.reviews[req.ID] = cloneReview(req)
	return nil
}

func (s *memStore) Remove(_ context.Context, reviewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRemove != nil {
		return s.failRemove
	}
	if _, ok := s.reviews[reviewID]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(s.reviews, reviewID)
	s.removed = append(s.removed, reviewID)
	return nil
}

func (s *memStore) ListAll(_ context.Context) ([]*domain.ReviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	out := make([]*domain.ReviewRequest, 0, len(s.reviews))
	for _, req := range s.reviews {
		out = append(out, cloneReview(req))
	}
	return out, nil
}

func (s *memStore) get(reviewID string) *domain.ReviewRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.reviews[reviewID]
	if !ok {
		return nil
	}
	return cloneReview(req)
}

// memDirectory is an in-memory ReviewerDirectory preserving join order.
type memDirectory struct {
	mu        sync.Mutex
	order     []string
	reviewers map[string]*domain.Reviewer
}

func newMemDirectory(reviewers ...*domain.Reviewer) *memDirectory {
	d := &memDirectory{reviewers: make(map[string]*domain.Reviewer)}
	for _, reviewer := range reviewers {
		d.order = append(d.order, reviewer.ID)
		d.reviewers[reviewer.ID] = reviewer
	}
	return d
}

func (d *memDirectory) Upsert(_ context.Context, reviewer *domain.Reviewer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.reviewers[reviewer.ID]; ok {
		existing.Languages = reviewer.Languages
		return nil
	}
	d.order = append(d.order, reviewer.ID)
	d.reviewers[reviewer.ID] = reviewer
	return nil
}

func (d *memDirectory) GetByID(_ context.Context, reviewerID string) (*domain.Reviewer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reviewer, ok := d.reviewers[reviewerID]
	if !ok {
		return nil, domain.ErrReviewerNotFound
	}
	return reviewer, nil
}

func (d *memDirectory) Delete(_ context.Context, reviewerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.reviewers[reviewerID]; !ok {
		return domain.ErrReviewerNotFound
	}
	delete(d.reviewers, reviewerID)
	for i, id := range d.order {
		if id == reviewerID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

func (d *memDirectory) ListAll(_ context.Context) ([]*domain.Reviewer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.Reviewer, 0, len(d.order))
	for _, id := range d.order {
		copied := *d.reviewers[id]
		out = append(out, &copied)
	}
	return out, nil
}

func (d *memDirectory) TouchLastReviewed(_ context.Context, reviewerID string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	reviewer, ok := d.reviewers[reviewerID]
	if !ok {
		return domain.ErrReviewerNotFound
	}
	reviewer.LastReviewedAt = &at
	return nil
}

func (d *memDirectory) lastReviewed(reviewerID string) *time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reviewers[reviewerID].LastReviewedAt
}

// fakeNotifier records every delivery and can fail on demand.
type fakeNotifier struct {
	mu          sync.Mutex
	offers      map[string]int // reviewer id -> offers sent
	updates     map[string][]string
	threadPosts map[string][]string

	failSendOffer error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		offers:      make(map[string]int),
		updates:     make(map[string][]string),
		threadPosts: make(map[string][]string),
	}
}

func (n *fakeNotifier) SendOffer(_ context.Context, reviewerID string, _ Offer) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSendOffer != nil {
		return "", n.failSendOffer
	}
	n.offers[reviewerID]++
	return "handle-" + reviewerID, nil
}

func (n *fakeNotifier) UpdateOffer(_ context.Context, reviewerID, _, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates[reviewerID] = append(n.updates[reviewerID], text)
	return nil
}

func (n *fakeNotifier) PostToThread(_ context.Context, reviewID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.threadPosts[reviewID] = append(n.threadPosts[reviewID], text)
	return nil
}

func (n *fakeNotifier) posts(reviewID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.threadPosts[reviewID]...)
}

func (n *fakeNotifier) offerCount(reviewerID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.offers[reviewerID]
}

// fakeReporter collects operator reports.
type fakeReporter struct {
	mu      sync.Mutex
	reports []string
}

func (r *fakeReporter) Report(_ context.Context, title string, _ map[string]string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, title)
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type testRig struct {
	engine    *Engine
	store     *memStore
	directory *memDirectory
	notifier  *fakeNotifier
	reporter  *fakeReporter
}

func newTestRig(reviewers ...*domain.Reviewer) *testRig {
	log := testLogger()
	store := newMemStore()
	directory := newMemDirectory(reviewers...)
	notifier := newFakeNotifier()
	reporter := &fakeReporter{}

	engine := NewEngine(
		store,
		directory,
		NewSelector(directory, log),
		NewRequestLocks(),
		NewExpiryCalc(60, 0, 24),
		notifier,
		reporter,
		log,
	)

	return &testRig{
		engine:    engine,
		store:     store,
		directory: directory,
		notifier:  notifier,
		reporter:  reporter,
	}
}

func reviewerWith(id string, languages []string, last *time.Time) *domain.Reviewer {
	return &domain.Reviewer{ID: id, Languages: languages, LastReviewedAt: last}
}

func timePtr(t time.Time) *time.Time { return &t }
