package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/dmlog/internal/clock"
	"github.com/example/dmlog/internal/quota"
	"github.com/example/dmlog/internal/record"
	"github.com/example/dmlog/internal/session"
	"github.com/example/dmlog/internal/sheets"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*
var fs embed.FS

type RecordStore interface {
	Create(ctx context.Context, rec record.Record) (int64, error)
	CountForDay(ctx context.Context, worker, date string) (int, error)
}

type LockStore interface {
	Get(ctx context.Context, worker string, now time.Time) (*quota.BreakLock, error)
	Put(ctx context.Context, worker string, l quota.BreakLock) error
}

type SheetSender interface {
	SendAsync(p sheets.Payload)
}

type Server struct {
	Sessions *session.Store
	Records  RecordStore
	Locks    LockStore
	Sheets   SheetSender
	Log      *zap.Logger

	BaseURL string

	// Now is overridable in tests; nil means the JST wall clock.
	Now func() time.Time

	// in-flight submissions, one at most per worker. The only mutual
	// exclusion in the app: it prevents a duplicate submission while
	// one is pending and is cleared unconditionally when it settles.
	mu       sync.Mutex
	inFlight map[string]bool
}

type formValues struct {
	AccountLink       string
	BusinessType      string
	FollowerRange     string
	HasChampagne      bool
	HasChampagneTower bool
}

type tmplData struct {
	Title  string
	Worker string
	Flash  string
	Sent   bool

	Count          int
	DailyLimit     int
	Remaining      int
	LimitReached   bool
	BreakActive    bool
	BreakRemaining string
	BreakEndsAt    int64 // epoch millis, drives the page countdown

	BusinessTypes  []string
	FollowerRanges []string
	Form           formValues
	Errors         record.FieldErrors
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Sessions.RequireWorker(http.HandlerFunc(s.handleHome)))
	mux.Handle("/submit", s.Sessions.RequireWorker(http.HandlerFunc(s.handleSubmit)))

	return mux
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return clock.Now()
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.Sessions.GetSession(r); ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		s.render(w, "templates/login.html", tmplData{Title: "ログイン"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name, err := session.NormalizeName(r.FormValue("name"))
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "ログイン", Flash: "お名前を入力してください（50文字まで）"})
			return
		}
		if err := s.Sessions.SetSession(w, r, name); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	worker, _ := session.WorkerFromContext(r.Context())
	now := s.now()

	eng := s.loadEngine(r.Context(), worker, now)

	data := s.pageData(worker, now, eng)
	data.Sent = r.URL.Query().Get("sent") == "1"
	s.render(w, "templates/home.html", data)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	worker, _ := session.WorkerFromContext(r.Context())

	if !s.beginSubmit(worker) {
		// a submission is already pending for this worker
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	defer s.endSubmit(worker)

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := s.now()
	eng := s.loadEngine(r.Context(), worker, now)

	if eng.BreakActive(now) || eng.LimitReached() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	form := formValues{
		AccountLink:       r.FormValue("account_link"),
		BusinessType:      r.FormValue("business_type"),
		FollowerRange:     r.FormValue("follower_range"),
		HasChampagne:      r.FormValue("has_champagne") == "1",
		HasChampagneTower: r.FormValue("has_champagne_tower") == "1",
	}

	date := clock.DateOf(now)
	rec := record.Record{
		WorkerName:        worker,
		AccountLink:       strings.TrimSpace(form.AccountLink),
		BusinessType:      form.BusinessType,
		FollowerRange:     form.FollowerRange,
		HasChampagne:      form.HasChampagne,
		HasChampagneTower: form.HasChampagneTower,
		SentAt:            now,
		Date:              date,
		Month:             clock.MonthOf(date),
	}

	if errs := rec.Validate(); errs != nil {
		data := s.pageData(worker, now, eng)
		data.Form = form
		data.Errors = errs
		s.render(w, "templates/home.html", data)
		return
	}

	if _, err := s.Records.Create(r.Context(), rec); err != nil {
		// the submission failed as a whole: count unchanged, form
		// retained, worker may resubmit
		s.Log.Error("record create failed", zap.String("worker", worker), zap.Error(err))
		data := s.pageData(worker, now, eng)
		data.Form = form
		data.Flash = "送信に失敗しました。もう一度お試しください。"
		s.render(w, "templates/home.html", data)
		return
	}

	s.Sheets.SendAsync(sheets.Payload{
		UserName:          rec.WorkerName,
		AccountLink:       rec.AccountLink,
		BusinessType:      rec.BusinessType,
		FollowerRange:     rec.FollowerRange,
		HasChampagne:      rec.HasChampagne,
		HasChampagneTower: rec.HasChampagneTower,
		Date:              rec.Date,
		Month:             rec.Month,
		SentAt:            rec.SentAt.Format(time.RFC3339),
	})

	if lock := eng.RecordSent(now); lock != nil {
		if err := s.Locks.Put(r.Context(), worker, *lock); err != nil {
			s.Log.Warn("break lock persist failed", zap.String("worker", worker), zap.Error(err))
		}
	}

	http.Redirect(w, r, "/?sent=1", http.StatusFound)
}

// loadEngine rebuilds the worker's quota state. Store read failures
// are logged and degraded (count falls back to 0, lock to absent);
// they never block the page.
func (s *Server) loadEngine(ctx context.Context, worker string, now time.Time) *quota.Engine {
	count, err := s.Records.CountForDay(ctx, worker, clock.DateOf(now))
	if err != nil {
		s.Log.Warn("today count fetch failed", zap.String("worker", worker), zap.Error(err))
		count = 0
	}
	lock, err := s.Locks.Get(ctx, worker, now)
	if err != nil {
		s.Log.Warn("break lock fetch failed", zap.String("worker", worker), zap.Error(err))
		lock = nil
	}
	return &quota.Engine{Count: count, Lock: lock}
}

func (s *Server) pageData(worker string, now time.Time, eng *quota.Engine) tmplData {
	data := tmplData{
		Title:          "DM送信記録",
		Worker:         worker,
		Count:          eng.Count,
		DailyLimit:     quota.DailyLimit,
		Remaining:      eng.RemainingForReward(),
		LimitReached:   eng.LimitReached(),
		BreakActive:    eng.BreakActive(now),
		BreakRemaining: eng.RemainingBreakText(now),
		BusinessTypes:  record.BusinessTypes,
		FollowerRanges: record.FollowerRanges,
	}
	if data.BreakActive {
		data.BreakEndsAt = eng.Lock.LockedUntil
	}
	return data
}

func (s *Server) beginSubmit(worker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]bool)
	}
	if s.inFlight[worker] {
		return false
	}
	s.inFlight[worker] = true
	return true
}

func (s *Server) endSubmit(worker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, worker)
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
