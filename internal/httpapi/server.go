// Package httpapi serves read-only JSON views of closes and reports.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/consolidated"
	"github.com/cleared-dev/cashclose/internal/logger"
	"github.com/cleared-dev/cashclose/internal/model"
)

const dateFormat = "2006-01-02"

// Closes is the read side of closing.Service.
type Closes interface {
	Get(ctx context.Context, closeID string) (*model.Close, error)
	Find(ctx context.Context, q closing.Query) ([]*model.Close, error)
	Movements(ctx context.Context, closeID string, accountID int) ([]balance.Movement, error)
}

// History computes daily balances.
type History interface {
	History(ctx context.Context, accounts []model.Account, date time.Time, days int) ([]balance.DayBalances, error)
}

// CashAccounts lists the cash accounts of an entity.
type CashAccounts interface {
	CashAccounts(entity string) []model.Account
}

// Server holds the handler dependencies.
type Server struct {
	closes   Closes
	history  History
	accounts CashAccounts
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Server.
func New(closes Closes, history History, accounts CashAccounts, log zerolog.Logger) *Server {
	return &Server{closes: closes, history: history, accounts: accounts, log: log, now: time.Now}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/closes", func(r chi.Router) {
			r.Get("/", s.listCloses)
			r.Get("/{id}", s.getClose)
			r.Get("/{id}/lines/{account}/movements", s.movements)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/consolidated", s.consolidatedReport)
			r.Get("/lines", s.linesReport)
			r.Get("/bad-bills", s.badBillsReport)
		})
		r.Get("/balances/history", s.balanceHistory)
	})
	return r
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		log := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), log)))
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) listCloses(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := closing.Query{Entities: f.Entities, From: f.From, To: f.To, States: f.States}
	cs, err := s.closes.Find(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]closeView, len(cs))
	for i, c := range cs {
		out[i] = newCloseView(c, false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getClose(w http.ResponseWriter, r *http.Request) {
	c, err := s.closes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCloseView(c, true))
}

func (s *Server) movements(w http.ResponseWriter, r *http.Request) {
	account, err := strconv.Atoi(chi.URLParam(r, "account"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: invalid account %q", closing.ErrValidation, chi.URLParam(r, "account")))
		return
	}
	moves, err := s.closes.Movements(r.Context(), chi.URLParam(r, "id"), account)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type movementView struct {
		Date         string `json:"date"`
		EntryID      string `json:"entry_id"`
		Kind         string `json:"kind"`
		Description  string `json:"description"`
		Reference    string `json:"reference,omitempty"`
		Counterparty string `json:"counterparty,omitempty"`
		Amount       string `json:"amount"`
	}
	out := make([]movementView, len(moves))
	for i, m := range moves {
		out[i] = movementView{
			Date: m.Date.Format(dateFormat), EntryID: m.EntryID, Kind: m.Kind(), Description: m.Description,
			Reference: m.Reference, Counterparty: m.Counterparty, Amount: m.Amount.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) consolidatedReport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := consolidated.Rows(r.Context(), s.closes, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type rowView struct {
		Date    string           `json:"date"`
		Entity  string           `json:"entity"`
		CloseID string           `json:"close_id"`
		Ref     string           `json:"ref"`
		State   string           `json:"state"`
		Totals  bucketTotalsView `json:"totals"`
	}
	out := struct {
		Rows  []rowView        `json:"rows"`
		Total bucketTotalsView `json:"total"`
	}{Rows: make([]rowView, len(rows)), Total: newBucketTotalsView(consolidated.GrandTotals(rows))}
	for i, row := range rows {
		out.Rows[i] = rowView{
			Date: row.Date.Format(dateFormat), Entity: row.Entity, CloseID: row.CloseID, Ref: row.Ref,
			State: string(row.State), Totals: newBucketTotalsView(row.Totals),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) linesReport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	lines, err := consolidated.Lines(r.Context(), s.closes, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type lineRowView struct {
		Date    string `json:"date"`
		Entity  string `json:"entity"`
		CloseID string `json:"close_id"`
		State   string `json:"state"`
		lineView
	}
	out := make([]lineRowView, len(lines))
	for i, l := range lines {
		out[i] = lineRowView{
			Date: l.Date.Format(dateFormat), Entity: l.Entity, CloseID: l.CloseID, State: string(l.State),
			lineView: lineView{
				AccountID: l.AccountID, AccountName: l.AccountName, Bucket: string(l.Bucket), Currency: l.Currency,
				Initial: l.Initial, Income: l.Income, Expense: l.Expense, Final: l.Final,
				Counted: l.Counted, Difference: l.Difference, IsCounted: l.IsCounted,
			},
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) badBillsReport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := consolidated.BadBills(r.Context(), s.closes, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type groupView struct {
		Key      string `json:"key"`
		Quantity int    `json:"quantity"`
		Total    string `json:"total"`
	}
	out := struct {
		ByCondition []groupView `json:"by_condition"`
		ByBill      []groupView `json:"by_bill"`
		ByCurrency  []groupView `json:"by_currency"`
		Count       int         `json:"count"`
	}{ByCondition: []groupView{}, ByBill: []groupView{}, ByCurrency: []groupView{}, Count: len(sum.Entries)}
	for _, c := range []model.BillCondition{model.ConditionDamaged, model.ConditionTorn, model.ConditionWorn, model.ConditionCounterfeit, model.ConditionOther} {
		if g, ok := sum.ByCondition[c]; ok {
			out.ByCondition = append(out.ByCondition, groupView{Key: string(c), Quantity: g.Quantity, Total: g.Total.String()})
		}
	}
	for _, k := range sum.Faces() {
		g := sum.ByFace[k]
		out.ByBill = append(out.ByBill, groupView{Key: k.Currency + " " + k.Value, Quantity: g.Quantity, Total: g.Total.String()})
	}
	currencies := make([]string, 0, len(sum.ByCurrency))
	for cur := range sum.ByCurrency {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	for _, cur := range currencies {
		g := sum.ByCurrency[cur]
		out.ByCurrency = append(out.ByCurrency, groupView{Key: cur, Quantity: g.Quantity, Total: g.Total.String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) balanceHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entity := q.Get("entity")
	if entity == "" {
		s.fail(w, r, fmt.Errorf("%w: entity is required", closing.ErrValidation))
		return
	}
	date := closing.Day(s.now())
	if v := q.Get("date"); v != "" {
		d, err := time.Parse(dateFormat, v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: invalid date %q", closing.ErrValidation, v))
			return
		}
		date = d
	}
	days := 7
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 366 {
			s.fail(w, r, fmt.Errorf("%w: days must be between 1 and 366", closing.ErrValidation))
			return
		}
		days = n
	}
	hist, err := s.history.History(r.Context(), s.accounts.CashAccounts(entity), date, days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	type dayView struct {
		Date     string            `json:"date"`
		Balances map[string]string `json:"balances"`
	}
	out := make([]dayView, len(hist))
	for i, d := range hist {
		v := dayView{Date: d.Date.Format(dateFormat), Balances: make(map[string]string, len(d.Balances))}
		for _, b := range d.Balances {
			v.Balances[strconv.Itoa(b.AccountID)] = b.Final.String()
		}
		out[i] = v
	}
	writeJSON(w, http.StatusOK, out)
}

// parseFilter reads from, to, entity and state query parameters. entity and
// state may be repeated or comma separated.
func parseFilter(r *http.Request) (consolidated.Filter, error) {
	var f consolidated.Filter
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		d, err := time.Parse(dateFormat, v)
		if err != nil {
			return f, fmt.Errorf("%w: invalid %s date %q", closing.ErrValidation, p.name, v)
		}
		*p.dst = d
	}
	f.Entities = splitParam(q["entity"])
	for _, s := range splitParam(q["state"]) {
		st := model.CloseState(strings.ToLower(s))
		if !st.Valid() {
			return f, fmt.Errorf("%w: unknown state %q", closing.ErrValidation, s)
		}
		f.States = append(f.States, st)
	}
	return f, nil
}

func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, closing.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, closing.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, closing.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	}
	log := logger.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
