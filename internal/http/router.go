package httpserver

import "net/http"

// Routes groups handlers. Customer routes sit behind the auth middleware;
// admin and health routes do not.
type Routes struct {
	Signup       http.HandlerFunc
	Login        http.HandlerFunc
	BecomeMember http.HandlerFunc

	SessionStart  http.HandlerFunc
	SessionSettle http.HandlerFunc
	SessionCancel http.HandlerFunc

	Recharge http.HandlerFunc
	Refund   http.HandlerFunc
	Balance  http.HandlerFunc
	Records  http.HandlerFunc

	RegisterStation  http.HandlerFunc
	StationStatus    http.HandlerFunc
	ListStations     http.HandlerFunc
	StationPiles     http.HandlerFunc
	RegisterPile     http.HandlerFunc
	PileMaintenance  http.HandlerFunc
	PileReturn       http.HandlerFunc
	PileAbandon      http.HandlerFunc
	PileForceRelease http.HandlerFunc
	CreatePricing    http.HandlerFunc
	GetPricing       http.HandlerFunc

	Health http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes, authMW func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	register := func(pattern, verb string, handler http.HandlerFunc, protected bool) {
		if handler == nil {
			return
		}
		var h http.Handler = method(verb, handler)
		if protected && authMW != nil {
			h = authMW(h)
		}
		mux.Handle(pattern, h)
	}

	register("/auth/signup", http.MethodPost, routes.Signup, false)
	register("/auth/login", http.MethodPost, routes.Login, false)
	register("/auth/member", http.MethodPost, routes.BecomeMember, true)

	register("/sessions/start", http.MethodPost, routes.SessionStart, true)
	register("/sessions/settle", http.MethodPost, routes.SessionSettle, true)
	register("/sessions/cancel", http.MethodPost, routes.SessionCancel, true)

	register("/wallet/recharge", http.MethodPost, routes.Recharge, true)
	register("/wallet/refund", http.MethodPost, routes.Refund, true)
	register("/wallet/balance", http.MethodGet, routes.Balance, true)
	register("/wallet/records", http.MethodGet, routes.Records, true)

	register("/stations", http.MethodGet, routes.ListStations, false)
	register("/stations/piles", http.MethodGet, routes.StationPiles, false)
	register("/admin/stations", http.MethodPost, routes.RegisterStation, false)
	register("/admin/stations/status", http.MethodPost, routes.StationStatus, false)
	register("/admin/piles", http.MethodPost, routes.RegisterPile, false)
	register("/admin/piles/maintenance", http.MethodPost, routes.PileMaintenance, false)
	register("/admin/piles/return", http.MethodPost, routes.PileReturn, false)
	register("/admin/piles/abandon", http.MethodPost, routes.PileAbandon, false)
	register("/admin/piles/force-release", http.MethodPost, routes.PileForceRelease, false)
	register("/admin/pricing", http.MethodPost, routes.CreatePricing, false)
	register("/pricing", http.MethodGet, routes.GetPricing, false)

	register("/health", http.MethodGet, routes.Health, false)

	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
