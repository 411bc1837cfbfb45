package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/daemon"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/dev"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/metadata"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/repository"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	HeaderCaller = "X-Caller"
	HeaderValue  = "X-Value"

	defaultTake = 50
	maxTake     = 500
)

var errBadRequest = errors.New("api: bad request")

// Server exposes the ledger over HTTP. The caller and attached value of a
// write are taken from the X-Caller and X-Value headers, set by the signing
// agent in front of this service.
type Server struct {
	daemon   *daemon.Daemon
	records  repository.RecordRepository
	payouts  repository.PayoutRepository
	metadata metadata.Service
	cache    *cache.Cache
}

func NewServer(d *daemon.Daemon, store *repository.Store, metadataService metadata.Service, ttl time.Duration) *Server {
	return &Server{
		daemon:   d,
		records:  store.Records(),
		payouts:  store.Payouts(),
		metadata: metadataService,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/listings", s.cached(s.handleGetListings)).Methods(http.MethodGet)
	r.HandleFunc("/listings/seller/{address}", s.cached(s.handleGetListingsBySeller)).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}", s.handleGetToken).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/metadata", s.handleGetMetadata).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/records", s.handleGetTokenRecords).Methods(http.MethodGet)
	r.HandleFunc("/owners/{address}/tokens", s.handleGetOwnerTokens).Methods(http.MethodGet)
	r.HandleFunc("/balances/{address}", s.handleGetBalance).Methods(http.MethodGet)
	r.HandleFunc("/fees", s.cached(s.handleGetFees)).Methods(http.MethodGet)
	r.HandleFunc("/royalty/{tokenId:[0-9]+}", s.handleGetRoyalty).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/royalty-info", s.handleGetRoyaltyInfo).Methods(http.MethodGet)
	r.HandleFunc("/records", s.handleGetRecords).Methods(http.MethodGet)
	r.HandleFunc("/records/{seq:[0-9]+}", s.handleGetRecord).Methods(http.MethodGet)
	r.HandleFunc("/payouts/{address}", s.handleGetPayouts).Methods(http.MethodGet)

	r.HandleFunc("/tokens", s.handleMint).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/listing", s.handleList).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/listing", s.handleUpdatePrice).Methods(http.MethodPut)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/listing", s.handleCancel).Methods(http.MethodDelete)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/buy", s.handleBuy).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/listen", s.handleListen).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{tokenId:[0-9]+}/transfer", s.handleTransfer).Methods(http.MethodPost)
	r.HandleFunc("/listens", s.handleBatchListens).Methods(http.MethodPost)
	r.HandleFunc("/withdrawals", s.handleWithdraw).Methods(http.MethodPost)

	r.HandleFunc("/admin/mint", s.handleSafeMint).Methods(http.MethodPost)
	r.HandleFunc("/admin/fees/withdraw", s.handleWithdrawFees).Methods(http.MethodPost)
	r.HandleFunc("/admin/fees/marketplace", s.handleSetMarketplaceFee).Methods(http.MethodPut)
	r.HandleFunc("/admin/fees/mint", s.handleSetMintFee).Methods(http.MethodPut)
	r.HandleFunc("/admin/administrator", s.handleTransferAdministration).Methods(http.MethodPut)

	r.NotFoundHandler = notFoundHandler()

	return r
}

// FlushCache is the event listener invalidating cached reads whenever the
// ledger commits.
func (s *Server) FlushCache(interface{}) {
	s.cache.Flush()
}

type cachedResponse struct {
	status int
	body   []byte
}

type recorder struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body = append(r.body, b...)
	return r.ResponseWriter.Write(b)
}

func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.String()
		if hit, found := s.cache.Get(key); found {
			resp := hit.(cachedResponse)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(resp.status)
			_, _ = w.Write(resp.body)
			return
		}

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if rec.status == http.StatusOK {
			s.cache.SetDefault(key, cachedResponse{rec.status, rec.body})
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	supply, err := s.daemon.Ledger().TotalSupply(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]interface{}{"status": "ok", "totalSupply": supply}

	seq, found, err := s.records.LastSeq()
	if err != nil {
		writeError(w, err)
		return
	}
	if found {
		resp["lastSeq"] = seq
	}
	writeJson(w, http.StatusOK, resp)
}

func call(r *http.Request) (ledger.Call, error) {
	from, err := helper.ParseAddress(r.Header.Get(HeaderCaller))
	if err != nil {
		return ledger.Call{}, fmt.Errorf("%s: %w", HeaderCaller, err)
	}
	value, err := helper.ParseAmount(r.Header.Get(HeaderValue))
	if err != nil {
		return ledger.Call{}, fmt.Errorf("%s: %w", HeaderValue, err)
	}
	return ledger.Call{From: from, Value: value}, nil
}

func getTokenId(r *http.Request) (uint64, error) {
	tokenId, ok := mux.Vars(r)["tokenId"]
	if !ok {
		return 0, fmt.Errorf("%w: missing token id", errBadRequest)
	}
	id, err := strconv.ParseUint(tokenId, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: token id %q", errBadRequest, tokenId)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", errBadRequest, key, v)
	}
	return n, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJson(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Warn("Api: failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, name := classify(err)
	if status >= http.StatusInternalServerError {
		zap.L().With(zap.Error(err)).Error("Api: request failed")
	}
	writeJson(w, status, dev.NewError("api", name, err, nil))
}

func classify(err error) (int, string) {
	switch {
	case ledger.IsAuthorization(err):
		return http.StatusForbidden, "Authorization"
	case ledger.IsNotFound(err), errors.Is(err, repository.ErrRecordNotFound):
		return http.StatusNotFound, "NotFound"
	case ledger.IsStateDesync(err):
		return http.StatusConflict, "StateDesync"
	case ledger.IsNothingToDo(err):
		return http.StatusConflict, "NothingToDo"
	case errors.Is(err, ledger.ErrReentrantCall):
		return http.StatusConflict, "Reentrant"
	case ledger.IsPrecondition(err):
		return http.StatusUnprocessableEntity, "Precondition"
	case errors.Is(err, errBadRequest), errors.Is(err, helper.ErrInvalidAddress), errors.Is(err, helper.ErrInvalidAmount):
		return http.StatusBadRequest, "BadRequest"
	case errors.Is(err, metadata.ErrUnresolvableUri), errors.Is(err, metadata.ErrBadStatus):
		return http.StatusBadGateway, "Metadata"
	}
	return http.StatusInternalServerError, "Internal"
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusNotFound, dev.NewError("api", "NotFound", fmt.Errorf("no route for %s %s", r.Method, r.URL.Path), nil))
	})
}
