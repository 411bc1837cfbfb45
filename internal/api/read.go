package api

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/gorilla/mux"
)

func (s *Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	take, err := queryInt(r, "take", defaultTake)
	if err != nil {
		writeError(w, err)
		return
	}
	if take > maxTake {
		take = maxTake
	}

	l := s.daemon.Ledger()
	listings, err := l.GetAllListings(r.Context(), skip, take)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := l.ActiveListingCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]interface{}{"total": total, "listings": listings})
}

func (s *Server) handleGetListingsBySeller(w http.ResponseWriter, r *http.Request) {
	seller, err := helper.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, err)
		return
	}

	listings, err := s.daemon.Ledger().GetListingsBySeller(r.Context(), seller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, listings)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	nft, err := s.daemon.Ledger().Token(r.Context(), tokenId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, nft)
}

func (s *Server) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	nft, err := s.daemon.Ledger().Token(r.Context(), tokenId)
	if err != nil {
		writeError(w, err)
		return
	}

	md, err := s.metadata.GetMetadata(r.Context(), nft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, md)
}

func (s *Server) handleGetTokenRecords(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultTake)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.records.GetRecordsForToken(tokenId, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, records)
}

func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultTake)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.records.GetRecords(uint64(from), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(mux.Vars(r)["seq"], 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: seq %q", errBadRequest, mux.Vars(r)["seq"]))
		return
	}

	record, err := s.records.GetRecord(seq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, record)
}

func (s *Server) handleGetPayouts(w http.ResponseWriter, r *http.Request) {
	to, err := helper.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultTake)
	if err != nil {
		writeError(w, err)
		return
	}

	payouts, err := s.payouts.GetPayoutsTo(to, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, payouts)
}

func (s *Server) handleGetOwnerTokens(w http.ResponseWriter, r *http.Request) {
	owner, err := helper.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, err)
		return
	}

	ids, err := s.daemon.Ledger().GetNFTsByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, ids)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := helper.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, err)
		return
	}

	l := s.daemon.Ledger()
	pending, err := l.PendingBalance(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	tokens, err := l.BalanceOf(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	zil, err := helper.ToBech32(addr)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]interface{}{
		"address": addr,
		"bech32":  zil,
		"pending": pending,
		"tokens":  tokens,
	})
}

func (s *Server) handleGetFees(w http.ResponseWriter, r *http.Request) {
	fees, err := s.daemon.Ledger().Fees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJson(w, http.StatusOK, fees)
}

// handleGetRoyalty quotes the artist's cut of ?price=, defaulting to the
// token's current listing price.
func (s *Server) handleGetRoyalty(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	l := s.daemon.Ledger()
	price := new(big.Int)
	if v := r.URL.Query().Get("price"); v != "" {
		if price, err = helper.ParseAmount(v); err != nil {
			writeError(w, err)
			return
		}
	} else {
		listing, ok, err := l.Listing(r.Context(), tokenId)
		if err != nil {
			writeError(w, err)
			return
		}
		if ok {
			price = listing.Price
		}
	}

	artist, amount, err := l.RoyaltyInfo(r.Context(), tokenId, price)
	if err != nil {
		writeError(w, err)
		return
	}
	split, err := l.QuoteSale(r.Context(), tokenId, price)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]interface{}{
		"artist":  artist,
		"royalty": amount,
		"split":   split,
	})
}

func (s *Server) handleGetRoyaltyInfo(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	l := s.daemon.Ledger()
	if _, err := l.OwnerOf(r.Context(), tokenId); err != nil {
		writeError(w, err)
		return
	}
	info, ok, err := l.TokenRoyalty(r.Context(), tokenId)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJson(w, http.StatusOK, map[string]interface{}{"tokenId": tokenId, "royalty": nil})
		return
	}
	writeJson(w, http.StatusOK, map[string]interface{}{"tokenId": tokenId, "royalty": info})
}
