package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ZilDuck/nft-marketplace-ledger/internal/entity"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/helper"
	"github.com/ZilDuck/nft-marketplace-ledger/internal/ledger"
)

type royaltyRequest struct {
	Artist    string `json:"artist"`
	SaleBps   uint64 `json:"saleBps"`
	ListenBps uint64 `json:"listenBps"`
}

type mintRequest struct {
	To      string          `json:"to,omitempty"`
	Uri     string          `json:"uri"`
	Royalty *royaltyRequest `json:"royalty,omitempty"`
}

type priceRequest struct {
	Price string `json:"price"`
}

type batchListensRequest struct {
	TokenIds []uint64 `json:"tokenIds"`
	Amounts  []string `json:"amounts"`
}

type transferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type feeRequest struct {
	Bps *uint64 `json:"bps,omitempty"`
	Fee string  `json:"fee,omitempty"`
}

type administratorRequest struct {
	Administrator string `json:"administrator"`
}

type amountResponse struct {
	Amount *big.Int `json:"amount"`
}

type tokenResponse struct {
	TokenId uint64 `json:"tokenId"`
}

// execute decodes the caller, runs fn through the daemon and writes either
// the result or the mapped error.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error)) {
	c, err := call(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var result interface{}
	err = s.daemon.Execute(r.Context(), func(ctx context.Context, l *ledger.Ledger) error {
		var err error
		result, err = fn(ctx, l, c)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJson(w, status, result)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var royalty *entity.RoyaltyInfo
	if req.Royalty != nil {
		artist, err := helper.ParseAddress(req.Royalty.Artist)
		if err != nil {
			writeError(w, err)
			return
		}
		royalty = &entity.RoyaltyInfo{Artist: artist, SaleBps: req.Royalty.SaleBps, ListenBps: req.Royalty.ListenBps}
	}

	s.execute(w, r, http.StatusCreated, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		id, err := l.Mint(ctx, c, req.Uri, royalty)
		if err != nil {
			return nil, err
		}
		return tokenResponse{id}, nil
	})
}

func (s *Server) handleSafeMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	to, err := helper.ParseAddress(req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusCreated, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		id, err := l.SafeMint(ctx, c, to, req.Uri)
		if err != nil {
			return nil, err
		}
		return tokenResponse{id}, nil
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.withPrice(w, r, func(ctx context.Context, l *ledger.Ledger, c ledger.Call, tokenId uint64, price *big.Int) error {
		return l.ListNFT(ctx, c, tokenId, price)
	})
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	s.withPrice(w, r, func(ctx context.Context, l *ledger.Ledger, c ledger.Call, tokenId uint64, price *big.Int) error {
		return l.UpdateListingPrice(ctx, c, tokenId, price)
	})
}

func (s *Server) withPrice(w http.ResponseWriter, r *http.Request, fn func(context.Context, *ledger.Ledger, ledger.Call, uint64, *big.Int) error) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req priceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	price, err := helper.ParseAmount(req.Price)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, fn(ctx, l, c, tokenId, price)
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.withToken(w, r, func(ctx context.Context, l *ledger.Ledger, c ledger.Call, tokenId uint64) error {
		return l.CancelListing(ctx, c, tokenId)
	})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.withToken(w, r, func(ctx context.Context, l *ledger.Ledger, c ledger.Call, tokenId uint64) error {
		return l.BuyNFT(ctx, c, tokenId)
	})
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	s.withToken(w, r, func(ctx context.Context, l *ledger.Ledger, c ledger.Call, tokenId uint64) error {
		return l.RecordListen(ctx, c, tokenId)
	})
}

func (s *Server) withToken(w http.ResponseWriter, r *http.Request, fn func(context.Context, *ledger.Ledger, ledger.Call, uint64) error) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, fn(ctx, l, c, tokenId)
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	tokenId, err := getTokenId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req transferRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	from, err := helper.ParseAddress(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := helper.ParseAddress(req.To)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, l.TransferFrom(ctx, c, from, to, tokenId)
	})
}

func (s *Server) handleBatchListens(w http.ResponseWriter, r *http.Request) {
	var req batchListensRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amounts := make([]*big.Int, len(req.Amounts))
	for i, a := range req.Amounts {
		amount, err := helper.ParseAmount(a)
		if err != nil {
			writeError(w, fmt.Errorf("amounts[%d]: %w", i, err))
			return
		}
		amounts[i] = amount
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, l.RecordBatchListens(ctx, c, req.TokenIds, amounts)
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		amount, err := l.WithdrawRoyalties(ctx, c)
		if err != nil {
			return nil, err
		}
		return amountResponse{amount}, nil
	})
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		amount, err := l.WithdrawFees(ctx, c)
		if err != nil {
			return nil, err
		}
		return amountResponse{amount}, nil
	})
}

func (s *Server) handleSetMarketplaceFee(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Bps == nil {
		writeError(w, fmt.Errorf("%w: bps is required", errBadRequest))
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, l.SetMarketplaceFee(ctx, c, *req.Bps)
	})
}

func (s *Server) handleSetMintFee(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Fee == "" {
		writeError(w, fmt.Errorf("%w: fee is required", errBadRequest))
		return
	}
	fee, err := helper.ParseAmount(req.Fee)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, l.SetMintFee(ctx, c, fee)
	})
}

func (s *Server) handleTransferAdministration(w http.ResponseWriter, r *http.Request) {
	var req administratorRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	admin, err := helper.ParseAddress(req.Administrator)
	if err != nil {
		writeError(w, err)
		return
	}

	s.execute(w, r, http.StatusOK, func(ctx context.Context, l *ledger.Ledger, c ledger.Call) (interface{}, error) {
		return nil, l.TransferAdministration(ctx, c, admin)
	})
}
