package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.GetStats(r.Context())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(st).Write(w)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.GetLedger(r.Context())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(l).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	txns, err := s.ledger.ListTransactions(r.Context(), f)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	NewResponse().JSON(map[string]any{"transactions": txns, "count": len(txns)}).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	b, err := s.ledger.CategoryBreakdown(r.Context())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	if b.Categories == nil {
		b.Categories = []core.CategoryAmount{}
	}
	NewResponse().JSON(b).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	res, err := s.ledger.AddTransaction(r.Context(), req.input())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	ResultResponse(res, http.StatusCreated).Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	res, err := s.ledger.EditTransaction(r.Context(), id, req.input())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	ResultResponse(res, http.StatusOK).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.DeleteTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	limit, err := flexAmount("limit", req.Limit)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	st, err := s.ledger.SetMonthlyLimit(r.Context(), limit)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(st).Write(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	in, err := req.settings()
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	l, err := s.ledger.UpdateSettings(r.Context(), in)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(l).Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	l, err := s.ledger.Reset(r.Context())
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger reset requested",
		log.FieldOperation, log.OpReset)
	NewResponse().JSON(l).Write(w)
}

func (s *Server) handleQRParse(w http.ResponseWriter, r *http.Request) {
	var req qrTextRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	intent, err := s.ledger.ParseQR(req.Text)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(intent).Write(w)
}

func (s *Server) handleQRScan(w http.ResponseWriter, r *http.Request) {
	img, err := readImage(w, r, s.opts.MaxUploadBytes)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	intent, err := s.ledger.ScanQR(r.Context(), img)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	NewResponse().JSON(intent).Write(w)
}

// handleQRPay records a payment from raw QR text or from a parsed intent
// the client already confirmed.
func (s *Server) handleQRPay(w http.ResponseWriter, r *http.Request) {
	var req qrPayRequest
	if err := decodeJSON(r, &req, 0); err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}

	var intent core.PaymentIntent
	if text := sanitizeInput(req.Text); text != "" {
		parsed, err := s.ledger.ParseQR(text)
		if err != nil {
			errorResponse(r.Context(), err).Write(w)
			return
		}
		intent = parsed
	} else {
		amount, err := flexAmount("amount", req.Amount)
		if err != nil {
			errorResponse(r.Context(), err).Write(w)
			return
		}
		intent = core.PaymentIntent{
			Amount:      amount,
			Merchant:    sanitizeInput(req.Merchant),
			PayeeID:     sanitizeInput(req.UPIID),
			Description: sanitizeInput(req.Note),
		}
	}

	res, err := s.ledger.RecordQRPayment(r.Context(), intent)
	if err != nil {
		errorResponse(r.Context(), err).Write(w)
		return
	}
	ResultResponse(res, http.StatusCreated).Write(w)
}

func (s *Server) handleQRSamples(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{"samples": s.ledger.SampleIntents()}).Write(w)
}
