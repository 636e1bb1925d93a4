package httpinterface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/btcsuite/btcd/btcjson"

	"github.com/sova-network/sova-sentinel/api"
	"github.com/sova-network/sova-sentinel/internal/core/application"
	"github.com/sova-network/sova-sentinel/internal/core/domain"
	"github.com/sova-network/sova-sentinel/pkg/bitcoin"
)

func (s *Service) lockSlot(w http.ResponseWriter, r *http.Request) {
	req := api.LockSlotRequest{}
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := s.opts.SentinelService.LockSlot(
		r.Context(), req.LockedAtBlock, req.BtcBlock, toLockEntry(req.Slot),
	)
	if errors.Is(err, domain.ErrSlotAlreadyLocked) {
		writeJSON(w, http.StatusOK, api.LockSlotResponse{
			Status: api.StatusAlreadyLocked,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.LockSlotResponse{Status: api.StatusLocked})
}

func (s *Service) getSlotStatus(w http.ResponseWriter, r *http.Request) {
	req := api.GetSlotStatusRequest{}
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := s.opts.SentinelService.GetSlotStatus(
		r.Context(), req.CurrentBlock, toSlotID(req.Slot),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.GetSlotStatusResponse{
		SlotStatus: toSlotStatus(*view),
	})
}

func (s *Service) batchLockSlot(w http.ResponseWriter, r *http.Request) {
	req := api.BatchLockSlotRequest{}
	if !decodeJSON(w, r, &req) {
		return
	}

	entries := make([]application.LockEntry, 0, len(req.Slots))
	for _, slot := range req.Slots {
		entries = append(entries, toLockEntry(slot))
	}

	_, err := s.opts.SentinelService.BatchLockSlot(
		r.Context(), req.LockedAtBlock, req.BtcBlock, entries,
	)
	if errors.Is(err, domain.ErrSlotAlreadyLocked) {
		writeJSON(w, http.StatusOK, api.BatchLockSlotResponse{
			Status: api.StatusAlreadyLocked,
			Error:  err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.BatchLockSlotResponse{
		Status: api.StatusLocked,
	})
}

func (s *Service) batchGetSlotStatus(w http.ResponseWriter, r *http.Request) {
	req := api.BatchGetSlotStatusRequest{}
	if !decodeJSON(w, r, &req) {
		return
	}

	ids := make([]domain.SlotIdentifier, 0, len(req.Slots))
	for _, slot := range req.Slots {
		ids = append(ids, toSlotID(slot))
	}

	views, err := s.opts.SentinelService.BatchGetSlotStatus(
		r.Context(), req.CurrentBlock, req.BtcBlock, ids,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	statuses := make([]api.SlotStatus, 0, len(views))
	for _, view := range views {
		statuses = append(statuses, toSlotStatus(view))
	}
	writeJSON(w, http.StatusOK, api.BatchGetSlotStatusResponse{
		Statuses: statuses,
	})
}

func (s *Service) batchUnlockSlot(w http.ResponseWriter, r *http.Request) {
	req := api.BatchUnlockSlotRequest{}
	if !decodeJSON(w, r, &req) {
		return
	}

	ids := make([]domain.SlotIdentifier, 0, len(req.Slots))
	for _, slot := range req.Slots {
		ids = append(ids, toSlotID(slot))
	}

	results, err := s.opts.SentinelService.BatchUnlockSlot(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]api.UnlockResult, 0, len(results))
	for _, res := range results {
		unlocked := api.UnlockResult{
			SlotRef:  toSlotRef(res.Identifier),
			Unlocked: res.Unlocked,
		}
		if res.Err != nil {
			unlocked.Error = res.Err.Error()
		}
		out = append(out, unlocked)
	}
	writeJSON(w, http.StatusOK, api.BatchUnlockSlotResponse{Results: out})
}

func toLockEntry(slot api.SlotData) application.LockEntry {
	return application.LockEntry{
		Identifier:   toSlotID(slot.SlotRef),
		RevertValue:  slot.RevertValue,
		CurrentValue: slot.CurrentValue,
		BtcTxid:      slot.BtcTxid,
	}
}

func toSlotID(ref api.SlotRef) domain.SlotIdentifier {
	return domain.SlotIdentifier{
		ContractAddress: ref.ContractAddress,
		SlotIndex:       ref.SlotIndex,
	}
}

func toSlotRef(id domain.SlotIdentifier) api.SlotRef {
	return api.SlotRef{
		ContractAddress: id.ContractAddress,
		SlotIndex:       id.SlotIndex,
	}
}

func toSlotStatus(view application.SlotStatusView) api.SlotStatus {
	status := api.SlotStatus{SlotRef: toSlotRef(view.Identifier)}
	if view.Err != nil {
		status.Error = view.Err.Error()
		return status
	}

	status.Status = view.Status.String()
	status.Value = view.Value
	if view.Status == domain.StatusLocked {
		currentValue, revertValue := view.CurrentValue, view.RevertValue
		status.CurrentValue = &currentValue
		status.RevertValue = &revertValue
		status.ConfirmationDepth = view.ConfirmationDepth
	}
	return status
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	//nolint:errcheck
	json.NewEncoder(w).Encode(v)
}

// statusClientClosedRequest mirrors nginx's non-standard 499: the client went
// away before a reply could be sent.
const statusClientClosedRequest = 499

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	var unreachable *bitcoin.NodeUnreachableError
	var rpcErr *btcjson.RPCError
	switch {
	case errors.Is(err, application.ErrDevUnlockDisabled):
		code = http.StatusForbidden
	case errors.Is(err, application.ErrMissingEntries),
		errors.Is(err, domain.ErrInvalidBtcTxid):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrSlotNotLocked):
		code = http.StatusNotFound
	case errors.As(err, &unreachable):
		code = http.StatusServiceUnavailable
	case errors.As(err, &rpcErr):
		code = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		code = statusClientClosedRequest
	}

	writeJSON(w, code, api.ErrorResponse{Error: err.Error()})
}
