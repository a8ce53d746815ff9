package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-tree-go/pkg/address"
	"github.com/Layr-Labs/merkle-tree-go/pkg/types"
)

// handleInstruction handles the /v1/instructions endpoint
func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req types.InstructionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	var payer, tree common.Address
	if req.Payer != nil {
		payer = *req.Payer
	}
	if req.Tree != nil {
		tree = *req.Tree
	}

	result, err := s.processor.Process(r.Context(), payer, tree, req.Data)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Sugar().Errorw("Instruction failed",
				"tree", tree.Hex(),
				"request_id", requestIDFrom(r.Context()),
				"error", err,
			)
		}
		s.writeError(w, r, status, err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusOK, result)
}

// handleListTrees handles GET /v1/trees
func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	trees, err := s.processor.ListTrees(r.Context())
	if err != nil {
		s.logger.Sugar().Errorw("Failed to list trees", "error", err)
		s.writeError(w, r, statusForError(err), err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusOK, trees)
}

// handleGetTree handles GET /v1/trees/{address}
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tree, err := address.ParseAddress(r.PathValue("address"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.processor.GetTree(r.Context(), tree)
	if err != nil {
		s.writeError(w, r, statusForError(err), err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusOK, state)
}

// handleGetProof handles GET /v1/trees/{address}/proof/{index}
func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	tree, err := address.ParseAddress(r.PathValue("address"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid leaf index %q", r.PathValue("index")))
		return
	}

	proof, root, err := s.processor.GetProof(r.Context(), tree, index)
	if err != nil {
		s.writeError(w, r, statusForError(err), err.Error())
		return
	}

	siblings := make([]common.Hash, len(proof.Siblings))
	for i, sibling := range proof.Siblings {
		siblings[i] = sibling
	}

	s.writeJSON(w, r, http.StatusOK, &types.ProofResponse{
		Tree:      tree,
		LeafIndex: proof.LeafIndex,
		LeafHash:  proof.LeafHash,
		Siblings:  siblings,
		Root:      root,
	})
}

// handleDeriveAddress handles GET /v1/address?payer=
func (s *Server) handleDeriveAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	payer, err := address.ParseAddress(r.URL.Query().Get("payer"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, r, http.StatusOK, &types.AddressResponse{
		Payer:     payer,
		Tree:      s.processor.TreeAddress(payer),
		ProgramID: s.processor.ProgramID(),
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := &types.HealthResponse{Status: "ok", Hasher: s.processor.Hasher().ID()}
	if err := s.processor.HealthCheck(); err != nil {
		s.logger.Sugar().Warnw("Health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Error = err.Error()
		s.writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Sugar().Errorw("Failed to encode response",
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
			"error", err,
		)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, &types.ErrorResponse{
		Error:     msg,
		RequestID: requestIDFrom(r.Context()),
	})
}
