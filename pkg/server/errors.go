package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Layr-Labs/merkle-tree-go/pkg/instruction"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/program"
)

// statusForError maps program errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, instruction.ErrInvalidInstruction),
		errors.Is(err, instruction.ErrInvalidInstructionDataLength),
		errors.Is(err, instruction.ErrProofCountMismatch),
		errors.Is(err, merkle.ErrInvalidLeafLength),
		errors.Is(err, program.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, merkle.ErrTreeOverflow),
		errors.Is(err, program.ErrAccountAlreadyInitialized),
		errors.Is(err, program.ErrHasherMismatch):
		return http.StatusConflict
	case errors.Is(err, program.ErrAccountNotInitialized),
		errors.Is(err, merkle.ErrLeafIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, merkle.ErrRootMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
