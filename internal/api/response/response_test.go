package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/airyra/flowboard/internal/domain"
)

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"task not found", domain.NewTaskNotFoundError("t1"), http.StatusNotFound, "TASK_NOT_FOUND"},
		{"status not found", domain.NewStatusNotFoundError("s1"), http.StatusNotFound, "STATUS_NOT_FOUND"},
		{"group not found", domain.NewGroupNotFoundError("g1"), http.StatusNotFound, "GROUP_NOT_FOUND"},
		{"archived", domain.NewArchivedTargetError("s1", "Old"), http.StatusConflict, "ARCHIVED_TARGET"},
		{"wip", domain.NewWipLimitExceededError("s1", 2, 2, 1), http.StatusConflict, "WIP_LIMIT_EXCEEDED"},
		{"default required", domain.NewDefaultStatusRequiredError("x"), http.StatusConflict, "DEFAULT_STATUS_REQUIRED"},
		{"validation", domain.NewValidationError([]string{"bad"}), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"nothing to revert", domain.NewNothingToRevertError("t1"), http.StatusBadRequest, "NOTHING_TO_REVERT"},
		{"transition failed", domain.NewTransitionFailedError("t1", fmt.Errorf("disk")), http.StatusInternalServerError, "TRANSITION_FAILED"},
		{"wrapped domain error", fmt.Errorf("tx: %w", domain.NewTaskNotFoundError("t1")), http.StatusNotFound, "TASK_NOT_FOUND"},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Error(rr, tt.err)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestPaginated_TotalPages(t *testing.T) {
	rr := httptest.NewRecorder()
	Paginated(rr, []int{1, 2}, 1, 2, 5)

	var resp struct {
		Pagination PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", resp.Pagination.TotalPages)
	}
}
