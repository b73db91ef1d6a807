package intake

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"buildreport/internal/build"
)

// Notification is the build-completion document accepted by the intake path.
type Notification struct {
	StartTimeMillis int64             `json:"start_time_ms"`
	DurationMillis  int64             `json:"duration_ms"`
	Result          string            `json:"result"`
	Number          int               `json:"number"`
	JobName         string            `json:"job_name"`
	Env             map[string]string `json:"env"`
}

// record converts the notification into build facts for the reporter.
func (n Notification) record() *build.Record {
	return &build.Record{
		StartMillis:   n.StartTimeMillis,
		ElapsedMillis: n.DurationMillis,
		BuildResult:   n.Result,
		BuildNumber:   n.Number,
		Job:           n.JobName,
		Env:           build.MapEnvironment(n.Env),
	}
}

type intakeResponse struct {
	Delivered bool   `json:"delivered"`
	Detail    string `json:"detail,omitempty"`
}

func newBuildHandler(rep Reporter, maxBody int64, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if int64(len(raw)) > maxBody {
			http.Error(w, "body exceeds limit", http.StatusRequestEntityTooLarge)
			return
		}

		var note Notification
		if err := json.Unmarshal(raw, &note); err != nil {
			http.Error(w, "decode notification: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(note.JobName) == "" {
			http.Error(w, "job_name is required", http.StatusBadRequest)
			return
		}

		resp := intakeResponse{Delivered: true}
		if err := rep.ReportCompleted(r.Context(), note.record()); err != nil {
			logger.Error("report delivery failed",
				slog.String("job", note.JobName),
				slog.Int("build", note.Number),
				slog.String("error", err.Error()))
			resp.Delivered = false
			resp.Detail = err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
