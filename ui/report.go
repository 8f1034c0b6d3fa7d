package ui

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"

	"psyphy/app"
	"psyphy/domain/psychometric"
)

// handleReport renders a session's threshold estimate as an HTML report.
// Pass ?format=markdown for the raw source.
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := a.ledger.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	trials, err := a.ledger.ListTrials(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	estimate, err := a.analysis.EstimateThreshold(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	md := renderReportMarkdown(session, trials, estimate)
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(markdown.ToHTML([]byte(md), nil, nil))
}

func renderReportMarkdown(session *psychometric.Session, trials []psychometric.TrialObservation,
	estimate *app.ThresholdEstimate) string {

	var b strings.Builder
	fmt.Fprintf(&b, "# Threshold Report\n\n")
	fmt.Fprintf(&b, "- Session: %s\n", session.ID)
	fmt.Fprintf(&b, "- Participant: %s\n", session.Participant)
	fmt.Fprintf(&b, "- Started: %s\n", session.StartedAt)
	fmt.Fprintf(&b, "- Trials: %d\n\n", len(trials))

	fmt.Fprintf(&b, "## Estimate\n\n")
	fmt.Fprintf(&b, "Best fit: **%s**, threshold **%.2f** (cross-family spread %.1f%%).\n\n",
		estimate.Best, estimate.Threshold, estimate.Spread*100)

	fmt.Fprintf(&b, "| Family | Threshold | Scale | R² | Converged |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	for _, name := range sortedFamilies(estimate) {
		res := estimate.Results[name]
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.4f | %t |\n",
			name, res.Threshold(), res.Params.Scale, res.RSquared, res.Converged)
	}

	if len(estimate.Failures) > 0 {
		fmt.Fprintf(&b, "\n## Failures\n\n")
		for name, msg := range estimate.Failures {
			fmt.Fprintf(&b, "- %s: %s\n", name, msg)
		}
	}
	return b.String()
}

func sortedFamilies(estimate *app.ThresholdEstimate) []string {
	names := make([]string, 0, len(estimate.Results))
	for name := range estimate.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
