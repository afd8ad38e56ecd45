package server

import (
	"net/http"
	"strconv"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/gin-gonic/gin"
)

// PageTitle heads the dashboard.
const PageTitle = "International Education Budget Planner"

type dashboardView struct {
	Title   string
	Options OptionsResponse

	Country  string
	Level    string
	Duration int
	Cluster  string

	Prediction   *predict.Prediction
	Headline     string
	PredictError string

	Figure   analysis.Figure
	MapError string

	ClusterHeaders []string
	ClusterRows    [][]string
	ClusterError   string
}

// dashboard runs one full render pass. A failing widget shows its error in
// place; the others still render.
func (s *Server) dashboard(c *gin.Context) {
	v := dashboardView{Title: PageTitle, Options: s.optionsResponse()}

	v.Country = pick(c.Query("country"), v.Options.Countries)
	v.Level = pick(c.Query("level"), v.Options.Levels)
	d, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		d = 0
	}
	v.Duration = predict.ClampDuration(predict.DurationOrDefault(d, s.opts.DefaultDuration))
	v.Cluster = c.DefaultQuery("cluster", s.opts.DefaultCluster)

	if p, err := s.pred.Predict(predict.Input{Country: v.Country, Level: v.Level, DurationYears: v.Duration}); err != nil {
		v.PredictError = err.Error()
		s.log.Warn("prediction failed", "request_id", c.GetString(requestIDKey), "country", v.Country, "level", v.Level, "error", err)
	} else {
		v.Prediction = p
		v.Headline = predict.Headline(p)
	}

	if costs := analysis.Affordability(s.ds); len(costs) > 0 {
		v.Figure = analysis.AffordabilityFigure(costs)
	} else {
		v.MapError = "no " + dataset.ColTotalCost + " values to map"
	}

	if tbl, err := analysis.Clusters(s.ds, v.Cluster); err != nil {
		v.ClusterError = err.Error()
	} else {
		recs := tbl.Records()
		v.ClusterHeaders, v.ClusterRows = recs[0], recs[1:]
	}

	c.HTML(http.StatusOK, "dashboard.html", v)
}

// pick defaults an empty selection to the first option. Unknown values pass
// through so the prediction widget reports them.
func pick(want string, options []string) string {
	if want != "" || len(options) == 0 {
		return want
	}
	return options[0]
}
