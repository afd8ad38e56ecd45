package server

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/analysis"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/render"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OptionsResponse lists what the selectors may offer.
type OptionsResponse struct {
	Countries       []string `json:"countries"`
	Levels          []string `json:"levels"`
	MinDuration     int      `json:"min_duration"`
	MaxDuration     int      `json:"max_duration"`
	DefaultDuration int      `json:"default_duration"`
	ClusterColumns  []string `json:"cluster_columns"`
	DefaultCluster  string   `json:"default_cluster"`
	Strategy        string   `json:"placeholder_strategy"`
}

func (s *Server) optionsResponse() OptionsResponse {
	return OptionsResponse{
		Countries:       s.ds.Countries(),
		Levels:          s.ds.Levels(),
		MinDuration:     predict.MinDuration,
		MaxDuration:     predict.MaxDuration,
		DefaultDuration: s.opts.DefaultDuration,
		ClusterColumns:  dataset.ClusterColumns,
		DefaultCluster:  s.opts.DefaultCluster,
		Strategy:        s.pred.Strategy(),
	}
}

func (s *Server) options(c *gin.Context) {
	c.JSON(http.StatusOK, s.optionsResponse())
}

func (s *Server) predict(c *gin.Context) {
	in := predict.Input{DurationYears: s.opts.DefaultDuration}
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&in)
	} else {
		err = c.ShouldBindQuery(&in)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	in.DurationYears = predict.DurationOrDefault(in.DurationYears, s.opts.DefaultDuration)
	p, err := s.pred.Predict(in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"prediction": p,
		"headline":   predict.Headline(p),
	})
}

func (s *Server) affordability(c *gin.Context) {
	costs := analysis.Affordability(s.ds)
	c.JSON(http.StatusOK, gin.H{
		"countries": costs,
		"figure":    analysis.AffordabilityFigure(costs),
	})
}

func (s *Server) affordabilityPNG(c *gin.Context) {
	var buf bytes.Buffer
	if err := render.AffordabilityPNG(&buf, analysis.Affordability(s.ds)); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) clusterTable(c *gin.Context) (*analysis.ClusterTable, bool) {
	tbl, err := analysis.Clusters(s.ds, c.DefaultQuery("by", s.opts.DefaultCluster))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return tbl, true
}

func (s *Server) clusters(c *gin.Context) {
	if tbl, ok := s.clusterTable(c); ok {
		c.JSON(http.StatusOK, tbl)
	}
}

func (s *Server) clustersPNG(c *gin.Context) {
	tbl, ok := s.clusterTable(c)
	if !ok {
		return
	}
	col := c.DefaultQuery("column", dataset.ColTotalCost)
	if !slices.Contains(tbl.Columns, col) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("column %s is not averaged by the cluster table", col)})
		return
	}
	var buf bytes.Buffer
	if err := render.ClusterPNG(&buf, tbl, col); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) clustersXLSX(c *gin.Context) {
	tbl, ok := s.clusterTable(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.WriteWorkbook(&buf, tbl, analysis.Affordability(s.ds)); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "clusters_"+tbl.By+".xlsx"))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
