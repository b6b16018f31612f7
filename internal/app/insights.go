package service

import (
	"github.com/okian/tokscope/internal/domain/insights"
	"github.com/okian/tokscope/internal/domain/video"
)

// InsightsRequest is the body of the stateless insight endpoints.
type InsightsRequest struct {
	Videos  []video.Raw       `json:"videos"`
	Results []insights.Result `json:"results"`
}

// Clusters groups the analyzed videos by theme.
func (s *Service) Clusters(req InsightsRequest) insights.ClusterGraph {
	summaries := make([]video.Summary, 0, len(req.Videos))
	for _, r := range req.Videos {
		if r != nil {
			summaries = append(summaries, video.SummaryOf(r))
		}
	}
	return insights.Clusters(summaries, req.Results)
}

// Dashboard summarizes themes, keywords and keyword relations.
func (s *Service) Dashboard(req InsightsRequest) insights.Summary {
	return insights.Dashboard(req.Results)
}
