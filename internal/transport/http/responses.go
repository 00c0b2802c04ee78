package httptransport

import (
	"time"

	"domainwatch/internal/domains/models"
	"domainwatch/internal/query"
)

type lookupResponse struct {
	Domain       string                `json:"domain"`
	Status       string                `json:"status"`
	Reputation   *reputationResponse   `json:"reputation,omitempty"`
	Registration *registrationResponse `json:"registration,omitempty"`
	LastUpdated  *time.Time            `json:"last_updated,omitempty"`
}

type reputationResponse struct {
	Detections     int      `json:"detections"`
	Engines        int      `json:"engines"`
	FlaggedEngines []string `json:"flagged_engines"`
}

type registrationResponse struct {
	Owner   *string    `json:"owner"`
	Created *time.Time `json:"created"`
	Expires *time.Time `json:"expires"`
}

func toResponse(a *query.Answer) lookupResponse {
	resp := lookupResponse{
		Domain: a.Domain.String(),
		Status: string(a.Status),
	}
	if a.Record == nil {
		return resp
	}

	rep := a.Record.Reputation
	if rep == nil {
		empty := models.EmptyReputation()
		rep = &empty
	}
	flagged := rep.FlaggedEngines
	if flagged == nil {
		flagged = []string{}
	}
	resp.Reputation = &reputationResponse{
		Detections:     rep.DetectionCount,
		Engines:        rep.EngineCount,
		FlaggedEngines: flagged,
	}

	resp.Registration = &registrationResponse{}
	if reg := a.Record.Registration; reg != nil {
		resp.Registration.Owner = reg.Owner
		resp.Registration.Created = reg.CreatedAt
		resp.Registration.Expires = reg.ExpiresAt
	}
	resp.LastUpdated = a.Record.LastScannedAt
	return resp
}
