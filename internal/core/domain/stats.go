package domain

import (
	"math"
	"strconv"
)

// DocumentStats holds the aggregates derived locally from a document collection
type DocumentStats struct {
	Total              int
	Verified           int
	VerifiedPercentage int
	Processed          int
}

// ComputeStats counts documents. VerifiedPercentage is round(100*verified/total)
// and 0 for an empty collection.
func ComputeStats(docs []Document) DocumentStats {
	s := DocumentStats{Total: len(docs)}
	for _, d := range docs {
		if d.VerificationStatus == Verified {
			s.Verified++
		}
		if d.AIStatus == AIProcessed {
			s.Processed++
		}
	}
	if s.Total > 0 {
		s.VerifiedPercentage = int(math.Round(100 * float64(s.Verified) / float64(s.Total)))
	}
	return s
}

// DeriveStats builds the fallback stat cards shown when the server returns none.
// Labels and icons mirror the ones the backend emits.
func DeriveStats(docs []Document) []Stat {
	s := ComputeStats(docs)
	return []Stat{
		{Label: "Total Documents", Value: strconv.Itoa(s.Total), Change: "", Icon: "description"},
		{Label: "Blockchain Verified", Value: strconv.Itoa(s.VerifiedPercentage) + "%", Change: "", Icon: "verified_user"},
		{Label: "AI Insights", Value: strconv.Itoa(s.Processed), Change: "", Icon: "auto_awesome"},
	}
}

// EffectiveStats returns server stats verbatim when there are any, otherwise the
// locally derived ones. The two sources are never mixed.
func EffectiveStats(server []Stat, docs []Document) []Stat {
	if len(server) > 0 {
		return server
	}
	return DeriveStats(docs)
}
