package models

// SampleSize bounds the record sample carried by a Summary.
const SampleSize = 5

// Summary is the deterministic reduction of one fetched record set.
type Summary struct {
	Total     int  `json:"total"`     // remote authoritative count
	Retrieved int  `json:"retrieved"` // records actually analyzed
	Complete  bool `json:"complete"`  // Total == Retrieved

	ByAssignee     *Breakdown `json:"byAssignee"`
	ByReporter     *Breakdown `json:"byReporter"`
	ByStatus       *Breakdown `json:"byStatus"`
	ByType         *Breakdown `json:"byType"`
	ByPriority     *Breakdown `json:"byPriority"`
	ByCreatedMonth *Breakdown `json:"byCreatedMonth"`
	ByUpdatedMonth *Breakdown `json:"byUpdatedMonth"`

	Samples []Record `json:"samples"`
}

// EntityStanding is one entity's position in a ranked comparison.
type EntityStanding struct {
	Entity   string   `json:"entity"`
	Count    int      `json:"count"`
	Share    float64  `json:"share"` // percentage of combined total, 0 when HasShare is false
	HasShare bool     `json:"hasShare"`
	Summary  *Summary `json:"summary,omitempty"`
	Err      string   `json:"error,omitempty"`
}

// Comparison ranks compared entities by fetched-item count.
type Comparison struct {
	Standings     []EntityStanding `json:"standings"` // count descending, request order on ties
	Winner        string           `json:"winner,omitempty"`
	RunnerUp      string           `json:"runnerUp,omitempty"`
	Margin        int              `json:"margin"`
	Tie           bool             `json:"tie"`
	CombinedTotal int              `json:"combinedTotal"`
}
