package service

// Cost-centre type codes with dedicated approval routing paths. Type
// 102 tracks budgets per fiscal year and routes through its own path.
const (
	CostCentreTypePerforming    = "100"
	CostCentreTypeNonPerforming = "101"
	CostCentreTypeFiscalYear    = "102"
)

// DefaultPathID is the routing path for workflows that are not
// cost-centre applicable and for unrecognized cost-centre types.
const DefaultPathID = 1

var pathByCostCentreType = map[string]int{
	CostCentreTypePerforming:    2,
	CostCentreTypeNonPerforming: 3,
	CostCentreTypeFiscalYear:    4,
}

// PathForLevel returns the routing path tag for a level. Level 0 (the
// creator) always carries path 0; every later level carries the path
// derived from the variant's cost-centre type.
func PathForLevel(costCentreType string, levelIndex int) int {
	if levelIndex == 0 {
		return 0
	}
	if p, ok := pathByCostCentreType[costCentreType]; ok {
		return p
	}
	return DefaultPathID
}
