// Package pricing estimates the monetary egress cost of moving data between
// cloud regions. The planner treats it as a pure lookup.
package pricing

import (
	"fmt"
	"strings"
)

// CostModel returns the estimated dollars per gigabyte for one hop between
// two provider-qualified regions.
type CostModel interface {
	TransferCost(srcRegionTag, dstRegionTag string) (float64, error)
}

// StaticCostModel prices egress from a fixed per-provider grid: free within
// a region, a discounted intra-provider rate between regions of the same
// provider, and the provider's internet egress rate when crossing providers.
type StaticCostModel struct {
	intra map[string]float64
	cross map[string]float64
}

// NewStaticCostModel returns a grid loaded with list-price defaults.
func NewStaticCostModel() *StaticCostModel {
	return NewStaticCostModelFromRates(
		map[string]float64{
			"aws":   0.02,
			"gcp":   0.02,
			"azure": 0.02,
		},
		map[string]float64{
			"aws":   0.09,
			"gcp":   0.12,
			"azure": 0.0875,
		},
	)
}

// NewStaticCostModelFromRates builds a grid from explicit per-provider
// intra-cloud and cross-cloud egress rates.
func NewStaticCostModelFromRates(intra, cross map[string]float64) *StaticCostModel {
	return &StaticCostModel{intra: intra, cross: cross}
}

// TransferCost implements CostModel.
func (m *StaticCostModel) TransferCost(srcRegionTag, dstRegionTag string) (float64, error) {
	srcProvider, srcRegion, err := SplitRegionTag(srcRegionTag)
	if err != nil {
		return 0, err
	}
	dstProvider, dstRegion, err := SplitRegionTag(dstRegionTag)
	if err != nil {
		return 0, err
	}

	if srcProvider == dstProvider && srcRegion == dstRegion {
		return 0, nil
	}

	rates := m.cross
	if srcProvider == dstProvider {
		rates = m.intra
	}
	rate, ok := rates[srcProvider]
	if !ok {
		return 0, fmt.Errorf("no egress rate for provider %q", srcProvider)
	}
	return rate, nil
}

// SplitRegionTag splits a provider-qualified region tag such as
// "aws:us-east-1" into its provider and region parts.
func SplitRegionTag(tag string) (provider, region string, err error) {
	parts := strings.SplitN(tag, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed region tag %q, want provider:region", tag)
	}
	return parts[0], parts[1], nil
}
