package catalog

// entries returns the catalog in evaluation order
func entries() []*Entry {
	return []*Entry{
		transactionGrowth(),
		stateGrowthLeaders(),
		decliningStates(),
		quarterSpikes(),
		transactionTypeShare(),
		deviceBrandExtremes(),
		stateEngagementExtremes(),
		quarterEngagementExtremes(),
		insuranceGrowth(),
		insuranceValueRange(),
		untappedStates(),
		consistentGrowthStates(),
		districtAppOpenShare(),
		topInsuranceStates(),
		peakInsuranceQuarters(),
		topInsuranceDistricts(),
		pincodeInsuranceGrowth(),
	}
}
