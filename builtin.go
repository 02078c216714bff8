package rebalance

// Built-in scenarios. They share the same capital, window and funding plan
// (the package defaults) and differ by target weights and policy, so that
// `rbs compare` contrasts the policies, not the funding.

func coreAssets() []Asset {
	return []Asset{
		{Key: "nasdaq100", Name: "Nasdaq 100", Weight: 0.25},
		{Key: "sp500", Name: "S&P 500", Weight: 0.25},
		{Key: "csi930955", Name: "Dividend Low Vol 100", Weight: 0.25},
		{Key: "csi980092", Name: "Free Cash Flow", Weight: 0.25},
	}
}

func nasdaqHeavyAssets() []Asset {
	return []Asset{
		{Key: "nasdaq100", Name: "Nasdaq 100", Weight: 0.40},
		{Key: "sp500", Name: "S&P 500", Weight: 0.20},
		{Key: "csi930955", Name: "Dividend Low Vol 100", Weight: 0.20},
		{Key: "csi980092", Name: "Free Cash Flow", Weight: 0.20},
	}
}

func bondAssets() []Asset {
	return []Asset{
		{Key: "nasdaq100", Name: "Nasdaq 100", Weight: 0.225},
		{Key: "sp500", Name: "S&P 500", Weight: 0.225},
		{Key: "csi930955", Name: "Dividend Low Vol 100", Weight: 0.225},
		{Key: "csi980092", Name: "Free Cash Flow", Weight: 0.225},
		{Key: "cnb00003", Name: "Financial Bond", Weight: 0.10},
	}
}

func builtin(name string, policy Policy, assets []Asset) *Scenario {
	return &Scenario{
		Name:         name,
		Capital:      DefaultCapital,
		Start:        DefaultStart,
		End:          DefaultEnd,
		InitialRatio: DefaultInitialRatio,
		Years:        DefaultYears,
		RiskFree:     DefaultRiskFree,
		Currency:     DefaultCurrency,
		Policy:       policy,
		Assets:       assets,
	}
}

// Builtins returns the built-in scenarios, freshly allocated.
func Builtins() []*Scenario {
	return []*Scenario{
		builtin("balanced", Never{}, coreAssets()),
		builtin("periodic", Periodic{Days: 182}, coreAssets()),
		builtin("threshold5", Threshold{Band: 0.05}, coreAssets()),
		builtin("nasdaq40", RelativeThreshold{Band: 0.15}, nasdaqHeavyAssets()),
		builtin("bond", Never{}, bondAssets()),
		builtin("bond-relative", RelativeThreshold{Band: 0.20}, bondAssets()),
	}
}

// Builtin returns the built-in scenario with that name.
func Builtin(name string) (*Scenario, bool) {
	for _, s := range Builtins() {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
