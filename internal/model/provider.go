package model

const (
	ProviderStripe = "stripe"
	ProviderPolar  = "polar"
)
